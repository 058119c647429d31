// Package logx provides the standard logger implementations for mcpserve.
package logx

import (
	"log"
	"os"

	"github.com/lakeward/mcpserve/types"
)

// DefaultLogger is a basic types.Logger backed by the standard log package,
// writing to stderr so stdout stays clean for stdio transports.
type DefaultLogger struct {
	logger *log.Logger
}

// NewDefaultLogger creates a logger writing to stderr with standard flags.
func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{
		logger: log.New(os.Stderr, "[mcpserve] ", log.LstdFlags|log.Lmsgprefix),
	}
}

// NewLogger wraps an existing *log.Logger; a nil argument falls back to the
// default stderr logger.
func NewLogger(logger *log.Logger) *DefaultLogger {
	if logger == nil {
		return NewDefaultLogger()
	}
	return &DefaultLogger{logger: logger}
}

func (l *DefaultLogger) Debug(format string, v ...interface{}) {
	l.logger.Printf("DEBUG: "+format, v...)
}

func (l *DefaultLogger) Info(format string, v ...interface{}) {
	l.logger.Printf("INFO: "+format, v...)
}

func (l *DefaultLogger) Warn(format string, v ...interface{}) {
	l.logger.Printf("WARN: "+format, v...)
}

func (l *DefaultLogger) Error(format string, v ...interface{}) {
	l.logger.Printf("ERROR: "+format, v...)
}

var _ types.Logger = (*DefaultLogger)(nil)

// NopLogger discards all messages. Used in tests and as a safe fallback.
type NopLogger struct{}

func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}

var _ types.Logger = NopLogger{}
