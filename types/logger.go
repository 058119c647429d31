// Package types defines core interfaces shared across the mcpserve library.
package types

// Logger is the minimal leveled logging interface used throughout the
// library. Messages use printf-style formatting.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
