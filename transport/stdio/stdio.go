// Package stdio provides a Transport implementation over standard
// input/output. Messages are newline-delimited JSON.
package stdio

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/lakeward/mcpserve/logx"
	"github.com/lakeward/mcpserve/types"
)

// Transport implements types.Transport by reading newline-delimited
// messages from a reader and writing them to a writer.
type Transport struct {
	reader     *bufio.Reader
	writer     io.Writer
	writeMutex sync.Mutex
	closeMutex sync.Mutex
	closed     bool
	logger     types.Logger
}

// NewTransport creates a transport bound to os.Stdin and os.Stdout.
func NewTransport() *Transport {
	return NewTransportWithReadWriter(os.Stdin, os.Stdout, types.TransportOptions{})
}

// NewTransportWithReadWriter creates a transport over the given streams.
func NewTransportWithReadWriter(reader io.Reader, writer io.Writer, opts types.TransportOptions) *Transport {
	logger := opts.Logger
	if logger == nil {
		logger = logx.NopLogger{}
	}
	bufSize := opts.BufferSize
	if bufSize <= 0 {
		bufSize = 64 * 1024
	}
	return &Transport{
		reader: bufio.NewReaderSize(reader, bufSize),
		writer: writer,
		logger: logger,
	}
}

// Send writes one message followed by a newline and flushes if possible.
func (t *Transport) Send(data []byte) error {
	t.closeMutex.Lock()
	if t.closed {
		t.closeMutex.Unlock()
		return fmt.Errorf("transport is closed")
	}
	t.closeMutex.Unlock()

	if len(data) == 0 {
		return fmt.Errorf("cannot send empty message")
	}

	t.writeMutex.Lock()
	defer t.writeMutex.Unlock()

	data = bytes.TrimRight(data, "\n")
	data = append(data, '\n')

	if _, err := t.writer.Write(data); err != nil {
		t.logger.Error("stdio transport: failed to write message: %v", err)
		return fmt.Errorf("failed to write message: %w", err)
	}
	if f, ok := t.writer.(*os.File); ok && (f == os.Stdout || f == os.Stderr) {
		_ = f.Sync()
	}
	return nil
}

// Receive blocks until the next line is read or an error occurs.
func (t *Transport) Receive() ([]byte, error) {
	return t.ReceiveWithContext(context.Background())
}

// ReceiveWithContext reads the next line, honoring context cancellation by
// running the blocking read on its own goroutine.
func (t *Transport) ReceiveWithContext(ctx context.Context) ([]byte, error) {
	t.closeMutex.Lock()
	if t.closed {
		t.closeMutex.Unlock()
		return nil, fmt.Errorf("transport is closed")
	}
	t.closeMutex.Unlock()

	type result struct {
		data []byte
		err  error
	}
	resultChan := make(chan result, 1)

	go func() {
		line, err := t.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(bytes.TrimSpace(line)) > 0 {
				// Partial final line without trailing newline still counts.
				resultChan <- result{data: line}
				return
			}
			resultChan <- result{err: err}
			return
		}
		resultChan <- result{data: line}
	}()

	select {
	case <-ctx.Done():
		_ = t.Close()
		return nil, ctx.Err()
	case res := <-resultChan:
		if res.err != nil {
			return nil, res.err
		}
		return bytes.TrimSpace(res.data), nil
	}
}

// Close marks the transport closed and closes the underlying streams when
// they support it.
func (t *Transport) Close() error {
	t.closeMutex.Lock()
	defer t.closeMutex.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true

	var firstErr error
	if closer, ok := t.writer.(io.Closer); ok {
		if f, isFile := t.writer.(*os.File); !isFile || (f != os.Stdout && f != os.Stderr) {
			if err := closer.Close(); err != nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

var _ types.Transport = (*Transport)(nil)
