// Package transport defines interfaces and implementations for sending and receiving MCP messages.
package transport

// file: internal/transport/transport.go

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/logging"
)

// MaxMessageSize is the largest accepted JSON-RPC message in bytes.
const MaxMessageSize = 1024 * 1024 // 1MB.

// Transport sends and receives raw JSON-RPC messages.
// Implementations must be safe for one reader and concurrent writers.
type Transport interface {
	// ReadMessage blocks until a full message arrives, the context is done, or the peer goes away.
	ReadMessage(ctx context.Context) ([]byte, error)
	// WriteMessage sends one message.
	WriteMessage(ctx context.Context, message []byte) error
	// Close releases the underlying stream. Blocked reads return a closed error.
	Close() error
}

type readResult struct {
	data []byte
	err  error
}

// NDJSONTransport implements Transport for newline-delimited JSON, typically over stdio.
type NDJSONTransport struct {
	reader *bufio.Reader
	writer io.Writer
	closer io.Closer
	logger logging.Logger

	startReader sync.Once
	results     chan readResult
	done        chan struct{}

	writeLock sync.Mutex
	closeLock sync.RWMutex
	closed    bool
}

// NewNDJSONTransport creates a transport reading lines from reader and writing lines to writer.
// closer may be nil.
func NewNDJSONTransport(reader io.Reader, writer io.Writer, closer io.Closer, logger logging.Logger) *NDJSONTransport {
	if logger == nil {
		logger = logging.GetNoopLogger()
	}
	return &NDJSONTransport{
		reader:  bufio.NewReader(reader),
		writer:  writer,
		closer:  closer,
		logger:  logger.WithField("component", "ndjson_transport"),
		results: make(chan readResult),
		done:    make(chan struct{}),
	}
}

func (t *NDJSONTransport) isClosed() bool {
	t.closeLock.RLock()
	defer t.closeLock.RUnlock()
	return t.closed
}

// readLoop owns the bufio.Reader. A single goroutine keeps a cancelled
// ReadMessage from dropping a line that a later call should receive.
func (t *NDJSONTransport) readLoop() {
	defer close(t.results)
	for {
		data, err := t.readLine()
		select {
		case t.results <- readResult{data: data, err: err}:
		case <-t.done:
			return
		}
		if err != nil && IsClosedError(err) {
			return
		}
	}
}

func (t *NDJSONTransport) readLine() ([]byte, error) {
	var buffer bytes.Buffer
	for {
		line, prefix, err := t.reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, NewError(ErrTransportClosed, "connection closed by peer", io.EOF).closedType()
			}
			return nil, NewError(ErrGeneric, "failed to read message line", err)
		}

		buffer.Write(line)
		if buffer.Len() > MaxMessageSize {
			size := buffer.Len()
			// Drain the rest of the oversized line so the next read starts clean.
			for prefix {
				var rest []byte
				rest, prefix, err = t.reader.ReadLine()
				if err != nil {
					break
				}
				size += len(rest)
			}
			return nil, NewMessageSizeError(size, MaxMessageSize, preview(buffer.Bytes()))
		}
		if !prefix {
			break
		}
	}

	message := buffer.Bytes()
	if len(bytes.TrimSpace(message)) == 0 {
		return t.readLine()
	}
	t.logger.Debug("Received raw message.", "size", len(message), "contentPreview", string(preview(message)))

	if err := ValidateMessage(message); err != nil {
		t.logger.Warn("Invalid message received.", "validationError", err)
		return message, err
	}
	return message, nil
}

// ReadMessage implements Transport. On a validation failure the raw bytes are
// returned alongside the error so the caller can still recover a request id.
func (t *NDJSONTransport) ReadMessage(ctx context.Context) ([]byte, error) {
	if t.isClosed() {
		return nil, NewClosedError("read")
	}
	t.startReader.Do(func() { go t.readLoop() })

	select {
	case <-ctx.Done():
		return nil, NewTimeoutError("read", ctx.Err())
	case <-t.done:
		return nil, NewClosedError("read")
	case result, ok := <-t.results:
		if !ok {
			return nil, NewClosedError("read")
		}
		return result.data, result.err
	}
}

// WriteMessage implements Transport. Each message is followed by a newline.
func (t *NDJSONTransport) WriteMessage(ctx context.Context, message []byte) error {
	if t.isClosed() {
		return NewClosedError("write")
	}
	if err := ValidateMessage(message); err != nil {
		return err
	}
	if len(message) > MaxMessageSize {
		return NewMessageSizeError(len(message), MaxMessageSize, preview(message))
	}
	if err := ctx.Err(); err != nil {
		return NewTimeoutError("write", err)
	}

	t.writeLock.Lock()
	defer t.writeLock.Unlock()

	buf := make([]byte, len(message)+1)
	copy(buf, message)
	buf[len(message)] = '\n'

	t.logger.Debug("Writing message.", "size", len(buf), "contentPreview", string(preview(message)))
	n, err := t.writer.Write(buf)
	if err == nil && n < len(buf) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return NewError(ErrGeneric, "failed to write message", err)
	}
	return nil
}

// Close implements Transport.
func (t *NDJSONTransport) Close() error {
	t.closeLock.Lock()
	defer t.closeLock.Unlock()

	if t.closed {
		return nil
	}
	t.logger.Info("Closing NDJSON transport.")
	t.closed = true
	close(t.done)

	if t.closer != nil {
		if err := t.closer.Close(); err != nil {
			return NewError(ErrTransportClosed, "failed to close underlying transport stream", err)
		}
	}
	return nil
}

func preview(message []byte) []byte {
	if len(message) > 100 {
		return message[:100]
	}
	return message
}
