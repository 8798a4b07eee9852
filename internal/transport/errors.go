// file: internal/transport/errors.go
package transport

import (
	"fmt"
	"io"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrorCode identifies a transport-layer failure.
type ErrorCode int

// Transport error codes.
const (
	ErrGeneric ErrorCode = iota + 1000
	ErrInvalidMessage
	ErrMessageTooLarge
	ErrTransportClosed
	ErrReadTimeout
	ErrWriteTimeout
	ErrJSONParseFailed
)

// ErrorType groups transport errors for higher-level handling.
type ErrorType int

// Transport error types.
const (
	ErrorTypeGeneric ErrorType = iota
	ErrorTypeMessageSize
	ErrorTypeParse
	ErrorTypeTimeout
	ErrorTypeClosed
)

// Error is a transport-level error with a code, a cause, and loggable context.
type Error struct {
	Type    ErrorType
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any

	// Size and MaxSize are set for message size errors.
	Size    int
	MaxSize int
}

func (e *Error) Error() string {
	base := fmt.Sprintf("TransportError [%d] %s", e.Code, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", base, e.Cause)
	}
	return base
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithContext adds a key/value pair to the error's context and returns e.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Is matches another *Error with the same type and code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

func (e *Error) closedType() *Error {
	e.Type = ErrorTypeClosed
	return e
}

// NewError creates a generic transport error. The cause keeps its stack.
func NewError(code ErrorCode, message string, cause error) *Error {
	var wrapped error
	if cause != nil {
		wrapped = errors.WithStack(cause)
	}
	return &Error{
		Type:    ErrorTypeGeneric,
		Code:    code,
		Message: message,
		Cause:   wrapped,
		Context: map[string]any{
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		},
	}
}

// NewMessageSizeError reports a message larger than maxSize.
func NewMessageSizeError(size, maxSize int, fragment []byte) *Error {
	err := NewError(ErrMessageTooLarge, fmt.Sprintf("message size %d exceeds maximum allowed size %d", size, maxSize), nil)
	err.Type = ErrorTypeMessageSize
	err.Size = size
	err.MaxSize = maxSize
	if len(fragment) > 0 {
		err = err.WithContext("messagePreview", string(fragment))
	}
	return err
}

// NewParseError reports a message that is not valid JSON.
func NewParseError(message []byte, cause error) *Error {
	err := NewError(ErrJSONParseFailed, "failed to parse JSON message syntax", cause)
	err.Type = ErrorTypeParse
	return err.WithContext("messagePreview", string(preview(message))).
		WithContext("messageLength", len(message))
}

// NewTimeoutError reports a cancelled or timed out read or write.
func NewTimeoutError(operation string, cause error) *Error {
	code := ErrReadTimeout
	if operation == "write" {
		code = ErrWriteTimeout
	}
	err := NewError(code, fmt.Sprintf("%s operation timed out", operation), cause)
	err.Type = ErrorTypeTimeout
	return err.WithContext("operation", operation)
}

// NewClosedError reports an operation on a closed transport.
func NewClosedError(operation string) *Error {
	err := NewError(ErrTransportClosed, fmt.Sprintf("cannot perform %s on closed transport", operation), nil)
	err.Type = ErrorTypeClosed
	return err.WithContext("operation", operation)
}

// JSON-RPC 2.0 codes used when mapping transport errors to responses.
const (
	JSONRPCParseError     = -32700
	JSONRPCInvalidRequest = -32600
	JSONRPCMethodNotFound = -32601
	JSONRPCInvalidParams  = -32602
	JSONRPCInternalError  = -32603
)

// MapErrorToJSONRPC maps a transport error to a JSON-RPC code, message and data payload.
func MapErrorToJSONRPC(err error) (code int, message string, data map[string]any) {
	data = make(map[string]any)

	var transportErr *Error
	if !errors.As(err, &transportErr) {
		data["detail"] = "An unexpected internal server error occurred."
		return JSONRPCInternalError, "Internal error", data
	}

	data["internalCode"] = transportErr.Code
	switch transportErr.Code {
	case ErrJSONParseFailed:
		code, message = JSONRPCParseError, "Parse error"
		data["detail"] = "Invalid JSON received."
	case ErrInvalidMessage:
		code, message = JSONRPCInvalidRequest, "Invalid Request"
		data["detail"] = transportErr.Message
	case ErrMessageTooLarge:
		code, message = JSONRPCInvalidRequest, "Invalid Request"
		data["detail"] = fmt.Sprintf("Message size (%d bytes) exceeds limit (%d bytes).", transportErr.Size, transportErr.MaxSize)
	default:
		code, message = JSONRPCInternalError, "Internal error"
		data["detail"] = "Transport communication error occurred."
	}

	if p, ok := transportErr.Context["messagePreview"].(string); ok {
		data["messagePreview"] = p
	}
	return code, message, data
}

// IsClosedError reports whether err means the transport or its peer is gone.
func IsClosedError(err error) bool {
	var transportErr *Error
	if errors.As(err, &transportErr) && transportErr.Type == ErrorTypeClosed {
		return true
	}
	return errors.Is(err, io.EOF)
}
