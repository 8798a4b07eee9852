// file: internal/mcperror/types.go
package mcperror

import (
	"github.com/cockroachdb/errors"
)

// Base sentinel errors. Errors built by the constructors below are marked
// with these so errors.Is keeps working through wrapping.
var (
	ErrToolNotFound     = errors.New("tool not found")
	ErrInvalidArguments = errors.New("invalid arguments")
	ErrTimeout          = errors.New("operation timed out")
	ErrAuth             = errors.New("authentication failed")
	ErrSpotify          = errors.New("spotify api error")
	ErrRequestSequence  = errors.New("request out of sequence")
)

func build(base error, mark error, category string, code int, properties map[string]any) error {
	err := errors.Mark(base, mark)
	err = withPropertyMap(err, properties)
	return WithProperty(err, "category", category, "code", code)
}

func causeOrNew(cause error, message string) error {
	if cause == nil {
		return errors.Newf("%s", message)
	}
	return errors.Wrapf(cause, "%s", message)
}

// NewToolError creates a tool-related error.
//
//	properties := map[string]any{"tool_name": "get_track"}
//	return mcperror.NewToolError("Failed to execute tool", err, properties)
func NewToolError(message string, cause error, properties map[string]any) error {
	return build(causeOrNew(cause, message), ErrToolNotFound, CategoryTool, CodeToolNotFound, properties)
}

// NewInvalidArgumentsError creates an invalid params error. It maps to
// JSON-RPC -32602 and its properties are exposed as the error's data.
func NewInvalidArgumentsError(message string, properties map[string]any) error {
	return build(errors.Newf("%s", message), ErrInvalidArguments, CategoryRPC, CodeInvalidParams, properties)
}

// NewMethodNotFoundError creates a method not found error.
func NewMethodNotFoundError(method string, properties map[string]any) error {
	err := errors.Newf("method '%s' not found", method)
	err = withPropertyMap(err, properties)
	return WithProperty(err, "category", CategoryRPC, "code", CodeMethodNotFound, "method", method)
}

// NewTimeoutError creates a timeout error.
func NewTimeoutError(message string, properties map[string]any) error {
	return build(errors.Newf("%s", message), ErrTimeout, CategoryRPC, CodeTimeoutError, properties)
}

// NewAuthError creates an authentication error.
func NewAuthError(message string, cause error, properties map[string]any) error {
	return build(causeOrNew(cause, message), ErrAuth, CategoryAuth, CodeAuthError, properties)
}

// NewSpotifyError creates a Spotify Web API error carrying the HTTP status.
//
//	return mcperror.NewSpotifyError(429, "rate limited", err, nil)
func NewSpotifyError(status int, message string, cause error, properties map[string]any) error {
	err := build(causeOrNew(cause, message), ErrSpotify, CategorySpotify, CodeSpotifyError, properties)
	return WithProperty(err, "http_status", status)
}

// NewRequestSequenceError reports a method received in a lifecycle state that does not allow it.
func NewRequestSequenceError(message string, properties map[string]any) error {
	return build(errors.Newf("%s", message), ErrRequestSequence, CategoryRPC, CodeRequestSequence, properties)
}
