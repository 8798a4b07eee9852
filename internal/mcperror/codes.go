// Package mcperror defines error types, codes, and utilities for MCP and JSON-RPC.
// file: internal/mcperror/codes.go
package mcperror

// Categories for grouping similar errors.
const (
	CategoryTool    = "tool"    // Tool-related errors
	CategoryAuth    = "auth"    // Authentication-related errors
	CategoryConfig  = "config"  // Configuration-related errors
	CategoryRPC     = "rpc"     // JSON-RPC-related errors
	CategorySpotify = "spotify" // Spotify Web API errors
)

// Error codes aligned with JSON-RPC 2.0.
const (
	// Standard JSON-RPC 2.0 error codes (-32768 to -32000 reserved).
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603

	// Application error codes (-32000 to -32099 for server errors).
	CodeToolNotFound     = -32001
	CodeInvalidArguments = -32002
	CodeAuthError        = -32003
	CodeSpotifyError     = -32004
	CodeTimeoutError     = -32005
	CodeRequestSequence  = -32006
)

// UserFacingMessage returns a user-friendly message based on error code.
func UserFacingMessage(code int) string {
	switch code {
	case CodeParseError:
		return "Failed to parse JSON request"
	case CodeInvalidRequest:
		return "Invalid request format"
	case CodeMethodNotFound:
		return "Method not found"
	case CodeInvalidParams:
		return "Invalid method parameters"
	case CodeToolNotFound:
		return "Requested tool not found"
	case CodeInvalidArguments:
		return "Invalid arguments provided"
	case CodeAuthError:
		return "Authentication failed"
	case CodeSpotifyError:
		return "Error communicating with Spotify"
	case CodeTimeoutError:
		return "Request timed out"
	case CodeRequestSequence:
		return "Request not allowed in the current connection state"
	default:
		return "Internal server error"
	}
}
