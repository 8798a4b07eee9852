// Package services defines the interface between the MCP server and the
// integrations that provide its tools.
// file: internal/services/service.go
package services

import (
	"context"
	"encoding/json"

	mcptypes "github.com/dkoosis/spotignition/internal/mcp_types"
)

// Service is a backend integration that exposes MCP tools.
// Configuration is handled by the service's constructor.
type Service interface {
	// GetName returns the unique, lowercase service identifier (e.g. "spotify").
	GetName() string

	// GetTools returns the tools this service provides.
	GetTools() []mcptypes.Tool

	// CallTool executes the named tool with raw JSON arguments.
	// Failures inside the tool (remote API errors, missing records) are reported
	// in the returned result with IsError set as appropriate. A non-nil error means
	// the call itself was rejected, e.g. arguments failing the input schema, and is
	// turned into a JSON-RPC error by the server.
	CallTool(ctx context.Context, name string, args json.RawMessage) (*mcptypes.CallToolResult, error)

	// Initialize performs setup once, before the service is used.
	Initialize(ctx context.Context) error

	// Shutdown releases resources before exit.
	Shutdown() error

	// IsAuthenticated reports whether the service has usable credentials.
	IsAuthenticated() bool
}
