// file: internal/mcp_types/interfaces.go
package mcptypes

import (
	"context"
)

// MessageHandler processes one raw MCP message and returns the raw response.
// A nil response means nothing is sent back (notifications).
type MessageHandler func(ctx context.Context, message []byte) ([]byte, error)

// MiddlewareFunc wraps a MessageHandler.
type MiddlewareFunc func(handler MessageHandler) MessageHandler

// Chain composes middleware around a final MessageHandler.
type Chain interface {
	// Use adds a middleware. The first one added is the outermost.
	Use(middleware MiddlewareFunc) Chain
	// Handler returns the composed handler.
	Handler() MessageHandler
}
