// Package middleware provides chainable handlers wrapped around MCP message processing.
package middleware

// file: internal/middleware/chain.go

import (
	mcptypes "github.com/dkoosis/spotignition/internal/mcp_types"
)

// middlewareChain implements mcptypes.Chain.
type middlewareChain struct {
	handler     mcptypes.MessageHandler
	middlewares []mcptypes.MiddlewareFunc
	finalized   bool
}

// NewChain creates a chain ending in finalHandler.
func NewChain(finalHandler mcptypes.MessageHandler) mcptypes.Chain {
	return &middlewareChain{handler: finalHandler}
}

// Use adds a middleware. After Handler() has been called a new chain is started
// from the composed handler.
func (c *middlewareChain) Use(middleware mcptypes.MiddlewareFunc) mcptypes.Chain {
	if c.finalized {
		return NewChain(c.handler).Use(middleware)
	}
	c.middlewares = append(c.middlewares, middleware)
	return c
}

// Handler composes the chain so the first middleware added runs first.
func (c *middlewareChain) Handler() mcptypes.MessageHandler {
	if c.finalized {
		return c.handler
	}
	handler := c.handler
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		handler = c.middlewares[i](handler)
	}
	c.finalized = true
	c.handler = handler
	return handler
}
