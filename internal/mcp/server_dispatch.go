// file: internal/mcp/server_dispatch.go
package mcp

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	mcptypes "github.com/dkoosis/spotignition/internal/mcp_types"
	"github.com/dkoosis/spotignition/internal/mcperror"
)

type rpcMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// handleMessage is the final handler of the middleware chain. It checks the
// lifecycle state, dispatches to the method handler and advances the state
// after a successful call.
func (s *Server) handleMessage(ctx context.Context, message []byte) ([]byte, error) {
	var msg rpcMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		return nil, errors.Wrap(err, "failed to parse JSON-RPC message")
	}
	if msg.Method == "" {
		s.logger.Debug("Ignoring response message from client.", "id", string(msg.ID))
		return nil, nil
	}

	isNotif := len(msg.ID) == 0
	if isNotif {
		return nil, s.dispatchNotification(ctx, msg)
	}

	if err := s.state.ValidateMethod(msg.Method); err != nil {
		return nil, err
	}
	handler, ok := s.methods[msg.Method]
	if !ok {
		return nil, mcperror.NewMethodNotFoundError(msg.Method, nil)
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.options.RequestTimeout)
	defer cancel()

	result, err := handler(reqCtx, msg.Params)
	if err != nil {
		if reqCtx.Err() != nil && errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, mcperror.NewTimeoutError("request timed out",
				map[string]any{"method": msg.Method, "timeout": s.options.RequestTimeout.String()})
		}
		return nil, err
	}

	if err := s.state.Advance(ctx, msg.Method); err != nil {
		s.logger.Warn("Failed to advance connection state.", "method", msg.Method, "error", err)
	}

	return json.Marshal(mcptypes.JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      msg.ID,
		Result:  result,
	})
}

// dispatchNotification handles a message without id. Failures are logged,
// never answered.
func (s *Server) dispatchNotification(ctx context.Context, msg rpcMessage) error {
	if err := s.state.ValidateMethod(msg.Method); err != nil {
		s.logger.Warn("Ignoring out-of-sequence notification.", "method", msg.Method, "state", s.CurrentState())
		return nil
	}
	handler, ok := s.notification[msg.Method]
	if !ok {
		s.logger.Debug("Ignoring unknown notification.", "method", msg.Method)
		return nil
	}
	if _, err := handler(ctx, msg.Params); err != nil {
		s.logger.Warn("Notification handler failed.", "method", msg.Method, "error", err)
		return nil
	}
	if err := s.state.Advance(ctx, msg.Method); err != nil {
		s.logger.Warn("Failed to advance connection state.", "method", msg.Method, "error", err)
	}
	return nil
}
