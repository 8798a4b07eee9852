// file: internal/mcp/server_processing.go
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/mcp/state"
	mcptypes "github.com/dkoosis/spotignition/internal/mcp_types"
	"github.com/dkoosis/spotignition/internal/transport"
)

// serverProcessing reads, handles and answers messages until a terminal
// condition. Non-terminal errors are logged and the loop continues.
func (s *Server) serverProcessing(ctx context.Context, handlerFunc mcptypes.MessageHandler) error {
	if handlerFunc == nil {
		return errors.New("serve called with nil handler function")
	}
	if s.transport == nil {
		return errors.New("serve called but server transport is nil")
	}
	s.logger.Info("Server processing loop started.")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Context canceled, stopping server loop.")
			return ctx.Err()
		default:
		}

		if err := s.processNextMessage(ctx, handlerFunc); err != nil {
			if s.isTerminalError(err) {
				s.logger.Info("Terminal error received, stopping server loop.", "reason", err)
				return err
			}
			s.logger.Error("Non-terminal error processing message.", "error", fmt.Sprintf("%+v", err))
		}

		if state.IsTerminal(s.state.CurrentState()) {
			s.logger.Info("Connection reached terminal state, stopping server loop.", "state", s.CurrentState())
			return nil
		}
	}
}

// processNextMessage handles one message. It returns an error only for
// conditions the loop should look at; handler failures are answered with a
// JSON-RPC error response.
func (s *Server) processNextMessage(ctx context.Context, handlerFunc mcptypes.MessageHandler) error {
	msgBytes, readErr := s.transport.ReadMessage(ctx)
	if readErr != nil {
		return s.handleTransportReadError(ctx, msgBytes, readErr)
	}

	method, idStr := s.extractMessageInfo(msgBytes)
	respBytes, handleErr := handlerFunc(ctx, msgBytes)
	if handleErr != nil {
		if writeErr := s.handleProcessingError(ctx, msgBytes, method, idStr, handleErr); writeErr != nil {
			return errors.Wrap(writeErr, "failed to write error response after processing error")
		}
		return nil
	}

	if respBytes == nil {
		if idStr != "null" && idStr != "unknown" {
			s.logger.Warn("Handler returned nil response bytes for a non-notification request.", "method", method, "id", idStr)
		}
		return nil
	}
	if writeErr := s.writeResponse(ctx, respBytes, method, idStr); writeErr != nil {
		return errors.Wrap(writeErr, "failed to write successful response")
	}
	return nil
}

// handleTransportReadError decides if a read error is terminal. Malformed
// or oversized messages are answered with an error response.
func (s *Server) handleTransportReadError(ctx context.Context, msgBytes []byte, readErr error) error {
	if s.isTerminalError(readErr) {
		if !transport.IsClosedError(readErr) {
			_ = s.state.Transition(ctx, state.EventTransportErrorOccurred, nil)
		}
		return readErr
	}

	var transportErr *transport.Error
	if errors.As(readErr, &transportErr) {
		switch transportErr.Code {
		case transport.ErrInvalidMessage, transport.ErrJSONParseFailed, transport.ErrMessageTooLarge:
			method, idStr := s.extractMessageInfo(msgBytes)
			if isNotification(msgBytes) {
				s.logger.Warn("Dropping invalid notification.", "method", method, "error", readErr)
				return nil
			}
			return s.handleProcessingError(ctx, msgBytes, method, idStr, readErr)
		}
	}

	s.logger.Error("Non-terminal error reading message from transport.", "error", fmt.Sprintf("%+v", readErr))
	return nil
}

// handleProcessingError logs the failure and sends a JSON-RPC error response.
// A null or missing request id is answered with id 0.
func (s *Server) handleProcessingError(ctx context.Context, msgBytes []byte, method, idForLog string, handleErr error) error {
	s.logger.Warn("Error processing message.",
		"method", method,
		"requestID", idForLog,
		"error", fmt.Sprintf("%+v", handleErr))

	responseID := extractRequestID(s.logger, msgBytes)
	if responseID == nil || string(responseID) == "null" {
		responseID = json.RawMessage("0")
	}

	errRespBytes, creationErr := s.createErrorResponse(handleErr, responseID)
	if creationErr != nil {
		s.logger.Error("Failed to create error response.",
			"creationError", fmt.Sprintf("%+v", creationErr),
			"originalError", fmt.Sprintf("%+v", handleErr))
		return creationErr
	}
	return s.writeResponse(ctx, errRespBytes, method, string(responseID))
}

// writeResponse sends response bytes through the transport.
func (s *Server) writeResponse(ctx context.Context, respBytes []byte, method, id string) error {
	if writeErr := s.transport.WriteMessage(ctx, respBytes); writeErr != nil {
		s.logger.Error("Failed to write response.",
			"method", method,
			"requestID", id,
			"responseSize", len(respBytes),
			"error", fmt.Sprintf("%+v", writeErr))
		return writeErr
	}
	s.logger.Debug("Wrote response.", "method", method, "requestID", id, "responseSize", len(respBytes))
	return nil
}

// isTerminalError reports whether err ends the connection.
func (s *Server) isTerminalError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, io.EOF) {
		return true
	}
	var transportErr *transport.Error
	if errors.As(err, &transportErr) {
		switch transportErr.Code {
		case transport.ErrTransportClosed, transport.ErrReadTimeout, transport.ErrWriteTimeout:
			return true
		}
	}
	return transport.IsClosedError(err)
}

// extractMessageInfo gets the method and id for logging. id is "unknown"
// when absent and "null" for a JSON null.
func (s *Server) extractMessageInfo(msgBytes []byte) (method string, id string) {
	id = "unknown"
	var parsed struct {
		Method *string         `json:"method"`
		ID     json.RawMessage `json:"id"`
	}
	_ = json.Unmarshal(msgBytes, &parsed)

	if parsed.Method != nil {
		method = *parsed.Method
	}
	if parsed.ID != nil {
		id = string(parsed.ID)
	}
	return method, id
}

// isNotification reports whether a parseable message has a method and no id.
func isNotification(msgBytes []byte) bool {
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(msgBytes, &envelope); err != nil {
		return false
	}
	_, hasMethod := envelope["method"]
	_, hasID := envelope["id"]
	return hasMethod && !hasID
}
