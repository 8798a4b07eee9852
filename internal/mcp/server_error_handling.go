// file: internal/mcp/server_error_handling.go
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/dkoosis/spotignition/internal/logging"
	mcptypes "github.com/dkoosis/spotignition/internal/mcp_types"
	"github.com/dkoosis/spotignition/internal/mcperror"
	"github.com/dkoosis/spotignition/internal/transport"
)

// mapError converts a handler or transport error to JSON-RPC code, message and data.
func mapError(err error) (int, string, any) {
	var transportErr *transport.Error
	if errors.As(err, &transportErr) {
		code, message, data := transport.MapErrorToJSONRPC(err)
		return code, message, data
	}
	if errors.Is(err, context.DeadlineExceeded) && !mcperror.IsSpotifyError(err) {
		err = mcperror.NewTimeoutError("request timed out", map[string]any{"detail": err.Error()})
	}

	m := mcperror.ErrorToMap(err)
	code, _ := m["code"].(int)
	message, _ := m["message"].(string)
	return code, message, m["data"]
}

// createErrorResponse builds a JSON-RPC error response for err.
func (s *Server) createErrorResponse(err error, responseID json.RawMessage) ([]byte, error) {
	code, message, data := mapError(err)
	s.logErrorDetails(code, message, responseID, data, err)

	resp := mcptypes.JSONRPCErrorContainer{
		JSONRPC: "2.0",
		ID:      responseID,
		Error: mcptypes.JSONRPCErrorPayload{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
	responseBytes, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		return nil, errors.Wrap(marshalErr, "failed to marshal error response object")
	}
	return responseBytes, nil
}

// extractRequestID gets the raw id from a message. Array and object ids are
// invalid and reported as null.
func extractRequestID(logger logging.Logger, msgBytes []byte) json.RawMessage {
	var request struct {
		ID json.RawMessage `json:"id"`
	}
	_ = json.Unmarshal(msgBytes, &request)
	if request.ID == nil {
		return json.RawMessage("null")
	}
	idStr := strings.TrimSpace(string(request.ID))
	if strings.HasPrefix(idStr, "[") || strings.HasPrefix(idStr, "{") {
		logger.Warn("Invalid JSON-RPC ID (array/object) found, treating as null.", "rawId", idStr)
		return json.RawMessage("null")
	}
	return request.ID
}

// logErrorDetails logs the full error server-side; the client only sees the mapped payload.
func (s *Server) logErrorDetails(code int, message string, requestID json.RawMessage, data any, err error) {
	args := []any{
		"jsonrpcErrorCode", code,
		"jsonrpcErrorMessage", message,
		"originalError", fmt.Sprintf("%+v", err),
		"requestID", string(requestID),
	}
	if data != nil {
		args = append(args, "errorData", data)
	}
	if code == mcperror.CodeInternalError {
		s.logger.Error("Generating JSON-RPC error response.", args...)
		if s.metrics != nil {
			s.metrics.RecordError("mcp_server", err.Error())
		}
		return
	}
	s.logger.Info("Generating JSON-RPC error response.", args...)
}
