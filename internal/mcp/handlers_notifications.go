// file: internal/mcp/handlers_notifications.go
package mcp

import (
	"context"
	"encoding/json"

	mcptypes "github.com/dkoosis/spotignition/internal/mcp_types"
)

// handleNotificationsInitialized marks the end of the initialization handshake.
func (s *Server) handleNotificationsInitialized(_ context.Context, _ json.RawMessage) (json.RawMessage, error) {
	s.logger.Info("Client finished initialization.")
	return nil, nil
}

// handleNotificationsCancelled logs a cancellation. Requests are handled one
// at a time, so by the time it is read the request it names has been answered.
func (s *Server) handleNotificationsCancelled(_ context.Context, params json.RawMessage) (json.RawMessage, error) {
	var cancelParams mcptypes.CancelledNotification
	if err := json.Unmarshal(params, &cancelParams); err != nil {
		s.logger.Warn("Could not parse notifications/cancelled params.", "error", err)
	}
	s.logger.Info("Received request cancellation notification.",
		"requestID", string(cancelParams.RequestID),
		"reason", cancelParams.Reason)
	return nil, nil
}
