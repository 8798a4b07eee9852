// file: internal/mcp/handlers_core.go
package mcp

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	mcptypes "github.com/dkoosis/spotignition/internal/mcp_types"
	"github.com/dkoosis/spotignition/internal/mcperror"
)

const serverInstructions = "Use get_track to look up one Spotify track by ID and get_tracks to look up up to 50 tracks at once. Batch results keep the order of the IDs you pass."

// handleInitialize answers the client's initialize request. The server
// always responds with ProtocolVersion; a client that cannot speak it may disconnect.
func (s *Server) handleInitialize(_ context.Context, params json.RawMessage) (json.RawMessage, error) {
	var req mcptypes.InitializeRequest
	if len(params) > 0 {
		if err := json.Unmarshal(params, &req); err != nil {
			return nil, mcperror.NewInvalidArgumentsError("invalid params for initialize: "+err.Error(),
				map[string]any{"method": "initialize"})
		}
	}

	s.logger.Info("Handling initialize request.",
		"clientRequestedVersion", req.ProtocolVersion,
		"serverVersion", ProtocolVersion,
		"clientName", req.ClientInfo.Name)
	if req.ProtocolVersion != "" && req.ProtocolVersion != ProtocolVersion {
		s.logger.Warn("MCP protocol version mismatch.",
			"clientRequested", req.ProtocolVersion,
			"serverRespondingWith", ProtocolVersion)
	}

	res := mcptypes.InitializeResult{
		ProtocolVersion: ProtocolVersion,
		ServerInfo:      &mcptypes.Implementation{Name: s.config.Server.Name, Version: s.options.Version},
		Capabilities: mcptypes.ServerCapabilities{
			Tools:   &mcptypes.ToolsCapability{ListChanged: false},
			Logging: &mcptypes.LoggingCapability{},
		},
		Instructions: serverInstructions,
	}
	resultBytes, err := json.Marshal(res)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal InitializeResult")
	}
	return resultBytes, nil
}

// handlePing answers with an empty object.
func (s *Server) handlePing(_ context.Context, _ json.RawMessage) (json.RawMessage, error) {
	s.logger.Debug("Handling ping request.")
	return json.RawMessage("{}"), nil
}

// handleShutdown acknowledges a shutdown request. The connection stays open until exit.
func (s *Server) handleShutdown(_ context.Context, _ json.RawMessage) (json.RawMessage, error) {
	s.logger.Info("Received shutdown request.")
	return json.RawMessage("null"), nil
}

// handleExit is the final lifecycle notification; the serve loop stops once the state is terminal.
func (s *Server) handleExit(_ context.Context, _ json.RawMessage) (json.RawMessage, error) {
	s.logger.Info("Received exit notification.")
	return nil, nil
}
