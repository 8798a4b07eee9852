// file: internal/mcp/handlers_tools.go
package mcp

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	mcptypes "github.com/dkoosis/spotignition/internal/mcp_types"
	"github.com/dkoosis/spotignition/internal/mcperror"
)

// handleToolsList aggregates the tools of every registered service.
func (s *Server) handleToolsList(_ context.Context, _ json.RawMessage) (json.RawMessage, error) {
	tools := make([]mcptypes.Tool, 0, len(s.toolOwner))
	for _, svc := range s.services {
		tools = append(tools, svc.GetTools()...)
	}

	resultBytes, err := json.Marshal(mcptypes.ListToolsResult{Tools: tools})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal ListToolsResult")
	}
	s.logger.Debug("Handled tools/list request.", "toolsCount", len(tools))
	return resultBytes, nil
}

// handleToolCall routes a tool call to the owning service. Tool failures
// come back as results with isError set; an error from the service means
// the call was rejected and becomes a JSON-RPC error.
func (s *Server) handleToolCall(ctx context.Context, params json.RawMessage) (json.RawMessage, error) {
	var req mcptypes.CallToolRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, mcperror.NewInvalidArgumentsError("invalid params for tools/call: "+err.Error(),
			map[string]any{"method": "tools/call", "kind": "invalid_arguments"})
	}
	if req.Name == "" {
		return nil, mcperror.NewInvalidArgumentsError("tools/call requires a tool name",
			map[string]any{"method": "tools/call", "kind": "invalid_arguments"})
	}

	svc, ok := s.toolOwner[req.Name]
	if !ok {
		return nil, mcperror.NewToolError("Tool not found: "+req.Name, nil, map[string]any{"tool_name": req.Name})
	}

	s.logger.Info("Handling tools/call request.", "toolName", req.Name, "service", svc.GetName())
	result, err := svc.CallTool(ctx, req.Name, req.Arguments)
	if err != nil {
		s.metrics.RecordToolCall(req.Name, true)
		return nil, err
	}
	if result == nil {
		return nil, errors.Newf("tool %s returned no result", req.Name)
	}
	s.metrics.RecordToolCall(req.Name, result.IsError)

	resultBytes, err := json.Marshal(result)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal CallToolResult")
	}
	return resultBytes, nil
}
