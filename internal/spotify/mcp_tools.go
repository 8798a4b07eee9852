// file: internal/spotify/mcp_tools.go
package spotify

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	mcptypes "github.com/dkoosis/spotignition/internal/mcp_types"
	"github.com/dkoosis/spotignition/internal/mcperror"
	"github.com/dkoosis/spotignition/internal/schema"
)

// Tool names.
const (
	ToolGetTrack  = "get_track"
	ToolGetTracks = "get_tracks"
)

var getTrackInputSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "trackId": {
      "type": "string",
      "description": "Spotify track ID, e.g. 11dFghVXANMlKmJXsNCbNl"
    }
  },
  "required": ["trackId"]
}`)

var getTracksInputSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "trackIds": {
      "type": "array",
      "items": {"type": "string"},
      "maxItems": 50,
      "description": "Spotify track IDs, at most 50. Results are returned in the same order."
    }
  },
  "required": ["trackIds"]
}`)

func readOnlyAnnotations(title string) *mcptypes.ToolAnnotations {
	return &mcptypes.ToolAnnotations{
		Title:          title,
		ReadOnlyHint:   true,
		IdempotentHint: true,
		OpenWorldHint:  true,
	}
}

// GetTools returns the MCP tools provided by this service.
func (s *Service) GetTools() []mcptypes.Tool {
	return []mcptypes.Tool{
		{
			Name:        ToolGetTrack,
			Description: "Get detailed metadata for a single Spotify track by ID.",
			InputSchema: getTrackInputSchema,
			Annotations: readOnlyAnnotations("Get Spotify Track"),
		},
		{
			Name:        ToolGetTracks,
			Description: "Get metadata for up to 50 Spotify tracks in one request. Output follows input order.",
			InputSchema: getTracksInputSchema,
			Annotations: readOnlyAnnotations("Get Spotify Tracks"),
		},
	}
}

// CallTool routes MCP tool calls to the appropriate handler. Arguments are
// checked against the tool's input schema first; a rejection is returned as
// an invalid params error and no remote call is made.
func (s *Service) CallTool(ctx context.Context, name string, args json.RawMessage) (*mcptypes.CallToolResult, error) {
	var handlerFunc func(context.Context, json.RawMessage) (*mcptypes.CallToolResult, error)

	switch name {
	case ToolGetTrack:
		handlerFunc = s.handleGetTrack
	case ToolGetTracks:
		handlerFunc = s.handleGetTracks
	default:
		return nil, mcperror.NewToolError("Tool not found: "+name, nil, map[string]any{"tool_name": name})
	}

	if err := s.Initialize(ctx); err != nil {
		return nil, err
	}
	if err := s.validateArguments(name, args); err != nil {
		return nil, err
	}
	return handlerFunc(ctx, args)
}

func (s *Service) validateArguments(name string, args json.RawMessage) error {
	err := s.validator.Validate(name, args)
	if err == nil {
		return nil
	}
	var schemaErr *schema.ValidationError
	if !errors.As(err, &schemaErr) {
		return errors.Wrapf(err, "failed to validate arguments for %s", name)
	}
	if schemaErr.Code == schema.ErrSchemaNotFound {
		return errors.Wrapf(err, "schema missing for tool %s", name)
	}
	verr := classifySchemaError(schemaErr)
	s.logger.Debug("Tool arguments rejected.", "toolName", name, "kind", verr.Kind, "error", schemaErr.Message)
	return verr.ToRPCError(name)
}

// --- Tool Handlers ---

func (s *Service) handleGetTrack(ctx context.Context, args json.RawMessage) (*mcptypes.CallToolResult, error) {
	var params struct {
		TrackID string `json:"trackId"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, (&ValidationError{Kind: KindInvalidArguments, Message: err.Error(), Cause: err}).ToRPCError(ToolGetTrack)
	}

	outcome, err := s.fetcher.FetchOne(ctx, params.TrackID)
	if err != nil {
		s.logger.Warn("Track lookup failed.", "trackId", params.TrackID, "error", err)
		return errorResult(RenderError(err)), nil
	}
	return textResult(RenderOutcome(outcome)), nil
}

func (s *Service) handleGetTracks(ctx context.Context, args json.RawMessage) (*mcptypes.CallToolResult, error) {
	var params struct {
		TrackIDs []string `json:"trackIds"`
	}
	if err := json.Unmarshal(args, &params); err != nil {
		return nil, (&ValidationError{Kind: KindInvalidArguments, Message: err.Error(), Cause: err}).ToRPCError(ToolGetTracks)
	}
	var verr *ValidationError
	if err := ValidateTrackIDs(params.TrackIDs); errors.As(err, &verr) {
		return nil, verr.ToRPCError(ToolGetTracks)
	}

	if len(params.TrackIDs) == 0 {
		return textResult(MsgNoTrackIDs), nil
	}

	outcomes, ok, err := s.fetcher.FetchMany(ctx, params.TrackIDs)
	if err != nil {
		s.logger.Warn("Batch track lookup failed.", "count", len(params.TrackIDs), "error", err)
		return errorResult(RenderError(err)), nil
	}
	if !ok {
		return textResult(MsgNoTracksFound), nil
	}
	return textResult(RenderBatch(outcomes)), nil
}

func textResult(text string) *mcptypes.CallToolResult {
	return &mcptypes.CallToolResult{
		Content: []mcptypes.Content{mcptypes.NewTextContent(text)},
	}
}

func errorResult(text string) *mcptypes.CallToolResult {
	return &mcptypes.CallToolResult{
		IsError: true,
		Content: []mcptypes.Content{mcptypes.NewTextContent(text)},
	}
}
