// Package mcptypes defines the MCP wire types shared by the server, middleware and services.
// It has no internal dependencies so any package can import it.
// file: internal/mcp_types/types.go
package mcptypes

import (
	"encoding/json"
)

// Implementation describes the name and version of an MCP client or server.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientCapabilities describes features supported by the client.
type ClientCapabilities struct {
	Roots        *RootsCapability `json:"roots,omitempty"`
	Sampling     json.RawMessage  `json:"sampling,omitempty"`
	Experimental json.RawMessage  `json:"experimental,omitempty"`
}

// RootsCapability indicates client support for filesystem roots.
type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ServerCapabilities describes features supported by the server.
type ServerCapabilities struct {
	Tools   *ToolsCapability   `json:"tools,omitempty"`
	Logging *LoggingCapability `json:"logging,omitempty"`
}

// ToolsCapability indicates server support for tools.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// LoggingCapability indicates server support for logging.
type LoggingCapability struct{}

// InitializeRequest holds the params of 'initialize'.
type InitializeRequest struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ClientInfo      Implementation     `json:"clientInfo"`
	Capabilities    ClientCapabilities `json:"capabilities"`
}

// InitializeResult is the result of 'initialize'.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	ServerInfo      *Implementation    `json:"serverInfo"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	Instructions    string             `json:"instructions,omitempty"`
}

// Tool describes a tool offered to the client.
type Tool struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	InputSchema json.RawMessage  `json:"inputSchema"`
	Annotations *ToolAnnotations `json:"annotations,omitempty"`
}

// ToolAnnotations are hints about a tool's behavior.
type ToolAnnotations struct {
	Title           string `json:"title,omitempty"`
	ReadOnlyHint    bool   `json:"readOnlyHint,omitempty"`
	IdempotentHint  bool   `json:"idempotentHint,omitempty"`
	OpenWorldHint   bool   `json:"openWorldHint,omitempty"`
	DestructiveHint bool   `json:"destructiveHint,omitempty"`
}

// ListToolsResult is the result of 'tools/list'.
type ListToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

// CallToolRequest holds the params of 'tools/call'.
// Arguments stay raw; each tool decodes its own.
type CallToolRequest struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// CallToolResult is the result of a tool call.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Content is a content item in a tool result.
type Content interface {
	GetType() string
}

// TextContent is a text content item.
type TextContent struct {
	Type string `json:"type"` // Always "text".
	Text string `json:"text"`
}

// GetType returns "text".
func (t TextContent) GetType() string {
	return "text"
}

// NewTextContent builds a TextContent with its type set.
func NewTextContent(text string) TextContent {
	return TextContent{Type: "text", Text: text}
}

// CancelledNotification holds the params of 'notifications/cancelled'.
type CancelledNotification struct {
	RequestID json.RawMessage `json:"requestId"`
	Reason    string          `json:"reason,omitempty"`
}

// JSONRPCErrorPayload is the 'error' member of a JSON-RPC error response.
type JSONRPCErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// JSONRPCErrorContainer is a full JSON-RPC error response.
type JSONRPCErrorContainer struct {
	JSONRPC string              `json:"jsonrpc"`
	Error   JSONRPCErrorPayload `json:"error"`
	ID      json.RawMessage     `json:"id"`
}

// JSONRPCResponse is a full JSON-RPC success response.
type JSONRPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  any             `json:"result"`
	ID      json.RawMessage `json:"id"`
}
