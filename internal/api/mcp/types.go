package mcp

import (
	"encoding/json"

	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// AppendTurnArgs are the arguments for append_turn.
type AppendTurnArgs struct {
	WorkspaceID string     `json:"workspace_id"`
	AgentType   string     `json:"agent_type"`
	SessionID   string     `json:"session_id"`
	Role        types.Role `json:"role"`
	Content     string     `json:"content"`
}

// GetContextArgs are the arguments for get_context.
type GetContextArgs struct {
	WorkspaceID       string `json:"workspace_id"`
	AgentType         string `json:"agent_type"`
	AdditionalContext string `json:"additional_context,omitempty"`
}

// SummarizeArgs are the arguments for summarize.
type SummarizeArgs struct {
	WorkspaceID string `json:"workspace_id"`
	AgentType   string `json:"agent_type"`
}

// ListSuggestionsArgs are the arguments for list_suggestions.
type ListSuggestionsArgs struct {
	WorkspaceID string                 `json:"workspace_id"`
	Status      types.SuggestionStatus `json:"status,omitempty"`
	AgentType   string                 `json:"agent_type,omitempty"`
	Limit       int                    `json:"limit,omitempty"`
}

// ListSuggestionsResult is the result of list_suggestions.
type ListSuggestionsResult struct {
	Suggestions []*types.Suggestion `json:"suggestions"`
	Count       int                 `json:"count"`
}

// GenerateSuggestionsArgs are the arguments for generate_suggestions.
type GenerateSuggestionsArgs struct {
	WorkspaceID string `json:"workspace_id"`
	AgentType   string `json:"agent_type,omitempty"`
}

// MarkSuggestionArgs are the arguments for mark_suggestion.
type MarkSuggestionArgs struct {
	ID     string                 `json:"id"`
	Status types.SuggestionStatus `json:"status"`
}

// SettingsArgs are the arguments for get_settings and update_settings.
// Update is ignored by get_settings.
type SettingsArgs struct {
	WorkspaceID string                      `json:"workspace_id"`
	Update      types.ContextSettingsUpdate `json:"update"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string      `json:"jsonrpc"` // Must be "2.0"
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"` // string, number, or null

	hasID bool
}

// UnmarshalJSON records whether the id member was present so notifications
// can be told apart from requests with a null id.
func (r *JSONRPCRequest) UnmarshalJSON(data []byte) error {
	type plain JSONRPCRequest
	aux := struct {
		*plain
		ID json.RawMessage `json:"id"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.ID = nil
	r.hasID = aux.ID != nil
	if !r.hasID {
		return nil
	}
	return json.Unmarshal(aux.ID, &r.ID)
}

// IsNotification reports whether the request omitted its id. Notifications
// are never answered.
func (r *JSONRPCRequest) IsNotification() bool {
	return !r.hasID
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
	ID      interface{}   `json:"id"`
}

// JSONRPCError represents a JSON-RPC 2.0 error.
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// JSON-RPC error codes
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
	ErrCodeServerError    = -32000
)

// MCPServerInfo identifies this MCP server.
type MCPServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// MCPServerCapabilities describes what this server supports.
type MCPServerCapabilities struct {
	Tools *MCPToolsCapability `json:"tools,omitempty"`
}

// MCPToolsCapability signals that the server exposes tools.
type MCPToolsCapability struct{}

// MCPInitializeResult is the response to the initialize request.
type MCPInitializeResult struct {
	ProtocolVersion string                `json:"protocolVersion"`
	Capabilities    MCPServerCapabilities `json:"capabilities"`
	ServerInfo      MCPServerInfo         `json:"serverInfo"`
}

// MCPTool describes a single tool exposed via tools/list.
type MCPTool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// MCPToolsListResult is the response to the tools/list request.
type MCPToolsListResult struct {
	Tools []MCPTool `json:"tools"`
}

// MCPToolCallParams holds the parameters sent in a tools/call request.
type MCPToolCallParams struct {
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

// MCPToolCallContent is a single content block in a tool call response.
type MCPToolCallContent struct {
	Type string `json:"type"` // always "text"
	Text string `json:"text"`
}

// MCPToolCallResult is the response to a tools/call request.
type MCPToolCallResult struct {
	Content []MCPToolCallContent `json:"content"`
	IsError bool                 `json:"isError,omitempty"`
}
