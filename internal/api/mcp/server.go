// Package mcp exposes the memory engine to agents as MCP tools over
// line-delimited JSON-RPC 2.0.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tpcministries/ldc-command-center/internal/engine"
	"github.com/tpcministries/ldc-command-center/internal/logging"
	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// protocolVersion is the MCP revision this server speaks.
const protocolVersion = "2024-11-05"

// defaultGeneratorAgent names the producer of suggestions generated via MCP.
const defaultGeneratorAgent = "proactive"

// memoryEngine is the subset of engine.Engine the tools call.
type memoryEngine interface {
	AppendTurn(ctx context.Context, turn *types.ConversationTurn) (*types.ConversationTurn, error)
	SummarizeIfDue(ctx context.Context, workspaceID, agentType string) (*engine.SummaryResult, error)
	GetSettings(ctx context.Context, workspaceID string) (*types.ContextSettings, error)
	UpdateSettings(ctx context.Context, workspaceID string, update types.ContextSettingsUpdate) (*types.ContextSettings, error)
	GenerateSuggestions(ctx context.Context, workspaceID, agentType string) (*engine.GenerationResult, error)
	ListSuggestions(ctx context.Context, workspaceID string, q storage.SuggestionQuery) ([]*types.Suggestion, error)
	MarkSuggestion(ctx context.Context, id string, status types.SuggestionStatus) (*types.Suggestion, error)
	AssembleContext(ctx context.Context, workspaceID, agentType, additionalContext string) (*engine.AssembledContext, error)
}

var _ memoryEngine = (*engine.Engine)(nil)

type toolHandler func(ctx context.Context, params interface{}) (interface{}, error)

// Server handles MCP requests against a memory engine.
type Server struct {
	engine  memoryEngine
	logger  *slog.Logger
	version string
	tools   map[string]toolHandler
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the server logger. It must not write to stdout.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.logger = logging.OrNop(l) }
}

// WithVersion sets the version reported by initialize.
func WithVersion(v string) ServerOption {
	return func(s *Server) { s.version = v }
}

// NewServer creates an MCP server over e.
func NewServer(e memoryEngine, opts ...ServerOption) *Server {
	s := &Server{engine: e, logger: logging.Nop(), version: "dev"}
	for _, opt := range opts {
		opt(s)
	}
	s.tools = map[string]toolHandler{
		"append_turn":          s.handleAppendTurn,
		"get_context":          s.handleGetContext,
		"summarize":            s.handleSummarize,
		"list_suggestions":     s.handleListSuggestions,
		"generate_suggestions": s.handleGenerateSuggestions,
		"mark_suggestion":      s.handleMarkSuggestion,
		"get_settings":         s.handleGetSettings,
		"update_settings":      s.handleUpdateSettings,
	}
	return s
}

// HandleRequest processes one JSON-RPC 2.0 request. A request without an id
// is a notification: it is still dispatched but produces a nil response.
func (s *Server) HandleRequest(ctx context.Context, requestJSON []byte) ([]byte, error) {
	var req JSONRPCRequest
	if err := json.Unmarshal(requestJSON, &req); err != nil {
		return s.errorResponse(nil, ErrCodeParseError, "Parse error", err.Error())
	}
	if req.JSONRPC != "2.0" {
		return s.errorResponse(req.ID, ErrCodeInvalidRequest, "Invalid JSON-RPC version", nil)
	}

	result, rpcErr := s.dispatch(ctx, &req)
	if req.IsNotification() {
		if rpcErr != nil && rpcErr.Code != ErrCodeMethodNotFound {
			s.logger.Debug("notification failed", "method", req.Method, "error", rpcErr.Message)
		}
		return nil, nil
	}
	if rpcErr != nil {
		return s.errorResponse(req.ID, rpcErr.Code, rpcErr.Message, rpcErr.Data)
	}
	return s.successResponse(req.ID, result)
}

func (s *Server) dispatch(ctx context.Context, req *JSONRPCRequest) (interface{}, *JSONRPCError) {
	var result interface{}
	var err error

	switch req.Method {
	case "initialize":
		result = MCPInitializeResult{
			ProtocolVersion: protocolVersion,
			Capabilities:    MCPServerCapabilities{Tools: &MCPToolsCapability{}},
			ServerInfo:      MCPServerInfo{Name: "ldc-memory", Version: s.version},
		}
	case "ping":
		result = map[string]interface{}{}
	case "tools/list":
		result = MCPToolsListResult{Tools: buildToolsList()}
	case "tools/call":
		result, err = s.handleToolsCall(ctx, req.Params)
	default:
		// Tools are also callable directly by name.
		handler, ok := s.tools[req.Method]
		if !ok {
			return nil, &JSONRPCError{Code: ErrCodeMethodNotFound, Message: fmt.Sprintf("Method not found: %s", req.Method)}
		}
		result, err = handler(ctx, req.Params)
	}

	if err != nil {
		return nil, &JSONRPCError{Code: ErrCodeServerError, Message: err.Error()}
	}
	return result, nil
}

// handleToolsCall dispatches a tools/call request and wraps the result in
// the MCP content envelope. Tool failures are reported in-band.
func (s *Server) handleToolsCall(ctx context.Context, params interface{}) (interface{}, error) {
	var p MCPToolCallParams
	if err := unmarshalParams(params, &p); err != nil {
		return nil, err
	}

	handler, ok := s.tools[p.Name]
	if !ok {
		return toolError(fmt.Sprintf("unknown tool: %s", p.Name)), nil
	}

	result, err := handler(ctx, p.Arguments)
	if err != nil {
		s.logger.Debug("tool call failed", "tool", p.Name, "error", err)
		return toolError(err.Error()), nil
	}

	text, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return &MCPToolCallResult{Content: []MCPToolCallContent{{Type: "text", Text: string(text)}}}, nil
}

func toolError(msg string) *MCPToolCallResult {
	return &MCPToolCallResult{
		Content: []MCPToolCallContent{{Type: "text", Text: msg}},
		IsError: true,
	}
}

func (s *Server) handleAppendTurn(ctx context.Context, params interface{}) (interface{}, error) {
	var args AppendTurnArgs
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	return s.engine.AppendTurn(ctx, &types.ConversationTurn{
		WorkspaceID: args.WorkspaceID,
		AgentType:   args.AgentType,
		SessionID:   args.SessionID,
		Role:        args.Role,
		Content:     args.Content,
	})
}

func (s *Server) handleGetContext(ctx context.Context, params interface{}) (interface{}, error) {
	var args GetContextArgs
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	return s.engine.AssembleContext(ctx, args.WorkspaceID, args.AgentType, args.AdditionalContext)
}

func (s *Server) handleSummarize(ctx context.Context, params interface{}) (interface{}, error) {
	var args SummarizeArgs
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	return s.engine.SummarizeIfDue(ctx, args.WorkspaceID, args.AgentType)
}

func (s *Server) handleListSuggestions(ctx context.Context, params interface{}) (interface{}, error) {
	var args ListSuggestionsArgs
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	list, err := s.engine.ListSuggestions(ctx, args.WorkspaceID, storage.SuggestionQuery{
		Status:    args.Status,
		AgentType: args.AgentType,
		Limit:     args.Limit,
	})
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*types.Suggestion{}
	}
	return ListSuggestionsResult{Suggestions: list, Count: len(list)}, nil
}

func (s *Server) handleGenerateSuggestions(ctx context.Context, params interface{}) (interface{}, error) {
	var args GenerateSuggestionsArgs
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	if args.AgentType == "" {
		args.AgentType = defaultGeneratorAgent
	}
	return s.engine.GenerateSuggestions(ctx, args.WorkspaceID, args.AgentType)
}

func (s *Server) handleMarkSuggestion(ctx context.Context, params interface{}) (interface{}, error) {
	var args MarkSuggestionArgs
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	return s.engine.MarkSuggestion(ctx, args.ID, args.Status)
}

func (s *Server) handleGetSettings(ctx context.Context, params interface{}) (interface{}, error) {
	var args SettingsArgs
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	return s.engine.GetSettings(ctx, args.WorkspaceID)
}

func (s *Server) handleUpdateSettings(ctx context.Context, params interface{}) (interface{}, error) {
	var args SettingsArgs
	if err := unmarshalParams(params, &args); err != nil {
		return nil, err
	}
	if args.Update.IsEmpty() {
		return nil, fmt.Errorf("%w: update changes no fields", storage.ErrInvalidInput)
	}
	return s.engine.UpdateSettings(ctx, args.WorkspaceID, args.Update)
}

// unmarshalParams unmarshals JSON-RPC parameters into a typed struct.
func unmarshalParams(params interface{}, dest interface{}) error {
	if params == nil {
		return nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: invalid params: %v", storage.ErrInvalidInput, err)
	}
	return nil
}

// successResponse creates a JSON-RPC success response.
func (s *Server) successResponse(id interface{}, result interface{}) ([]byte, error) {
	return json.Marshal(JSONRPCResponse{JSONRPC: "2.0", Result: result, ID: id})
}

// errorResponse creates a JSON-RPC error response.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) ([]byte, error) {
	return json.Marshal(JSONRPCResponse{
		JSONRPC: "2.0",
		Error:   &JSONRPCError{Code: code, Message: message, Data: data},
		ID:      id,
	})
}
