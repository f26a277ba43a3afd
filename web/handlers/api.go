package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tpcministries/ldc-command-center/internal/engine"
	"github.com/tpcministries/ldc-command-center/internal/logging"
	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// MemoryEngine is the part of engine.Engine the HTTP API serves.
type MemoryEngine interface {
	AppendTurn(ctx context.Context, turn *types.ConversationTurn) (*types.ConversationTurn, error)
	RecentTurns(ctx context.Context, workspaceID, agentType string, q storage.TurnQuery) ([]*types.ConversationTurn, error)
	SummarizeIfDue(ctx context.Context, workspaceID, agentType string) (*engine.SummaryResult, error)
	LatestSummary(ctx context.Context, workspaceID, agentType string) (*types.MemorySummary, error)
	ListSummaries(ctx context.Context, workspaceID, agentType string, limit int) ([]*types.MemorySummary, error)
	GetSettings(ctx context.Context, workspaceID string) (*types.ContextSettings, error)
	UpdateSettings(ctx context.Context, workspaceID string, update types.ContextSettingsUpdate) (*types.ContextSettings, error)
	GenerateSuggestions(ctx context.Context, workspaceID, agentType string) (*engine.GenerationResult, error)
	CreateSuggestion(ctx context.Context, workspaceID string, s *types.Suggestion) (*types.Suggestion, error)
	GetSuggestion(ctx context.Context, id string) (*types.Suggestion, error)
	ListSuggestions(ctx context.Context, workspaceID string, q storage.SuggestionQuery) ([]*types.Suggestion, error)
	MarkSuggestion(ctx context.Context, id string, status types.SuggestionStatus) (*types.Suggestion, error)
	AssembleContext(ctx context.Context, workspaceID, agentType, additionalContext string) (*engine.AssembledContext, error)
}

var _ MemoryEngine = (*engine.Engine)(nil)

// APIHandlers contains HTTP handlers for the REST API.
type APIHandlers struct {
	engine MemoryEngine
	logger *slog.Logger
}

// NewAPIHandlers creates a new APIHandlers instance.
func NewAPIHandlers(e MemoryEngine, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{engine: e, logger: logging.OrNop(logger)}
}

// Register mounts every API route on mux.
func (h *APIHandlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/workspaces/{workspace}/agents/{agent}/turns", h.AppendTurn)
	mux.HandleFunc("GET /api/workspaces/{workspace}/agents/{agent}/turns", h.ListTurns)
	mux.HandleFunc("POST /api/workspaces/{workspace}/agents/{agent}/summarize", h.Summarize)
	mux.HandleFunc("GET /api/workspaces/{workspace}/agents/{agent}/summary", h.LatestSummary)
	mux.HandleFunc("GET /api/workspaces/{workspace}/agents/{agent}/summaries", h.ListSummaries)
	mux.HandleFunc("POST /api/workspaces/{workspace}/agents/{agent}/context", h.AssembleContext)

	mux.HandleFunc("GET /api/workspaces/{workspace}/settings", h.GetSettings)
	mux.HandleFunc("PATCH /api/workspaces/{workspace}/settings", h.UpdateSettings)

	mux.HandleFunc("GET /api/workspaces/{workspace}/suggestions", h.ListSuggestions)
	mux.HandleFunc("POST /api/workspaces/{workspace}/suggestions", h.CreateSuggestion)
	mux.HandleFunc("POST /api/workspaces/{workspace}/suggestions/generate", h.GenerateSuggestions)
	mux.HandleFunc("GET /api/suggestions/{id}", h.GetSuggestion)
	mux.HandleFunc("POST /api/suggestions/{id}/status", h.MarkSuggestion)
}

// extractID extracts a path parameter from the request.
func extractID(r *http.Request, key string) string {
	return r.PathValue(key)
}

// parseInt parses an integer from a string, returning defaultValue if parsing fails.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// decodeBody decodes a JSON request body into v. An empty body leaves v
// untouched when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// respondJSON writes a JSON response with the given status code.
func (h *APIHandlers) respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	respondJSON(w, statusCode, data, h.logger)
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent.
		logging.OrNop(logger).Error("failed to encode JSON response", "error", err)
	}
}

// respondError writes an error response with the given status code.
func (h *APIHandlers) respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errResp := ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	}
	if err != nil {
		errResp.Details = map[string]interface{}{
			"error": err.Error(),
		}
	}
	if statusCode >= http.StatusInternalServerError {
		h.logger.Error(message, "error", err, "status", statusCode)
	}
	h.respondJSON(w, statusCode, errResp)
}

// respondEngineError maps storage sentinel errors to status codes.
func (h *APIHandlers) respondEngineError(w http.ResponseWriter, message string, err error) {
	h.respondError(w, statusForError(err), message, err)
}

func statusForError(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrInvalidInput), errors.Is(err, storage.ErrInvalidStatus):
		return http.StatusBadRequest
	case errors.Is(err, storage.ErrTerminalStatus):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
