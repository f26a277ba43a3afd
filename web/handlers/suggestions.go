package handlers

import (
	"net/http"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// defaultGeneratorAgent names the producer of on-demand suggestion runs.
const defaultGeneratorAgent = "proactive"

// ListSuggestions handles GET /api/workspaces/{workspace}/suggestions.
// Query parameters: status (default new), limit, agent_type.
func (h *APIHandlers) ListSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	list, err := h.engine.ListSuggestions(r.Context(), extractID(r, "workspace"), storage.SuggestionQuery{
		Status:    types.SuggestionStatus(q.Get("status")),
		Limit:     parseInt(q.Get("limit"), 0),
		AgentType: q.Get("agent_type"),
	})
	if err != nil {
		h.respondEngineError(w, "failed to list suggestions", err)
		return
	}
	if list == nil {
		list = []*types.Suggestion{}
	}
	h.respondJSON(w, http.StatusOK, SuggestionsResponse{Suggestions: list, Count: len(list)})
}

// CreateSuggestion handles POST /api/workspaces/{workspace}/suggestions.
// The stored suggestion always starts as new.
func (h *APIHandlers) CreateSuggestion(w http.ResponseWriter, r *http.Request) {
	var req CreateSuggestionRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	created, err := h.engine.CreateSuggestion(r.Context(), extractID(r, "workspace"), &types.Suggestion{
		AgentType:     req.AgentType,
		Type:          req.Type,
		Title:         req.Title,
		Content:       req.Content,
		Priority:      req.Priority,
		TriggerReason: req.TriggerReason,
		RelatedEntity: req.RelatedEntity,
		Action:        req.Action,
		ExpiresAt:     req.ExpiresAt,
	})
	if err != nil {
		h.respondEngineError(w, "failed to create suggestion", err)
		return
	}
	h.respondJSON(w, http.StatusCreated, created)
}

// GenerateSuggestions handles POST /api/workspaces/{workspace}/suggestions/generate.
// Runs that produce nothing answer 200 with an explanatory message.
func (h *APIHandlers) GenerateSuggestions(w http.ResponseWriter, r *http.Request) {
	var req GenerateSuggestionsRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}
	if req.AgentType == "" {
		req.AgentType = r.URL.Query().Get("agent_type")
	}
	if req.AgentType == "" {
		req.AgentType = defaultGeneratorAgent
	}

	result, err := h.engine.GenerateSuggestions(r.Context(), extractID(r, "workspace"), req.AgentType)
	if err != nil {
		h.respondEngineError(w, "failed to generate suggestions", err)
		return
	}
	if result.Suggestions == nil {
		result.Suggestions = []*types.Suggestion{}
	}
	h.respondJSON(w, http.StatusOK, result)
}

// GetSuggestion handles GET /api/suggestions/{id}.
func (h *APIHandlers) GetSuggestion(w http.ResponseWriter, r *http.Request) {
	s, err := h.engine.GetSuggestion(r.Context(), extractID(r, "id"))
	if err != nil {
		h.respondEngineError(w, "suggestion not found", err)
		return
	}
	h.respondJSON(w, http.StatusOK, s)
}

// MarkSuggestion handles POST /api/suggestions/{id}/status. Acted and
// dismissed suggestions answer 409.
func (h *APIHandlers) MarkSuggestion(w http.ResponseWriter, r *http.Request) {
	var req MarkSuggestionRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	s, err := h.engine.MarkSuggestion(r.Context(), extractID(r, "id"), req.Status)
	if err != nil {
		h.respondEngineError(w, "failed to update suggestion status", err)
		return
	}
	h.respondJSON(w, http.StatusOK, s)
}
