package handlers

import (
	"net/http"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// AppendTurn handles POST /api/workspaces/{workspace}/agents/{agent}/turns.
func (h *APIHandlers) AppendTurn(w http.ResponseWriter, r *http.Request) {
	var req AppendTurnRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	turn := &types.ConversationTurn{
		WorkspaceID: extractID(r, "workspace"),
		AgentType:   extractID(r, "agent"),
		SessionID:   req.SessionID,
		Role:        req.Role,
		Content:     req.Content,
		Metadata:    req.Metadata,
	}
	if req.CreatedAt != nil {
		turn.CreatedAt = req.CreatedAt.UTC()
	}

	stored, err := h.engine.AppendTurn(r.Context(), turn)
	if err != nil {
		h.respondEngineError(w, "failed to append turn", err)
		return
	}
	h.respondJSON(w, http.StatusCreated, stored)
}

// ListTurns handles GET /api/workspaces/{workspace}/agents/{agent}/turns.
// Query parameters: limit, days, session.
func (h *APIHandlers) ListTurns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	turns, err := h.engine.RecentTurns(r.Context(), extractID(r, "workspace"), extractID(r, "agent"), storage.TurnQuery{
		Limit:     parseInt(q.Get("limit"), 0),
		DaysBack:  parseInt(q.Get("days"), 0),
		SessionID: q.Get("session"),
	})
	if err != nil {
		h.respondEngineError(w, "failed to list turns", err)
		return
	}
	if turns == nil {
		turns = []*types.ConversationTurn{}
	}
	h.respondJSON(w, http.StatusOK, TurnsResponse{Turns: turns, Count: len(turns)})
}

// Summarize handles POST /api/workspaces/{workspace}/agents/{agent}/summarize.
// A run that produces nothing still answers 200 with the reason.
func (h *APIHandlers) Summarize(w http.ResponseWriter, r *http.Request) {
	result, err := h.engine.SummarizeIfDue(r.Context(), extractID(r, "workspace"), extractID(r, "agent"))
	if err != nil {
		h.respondEngineError(w, "failed to summarize", err)
		return
	}
	status := http.StatusOK
	if result.Produced {
		status = http.StatusCreated
	}
	h.respondJSON(w, status, result)
}

// LatestSummary handles GET /api/workspaces/{workspace}/agents/{agent}/summary.
func (h *APIHandlers) LatestSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.engine.LatestSummary(r.Context(), extractID(r, "workspace"), extractID(r, "agent"))
	if err != nil {
		h.respondEngineError(w, "summary not available", err)
		return
	}
	h.respondJSON(w, http.StatusOK, summary)
}

// ListSummaries handles GET /api/workspaces/{workspace}/agents/{agent}/summaries.
func (h *APIHandlers) ListSummaries(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.engine.ListSummaries(r.Context(), extractID(r, "workspace"), extractID(r, "agent"),
		parseInt(r.URL.Query().Get("limit"), 10))
	if err != nil {
		h.respondEngineError(w, "failed to list summaries", err)
		return
	}
	if summaries == nil {
		summaries = []*types.MemorySummary{}
	}
	h.respondJSON(w, http.StatusOK, SummariesResponse{Summaries: summaries, Count: len(summaries)})
}

// AssembleContext handles POST /api/workspaces/{workspace}/agents/{agent}/context.
func (h *APIHandlers) AssembleContext(w http.ResponseWriter, r *http.Request) {
	var req AssembleContextRequest
	if err := decodeBody(w, r, &req, true); err != nil {
		h.respondError(w, http.StatusBadRequest, "failed to parse request body", err)
		return
	}

	assembled, err := h.engine.AssembleContext(r.Context(), extractID(r, "workspace"), extractID(r, "agent"), req.AdditionalContext)
	if err != nil {
		h.respondEngineError(w, "failed to assemble context", err)
		return
	}
	h.respondJSON(w, http.StatusOK, assembled)
}
