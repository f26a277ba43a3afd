package handlers

import (
	"time"

	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// AppendTurnRequest is the body of POST .../turns.
type AppendTurnRequest struct {
	SessionID string                 `json:"session_id"`
	Role      types.Role             `json:"role"`
	Content   string                 `json:"content"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt *time.Time             `json:"created_at,omitempty"`
}

// TurnsResponse is the response format for GET .../turns.
type TurnsResponse struct {
	Turns []*types.ConversationTurn `json:"turns"`
	Count int                       `json:"count"`
}

// SummariesResponse is the response format for GET .../summaries.
type SummariesResponse struct {
	Summaries []*types.MemorySummary `json:"summaries"`
	Count     int                    `json:"count"`
}

// AssembleContextRequest is the optional body of POST .../context.
type AssembleContextRequest struct {
	AdditionalContext string `json:"additional_context"`
}

// GenerateSuggestionsRequest is the optional body of POST .../suggestions/generate.
type GenerateSuggestionsRequest struct {
	AgentType string `json:"agent_type"`
}

// CreateSuggestionRequest is the body of POST .../suggestions.
type CreateSuggestionRequest struct {
	AgentType     string                  `json:"agent_type"`
	Type          types.SuggestionType    `json:"suggestion_type"`
	Title         string                  `json:"title"`
	Content       string                  `json:"content"`
	Priority      types.Priority          `json:"priority"`
	TriggerReason string                  `json:"trigger_reason,omitempty"`
	RelatedEntity *types.RelatedEntity    `json:"related_entity,omitempty"`
	Action        *types.SuggestionAction `json:"action,omitempty"`
	ExpiresAt     *time.Time              `json:"expires_at,omitempty"`
}

// SuggestionsResponse is the response format for GET .../suggestions.
type SuggestionsResponse struct {
	Suggestions []*types.Suggestion `json:"suggestions"`
	Count       int                 `json:"count"`
}

// MarkSuggestionRequest is the body of POST /api/suggestions/{id}/status.
type MarkSuggestionRequest struct {
	Status types.SuggestionStatus `json:"status"`
}
