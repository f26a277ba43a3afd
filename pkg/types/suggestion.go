package types

import "time"

// Suggestion is a proactive observation synthesized from workspace signals.
// Status only moves forward; acted and dismissed are terminal.
type Suggestion struct {
	ID          string         `json:"id"`
	WorkspaceID string         `json:"workspace_id"`
	AgentType   string         `json:"agent_type"` // Producer of the suggestion
	Type        SuggestionType `json:"suggestion_type"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	Priority    Priority       `json:"priority"`

	TriggerReason string            `json:"trigger_reason,omitempty"`
	RelatedEntity *RelatedEntity    `json:"related_entity,omitempty"`
	Action        *SuggestionAction `json:"action,omitempty"`

	Status    SuggestionStatus `json:"status"`
	ExpiresAt *time.Time       `json:"expires_at,omitempty"`

	// DedupeKey identifies semantically identical suggestions within a workspace.
	DedupeKey string `json:"dedupe_key,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	SeenAt      *time.Time `json:"seen_at,omitempty"`
	ActedAt     *time.Time `json:"acted_at,omitempty"`
	DismissedAt *time.Time `json:"dismissed_at,omitempty"`
}

// RelatedEntity is a weak reference to a record owned by another subsystem.
type RelatedEntity struct {
	Type string `json:"type"` // task, opportunity, proposal, contact
	ID   string `json:"id"`
}

// SuggestionAction describes what the user could do about a suggestion.
type SuggestionAction struct {
	Type       string                 `json:"type"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}
