package types

import "time"

// ConversationTurn is one immutable message in an agent conversation.
// Turns are partitioned by (workspace, agent type, session) and ordered by
// creation time within a partition.
type ConversationTurn struct {
	ID          string                 `json:"id"`
	WorkspaceID string                 `json:"workspace_id"`
	AgentType   string                 `json:"agent_type"` // Logical assistant persona (e.g. "grants", "crm")
	SessionID   string                 `json:"session_id"`
	Role        Role                   `json:"role"`
	Content     string                 `json:"content"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
}

// MemorySummary is a durable compression of a window of conversation turns.
// Several summaries may exist for one (workspace, agent type); the most
// recently created one is current. Summaries are never mutated.
type MemorySummary struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspace_id"`
	AgentType   string `json:"agent_type"`

	// LLM-produced content
	Summary      string   `json:"summary"`
	KeyTopics    []string `json:"key_topics"`    // De-duplicated, first occurrence wins
	KeyDecisions []string `json:"key_decisions"` // Ordered as returned
	ActionItems  []string `json:"action_items"`  // Ordered as returned

	// Source window
	PeriodStart        time.Time `json:"period_start"`
	PeriodEnd          time.Time `json:"period_end"`
	SourceMessageCount int       `json:"source_message_count"`

	Model     string    `json:"model,omitempty"` // Oracle model that produced the summary
	CreatedAt time.Time `json:"created_at"`
}

// DedupeStrings returns the input with duplicates removed, preserving the
// first occurrence. Blank entries are dropped.
func DedupeStrings(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		key := lower(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}
