package types

import (
	"encoding/json"
	"time"
)

// Default context settings applied when a workspace has no stored record.
const (
	DefaultMaxHistoryMessages = 50
	DefaultMaxHistoryDays     = 30
)

// ContextSettings is the per-workspace configuration controlling context
// assembly. There is exactly one record per workspace.
type ContextSettings struct {
	WorkspaceID                string      `json:"workspace_id"`
	ContextMode                ContextMode `json:"context_mode"`
	IncludeCrossWorkspace      bool        `json:"include_cross_workspace"`
	IncludeConversationHistory bool        `json:"include_conversation_history"`
	IncludeSuggestions         bool        `json:"include_suggestions"`
	MaxHistoryMessages         int         `json:"max_history_messages"`
	MaxHistoryDays             int         `json:"max_history_days"`
	ExcludedWorkspaceIDs       []string    `json:"excluded_workspace_ids"`
	CustomInstructions         string      `json:"custom_instructions,omitempty"`

	// Persisted reports whether this record came from the store (false for defaults).
	Persisted bool      `json:"persisted"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// DefaultContextSettings returns the documented defaults for a workspace
// without a stored settings record.
func DefaultContextSettings(workspaceID string) *ContextSettings {
	return &ContextSettings{
		WorkspaceID:                workspaceID,
		ContextMode:                ContextModeFull,
		IncludeCrossWorkspace:      true,
		IncludeConversationHistory: true,
		IncludeSuggestions:         true,
		MaxHistoryMessages:         DefaultMaxHistoryMessages,
		MaxHistoryDays:             DefaultMaxHistoryDays,
		ExcludedWorkspaceIDs:       []string{},
	}
}

// ContextSettingsUpdate carries a partial settings change. Nil fields are
// left untouched.
type ContextSettingsUpdate struct {
	ContextMode                *ContextMode `json:"context_mode,omitempty"`
	IncludeCrossWorkspace      *bool        `json:"include_cross_workspace,omitempty"`
	IncludeConversationHistory *bool        `json:"include_conversation_history,omitempty"`
	IncludeSuggestions         *bool        `json:"include_suggestions,omitempty"`
	MaxHistoryMessages         *int         `json:"max_history_messages,omitempty"`
	MaxHistoryDays             *int         `json:"max_history_days,omitempty"`
	ExcludedWorkspaceIDs       *[]string    `json:"excluded_workspace_ids,omitempty"`
	CustomInstructions         *string      `json:"custom_instructions,omitempty"`
}

// IsEmpty reports whether the update changes nothing.
func (u ContextSettingsUpdate) IsEmpty() bool {
	return u.ContextMode == nil && u.IncludeCrossWorkspace == nil &&
		u.IncludeConversationHistory == nil && u.IncludeSuggestions == nil &&
		u.MaxHistoryMessages == nil && u.MaxHistoryDays == nil &&
		u.ExcludedWorkspaceIDs == nil && u.CustomInstructions == nil
}

// Apply copies every non-nil field of the update onto s.
func (u ContextSettingsUpdate) Apply(s *ContextSettings) {
	if u.ContextMode != nil {
		s.ContextMode = *u.ContextMode
	}
	if u.IncludeCrossWorkspace != nil {
		s.IncludeCrossWorkspace = *u.IncludeCrossWorkspace
	}
	if u.IncludeConversationHistory != nil {
		s.IncludeConversationHistory = *u.IncludeConversationHistory
	}
	if u.IncludeSuggestions != nil {
		s.IncludeSuggestions = *u.IncludeSuggestions
	}
	if u.MaxHistoryMessages != nil {
		s.MaxHistoryMessages = *u.MaxHistoryMessages
	}
	if u.MaxHistoryDays != nil {
		s.MaxHistoryDays = *u.MaxHistoryDays
	}
	if u.ExcludedWorkspaceIDs != nil {
		s.ExcludedWorkspaceIDs = append([]string{}, (*u.ExcludedWorkspaceIDs)...)
	}
	if u.CustomInstructions != nil {
		s.CustomInstructions = *u.CustomInstructions
	}
}

// MarshalStringList encodes a string list for a TEXT/JSONB column.
// A nil or empty list is stored as "[]".
func MarshalStringList(list []string) (string, error) {
	if len(list) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// UnmarshalStringList decodes a list stored by MarshalStringList.
// Empty input yields an empty, non-nil slice.
func UnmarshalStringList(data string) ([]string, error) {
	if data == "" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(data), &list); err != nil {
		return nil, err
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}
