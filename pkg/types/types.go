// Package types defines the core data structures for the agent memory and
// proactive suggestion engine. These types represent conversation turns,
// memory summaries, per-workspace context settings and suggestions, along
// with the enumerations that constrain them.
package types

import "strings"

// Role identifies the speaker of a conversation turn.
type Role string

// Conversation role constants
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValidRole checks if the given role is a valid conversation role.
func IsValidRole(role Role) bool {
	return role == RoleUser || role == RoleAssistant
}

// ContextMode controls how much history and cross-workspace data is
// assembled for an agent invocation.
type ContextMode string

// Context mode constants
const (
	// ContextModeFull includes everything the settings flags allow.
	ContextModeFull ContextMode = "full"

	// ContextModeFocused restricts context to the current workspace.
	ContextModeFocused ContextMode = "focused"

	// ContextModeMinimal carries only the workspace identity.
	ContextModeMinimal ContextMode = "minimal"
)

// ValidContextModes contains all valid context mode values
var ValidContextModes = []ContextMode{
	ContextModeFull,
	ContextModeFocused,
	ContextModeMinimal,
}

// IsValidContextMode checks if the given mode is a valid context mode.
func IsValidContextMode(mode ContextMode) bool {
	for _, m := range ValidContextModes {
		if m == mode {
			return true
		}
	}
	return false
}

// SuggestionType classifies what kind of observation a suggestion carries.
type SuggestionType string

// Suggestion type constants
const (
	SuggestionOpportunity    SuggestionType = "opportunity"
	SuggestionReminder       SuggestionType = "reminder"
	SuggestionInsight        SuggestionType = "insight"
	SuggestionWarning        SuggestionType = "warning"
	SuggestionRecommendation SuggestionType = "recommendation"
)

// ValidSuggestionTypes contains all valid suggestion type values
var ValidSuggestionTypes = []SuggestionType{
	SuggestionOpportunity,
	SuggestionReminder,
	SuggestionInsight,
	SuggestionWarning,
	SuggestionRecommendation,
}

// IsValidSuggestionType checks if the given type is a valid suggestion type.
func IsValidSuggestionType(t SuggestionType) bool {
	for _, valid := range ValidSuggestionTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// NormalizeSuggestionType maps free-form type labels produced by the
// completion oracle onto a valid SuggestionType. Unknown labels (including
// "general") become SuggestionInsight.
func NormalizeSuggestionType(raw string) SuggestionType {
	t := SuggestionType(lower(raw))
	if IsValidSuggestionType(t) {
		return t
	}
	return SuggestionInsight
}

// Priority ranks how urgently a suggestion should be surfaced.
type Priority string

// Priority constants, lowest to highest
const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// ValidPriorities contains all valid priority values, highest first
var ValidPriorities = []Priority{
	PriorityUrgent,
	PriorityHigh,
	PriorityMedium,
	PriorityLow,
}

// IsValidPriority checks if the given priority is valid.
func IsValidPriority(p Priority) bool {
	return PriorityRank(p) >= 0
}

// PriorityRank returns the sort position of a priority (0 = most urgent).
// It returns -1 for unknown priorities.
func PriorityRank(p Priority) int {
	for i, valid := range ValidPriorities {
		if p == valid {
			return i
		}
	}
	return -1
}

// NormalizePriority maps a free-form priority label onto a valid Priority,
// defaulting to PriorityMedium. "critical" is treated as urgent.
func NormalizePriority(raw string) Priority {
	p := Priority(lower(raw))
	if p == "critical" {
		return PriorityUrgent
	}
	if IsValidPriority(p) {
		return p
	}
	return PriorityMedium
}

func lower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Workspace is the tenant-scoping unit. Only its display name is read by
// this system; workspaces are owned by another subsystem.
type Workspace struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
