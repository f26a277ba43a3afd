package types

// SuggestionStatus tracks where a suggestion is in its lifecycle.
type SuggestionStatus string

// Suggestion lifecycle status constants
const (
	StatusNew       SuggestionStatus = "new"       // Created by the generator, not yet shown
	StatusSeen      SuggestionStatus = "seen"      // Shown to a user
	StatusActed     SuggestionStatus = "acted"     // User acted on it (terminal)
	StatusDismissed SuggestionStatus = "dismissed" // User dismissed it (terminal)
)

// ValidSuggestionStatuses contains all valid suggestion status values
var ValidSuggestionStatuses = []SuggestionStatus{
	StatusNew,
	StatusSeen,
	StatusActed,
	StatusDismissed,
}

// TerminalSuggestionStatuses lists the statuses a suggestion never leaves.
var TerminalSuggestionStatuses = []SuggestionStatus{
	StatusActed,
	StatusDismissed,
}

// IsValidSuggestionStatus checks if the given status is a valid lifecycle status.
func IsValidSuggestionStatus(status SuggestionStatus) bool {
	for _, valid := range ValidSuggestionStatuses {
		if status == valid {
			return true
		}
	}
	return false
}

// IsTerminalStatus reports whether no further transitions are allowed out of status.
func IsTerminalStatus(status SuggestionStatus) bool {
	for _, terminal := range TerminalSuggestionStatuses {
		if status == terminal {
			return true
		}
	}
	return false
}

// IsMarkableStatus reports whether callers may request a transition to status.
// Only the generator creates suggestions in StatusNew.
func IsMarkableStatus(status SuggestionStatus) bool {
	return status == StatusSeen || status == StatusActed || status == StatusDismissed
}

// IsValidStatusTransition validates suggestion status transitions.
//
// Valid transitions:
//
//	new  -> seen | acted | dismissed
//	seen -> seen | acted | dismissed
//	acted, dismissed -> (terminal, no transitions out)
func IsValidStatusTransition(current, next SuggestionStatus) bool {
	if !IsMarkableStatus(next) {
		return false
	}

	return IsValidSuggestionStatus(current) && !IsTerminalStatus(current)
}
