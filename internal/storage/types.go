package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/tpcministries/ldc-command-center/pkg/types"
)

var (
	// ErrNotFound indicates that the requested resource was not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidStatus indicates a status that callers may not request.
	ErrInvalidStatus = errors.New("invalid suggestion status")

	// ErrTerminalStatus indicates an attempt to move a suggestion out of
	// acted or dismissed.
	ErrTerminalStatus = errors.New("suggestion status is terminal")
)

// Default query bounds.
const (
	DefaultTurnLimit       = 50
	DefaultSuggestionLimit = 10
	MaxQueryLimit          = 500
)

// TurnQuery bounds a RecentTurns lookup.
type TurnQuery struct {
	// Limit caps the number of turns returned (default: 50).
	Limit int

	// DaysBack is the lookback window in days. Zero or negative means no bound.
	DaysBack int

	// SessionID restricts results to one session. Empty means all sessions.
	SessionID string

	// Now anchors the lookback window. Zero value means time.Now().
	Now time.Time
}

// Normalize fills defaults and clamps Limit.
func (q TurnQuery) Normalize() TurnQuery {
	if q.Limit <= 0 {
		q.Limit = DefaultTurnLimit
	}
	if q.Limit > MaxQueryLimit {
		q.Limit = MaxQueryLimit
	}
	if q.Now.IsZero() {
		q.Now = time.Now()
	}
	return q
}

// Since returns the lower bound of the lookback window, or the zero time
// when the window is unbounded.
func (q TurnQuery) Since() time.Time {
	if q.DaysBack <= 0 {
		return time.Time{}
	}
	return q.Now.AddDate(0, 0, -q.DaysBack)
}

// SuggestionQuery filters a ListSuggestions lookup.
type SuggestionQuery struct {
	// Status to match (default: new).
	Status types.SuggestionStatus

	// Limit caps the number of results (default: 10).
	Limit int

	// AgentType restricts results to one producer. Empty means any.
	AgentType string

	// Now is the reference time for expiry filtering. Zero means time.Now().
	Now time.Time
}

// Normalize fills defaults and clamps Limit.
func (q SuggestionQuery) Normalize() SuggestionQuery {
	if q.Status == "" {
		q.Status = types.StatusNew
	}
	if q.Limit <= 0 {
		q.Limit = DefaultSuggestionLimit
	}
	if q.Limit > MaxQueryLimit {
		q.Limit = MaxQueryLimit
	}
	if q.Now.IsZero() {
		q.Now = time.Now()
	}
	return q
}

// Partition identifies one (workspace, agent type) conversation stream.
type Partition struct {
	WorkspaceID string
	AgentType   string
}

// ValidateTurn checks the required fields of a turn.
func ValidateTurn(turn *types.ConversationTurn) error {
	switch {
	case turn == nil:
		return ErrInvalidInput
	case turn.WorkspaceID == "":
		return fmt.Errorf("%w: workspace id is required", ErrInvalidInput)
	case turn.AgentType == "":
		return fmt.Errorf("%w: agent type is required", ErrInvalidInput)
	case turn.SessionID == "":
		return fmt.Errorf("%w: session id is required", ErrInvalidInput)
	case !types.IsValidRole(turn.Role):
		return fmt.Errorf("%w: role must be user or assistant", ErrInvalidInput)
	case turn.Content == "":
		return fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return nil
}

// TerminalStatusValues returns the terminal statuses as strings for use in
// SQL NOT IN guards.
func TerminalStatusValues() []string {
	values := make([]string, len(types.TerminalSuggestionStatuses))
	for i, status := range types.TerminalSuggestionStatuses {
		values[i] = string(status)
	}
	return values
}

// SuggestionStatusColumn returns the transition timestamp column stamped
// when a suggestion moves to status.
func SuggestionStatusColumn(status types.SuggestionStatus) (string, error) {
	switch status {
	case types.StatusSeen:
		return "seen_at", nil
	case types.StatusActed:
		return "acted_at", nil
	case types.StatusDismissed:
		return "dismissed_at", nil
	default:
		return "", ErrInvalidStatus
	}
}

// Status filters applied by SignalSource implementations.
var (
	// OpenTaskStatuses are task statuses that still need work.
	OpenTaskStatuses = []string{"todo", "in_progress"}

	// ClosedOpportunityStatuses are opportunity statuses no longer tracked.
	ClosedOpportunityStatuses = []string{"awarded", "declined", "archived", "closed"}

	// TerminalProposalStatuses are proposal statuses that need no follow-up.
	TerminalProposalStatuses = []string{"submitted", "awarded", "declined", "archived"}

	// AtRiskRelationshipStatuses are contact relationship flags worth surfacing.
	AtRiskRelationshipStatuses = []string{"cold", "at_risk"}
)

// DateLayout is the calendar-date format used for task and deadline columns.
const DateLayout = "2006-01-02"
