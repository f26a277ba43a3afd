// Package storage provides composable storage interfaces for the agent
// memory and suggestion engine.
//
// The storage layer is designed with small, focused interfaces that can be
// implemented independently:
//   - HistoryStore: append-only conversation turns
//   - SummaryStore: durable memory summaries
//   - SettingsStore: one context-settings record per workspace
//   - SuggestionStore: suggestions and their status lifecycle
//   - SignalSource: read-only operational signals owned by other subsystems
//
// SQL implementations live in the sqlite and postgres subpackages.
package storage

import (
	"context"
	"time"

	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// HistoryStore is the append-only log of conversation turns.
type HistoryStore interface {
	// AppendTurn inserts one immutable turn. ID and CreatedAt are assigned
	// when empty. Returns ErrInvalidInput when a required field is missing.
	AppendTurn(ctx context.Context, turn *types.ConversationTurn) error

	// RecentTurns returns turns within the lookback window, ascending by
	// creation time. When more than Limit turns match, the most recent Limit
	// are returned. An empty window yields an empty slice.
	RecentTurns(ctx context.Context, workspaceID, agentType string, q TurnQuery) ([]*types.ConversationTurn, error)

	// ActivePartitions lists the (workspace, agent type) pairs that have
	// turns created at or after since.
	ActivePartitions(ctx context.Context, since time.Time) ([]Partition, error)
}

// SummaryStore persists memory summaries. Summaries are never updated.
type SummaryStore interface {
	// CreateSummary inserts a new summary. ID and CreatedAt are assigned when empty.
	CreateSummary(ctx context.Context, summary *types.MemorySummary) error

	// LatestSummary returns the most recently created summary for the pair.
	// Returns ErrNotFound when none exists.
	LatestSummary(ctx context.Context, workspaceID, agentType string) (*types.MemorySummary, error)

	// ListSummaries returns up to limit summaries, newest first.
	ListSummaries(ctx context.Context, workspaceID, agentType string, limit int) ([]*types.MemorySummary, error)
}

// SettingsStore holds exactly one ContextSettings record per workspace.
type SettingsStore interface {
	// GetSettings returns the stored settings. Returns ErrNotFound when the
	// workspace has no record.
	GetSettings(ctx context.Context, workspaceID string) (*types.ContextSettings, error)

	// UpsertSettings writes the whole record, inserting or replacing it.
	UpsertSettings(ctx context.Context, settings *types.ContextSettings) error
}

// SuggestionStore persists suggestions and tracks their status lifecycle.
type SuggestionStore interface {
	// CreateSuggestion inserts a suggestion as given. Callers are expected
	// to have normalized status and timestamps.
	CreateSuggestion(ctx context.Context, s *types.Suggestion) error

	// GetSuggestion retrieves a suggestion by ID. Returns ErrNotFound if absent.
	GetSuggestion(ctx context.Context, id string) (*types.Suggestion, error)

	// ListSuggestions returns suggestions matching the query, excluding those
	// expired at q.Now, ordered by priority (urgent first) then newest first.
	ListSuggestions(ctx context.Context, workspaceID string, q SuggestionQuery) ([]*types.Suggestion, error)

	// SetSuggestionStatus moves a suggestion to status and stamps the matching
	// transition timestamp with at. The update is refused atomically when the
	// current status is terminal (ErrTerminalStatus). Unknown IDs return ErrNotFound.
	SetSuggestionStatus(ctx context.Context, id string, status types.SuggestionStatus, at time.Time) error

	// HasRecentSuggestion reports whether a suggestion with the dedupe key was
	// created in the workspace at or after since.
	HasRecentSuggestion(ctx context.Context, workspaceID, dedupeKey string, since time.Time) (bool, error)
}

// WorkspaceDirectory resolves workspace display names.
type WorkspaceDirectory interface {
	// WorkspaceName returns the display name. Returns ErrNotFound when the
	// workspace is unknown.
	WorkspaceName(ctx context.Context, workspaceID string) (string, error)
}

// SignalSource exposes read-only operational data owned by other
// subsystems. A source with no backing collection returns empty results.
type SignalSource interface {
	// OverdueTasks returns open tasks (todo, in_progress) due before asOf's date.
	OverdueTasks(ctx context.Context, workspaceID string, asOf time.Time) ([]types.TaskSignal, error)

	// UpcomingTasks returns open tasks due between asOf's date and asOf+days.
	UpcomingTasks(ctx context.Context, workspaceID string, asOf time.Time, days int) ([]types.TaskSignal, error)

	// UpcomingOpportunities returns tracked opportunities with deadlines
	// between asOf's date and asOf+days.
	UpcomingOpportunities(ctx context.Context, workspaceID string, asOf time.Time, days int) ([]types.OpportunitySignal, error)

	// OpenProposals returns proposals in a non-terminal status ordered by deadline.
	OpenProposals(ctx context.Context, workspaceID string) ([]types.ProposalSignal, error)

	// AtRiskContacts returns contacts flagged cold or at_risk.
	AtRiskContacts(ctx context.Context, workspaceID string) ([]types.ContactSignal, error)

	// ActivityRollup counts activity-log entries created since, grouped by
	// (activity type, entity type).
	ActivityRollup(ctx context.Context, workspaceID string, since time.Time) ([]types.ActivityCount, error)
}

// Store is the full persistence contract used by the engine.
type Store interface {
	HistoryStore
	SummaryStore
	SettingsStore
	SuggestionStore
	WorkspaceDirectory
	SignalSource

	// Close releases the underlying connection pool.
	Close() error
}
