package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

const summaryColumns = `id, workspace_id, agent_type, summary, key_topics, key_decisions,
	action_items, period_start, period_end, source_message_count, model, created_at`

// CreateSummary inserts a new memory summary. Existing summaries are never touched.
func (s *Store) CreateSummary(ctx context.Context, summary *types.MemorySummary) error {
	if summary == nil || summary.WorkspaceID == "" || summary.AgentType == "" {
		return fmt.Errorf("%w: summary workspace and agent type are required", storage.ErrInvalidInput)
	}
	if summary.Summary == "" {
		return fmt.Errorf("%w: summary text is required", storage.ErrInvalidInput)
	}

	if summary.ID == "" {
		summary.ID = uuid.NewString()
	}
	if summary.CreatedAt.IsZero() {
		summary.CreatedAt = time.Now()
	}
	summary.CreatedAt = summary.CreatedAt.UTC()

	topics, err := types.MarshalStringList(summary.KeyTopics)
	if err != nil {
		return fmt.Errorf("failed to marshal key topics: %w", err)
	}
	decisions, err := types.MarshalStringList(summary.KeyDecisions)
	if err != nil {
		return fmt.Errorf("failed to marshal key decisions: %w", err)
	}
	actions, err := types.MarshalStringList(summary.ActionItems)
	if err != nil {
		return fmt.Errorf("failed to marshal action items: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO memory_summaries (`+summaryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.ID, summary.WorkspaceID, summary.AgentType, summary.Summary,
		topics, decisions, actions,
		formatTime(summary.PeriodStart), formatTime(summary.PeriodEnd),
		summary.SourceMessageCount, nullableString(summary.Model), formatTime(summary.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert summary: %w", err)
	}
	return nil
}

// LatestSummary returns the most recently created summary for the pair.
func (s *Store) LatestSummary(ctx context.Context, workspaceID, agentType string) (*types.MemorySummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+summaryColumns+`
		FROM memory_summaries
		WHERE workspace_id = ? AND agent_type = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`,
		workspaceID, agentType,
	)

	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ListSummaries returns up to limit summaries, newest first.
func (s *Store) ListSummaries(ctx context.Context, workspaceID, agentType string, limit int) ([]*types.MemorySummary, error) {
	if limit <= 0 || limit > storage.MaxQueryLimit {
		limit = storage.DefaultTurnLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+`
		FROM memory_summaries
		WHERE workspace_id = ? AND agent_type = ?
		ORDER BY created_at DESC, seq DESC
		LIMIT ?`,
		workspaceID, agentType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	var summaries []*types.MemorySummary
	for rows.Next() {
		summary, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanSummary(row rowScanner) (*types.MemorySummary, error) {
	var (
		m                                 types.MemorySummary
		topics, decisions, actions        string
		periodStart, periodEnd, createdAt string
		model                             sql.NullString
	)
	err := row.Scan(&m.ID, &m.WorkspaceID, &m.AgentType, &m.Summary,
		&topics, &decisions, &actions, &periodStart, &periodEnd,
		&m.SourceMessageCount, &model, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan summary: %w", err)
	}

	m.Model = model.String
	if m.KeyTopics, err = types.UnmarshalStringList(topics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key topics: %w", err)
	}
	if m.KeyDecisions, err = types.UnmarshalStringList(decisions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal key decisions: %w", err)
	}
	if m.ActionItems, err = types.UnmarshalStringList(actions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal action items: %w", err)
	}
	if m.PeriodStart, err = parseTime(periodStart); err != nil {
		return nil, err
	}
	if m.PeriodEnd, err = parseTime(periodEnd); err != nil {
		return nil, err
	}
	if m.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &m, nil
}
