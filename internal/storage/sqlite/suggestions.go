package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

const suggestionColumns = `id, workspace_id, agent_type, suggestion_type, title, content, priority,
	trigger_reason, related_entity_type, related_entity_id, action_type, action_params,
	status, expires_at, dedupe_key, created_at, seen_at, acted_at, dismissed_at`

// priorityOrder ranks urgent first.
const priorityOrder = `CASE priority
	WHEN 'urgent' THEN 0
	WHEN 'high' THEN 1
	WHEN 'medium' THEN 2
	ELSE 3 END`

// CreateSuggestion inserts a suggestion row as given.
func (s *Store) CreateSuggestion(ctx context.Context, sg *types.Suggestion) error {
	if sg == nil || sg.ID == "" || sg.WorkspaceID == "" {
		return fmt.Errorf("%w: suggestion id and workspace are required", storage.ErrInvalidInput)
	}
	if sg.Title == "" {
		return fmt.Errorf("%w: suggestion title is required", storage.ErrInvalidInput)
	}

	var entityType, entityID, actionType, actionParams sql.NullString
	if sg.RelatedEntity != nil {
		entityType = nullableString(sg.RelatedEntity.Type)
		entityID = nullableString(sg.RelatedEntity.ID)
	}
	if sg.Action != nil {
		actionType = nullableString(sg.Action.Type)
		if len(sg.Action.Parameters) > 0 {
			data, err := json.Marshal(sg.Action.Parameters)
			if err != nil {
				return fmt.Errorf("failed to marshal action parameters: %w", err)
			}
			actionParams = sql.NullString{String: string(data), Valid: true}
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suggestions (`+suggestionColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sg.ID, sg.WorkspaceID, sg.AgentType, string(sg.Type), sg.Title, sg.Content,
		string(sg.Priority), nullableString(sg.TriggerReason), entityType, entityID,
		actionType, actionParams, string(sg.Status), nullableTime(sg.ExpiresAt),
		nullableString(sg.DedupeKey), formatTime(sg.CreatedAt),
		nullableTime(sg.SeenAt), nullableTime(sg.ActedAt), nullableTime(sg.DismissedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert suggestion: %w", err)
	}
	return nil
}

// GetSuggestion retrieves a suggestion by ID.
func (s *Store) GetSuggestion(ctx context.Context, id string) (*types.Suggestion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions WHERE id = ?`, id)

	sg, err := scanSuggestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return sg, err
}

// ListSuggestions returns active suggestions ordered by priority then recency.
func (s *Store) ListSuggestions(ctx context.Context, workspaceID string, q storage.SuggestionQuery) ([]*types.Suggestion, error) {
	q = q.Normalize()

	query := `SELECT ` + suggestionColumns + `
		FROM suggestions
		WHERE workspace_id = ? AND status = ?
			AND (expires_at IS NULL OR expires_at > ?)`
	args := []interface{}{workspaceID, string(q.Status), formatTime(q.Now)}

	if q.AgentType != "" {
		query += " AND agent_type = ?"
		args = append(args, q.AgentType)
	}
	query += " ORDER BY " + priorityOrder + ", created_at DESC, seq DESC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := []*types.Suggestion{}
	for rows.Next() {
		sg, err := scanSuggestion(rows)
		if err != nil {
			return nil, err
		}
		suggestions = append(suggestions, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate suggestions: %w", err)
	}
	return suggestions, nil
}

// SetSuggestionStatus moves a suggestion to status unless it is already terminal.
func (s *Store) SetSuggestionStatus(ctx context.Context, id string, status types.SuggestionStatus, at time.Time) error {
	column, err := storage.SuggestionStatusColumn(status)
	if err != nil {
		return err
	}

	placeholders, terminal := inClause(storage.TerminalStatusValues())
	args := append([]interface{}{string(status), formatTime(at), id}, terminal...)

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE suggestions
		SET status = ?, %s = ?
		WHERE id = ? AND status NOT IN (%s)`, column, placeholders),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to update suggestion status: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM suggestions WHERE id = ?)`, id,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check suggestion: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrTerminalStatus
}

// HasRecentSuggestion reports whether the dedupe key was used since the given time.
func (s *Store) HasRecentSuggestion(ctx context.Context, workspaceID, dedupeKey string, since time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM suggestions
			WHERE workspace_id = ? AND dedupe_key = ? AND created_at >= ?
		)`,
		workspaceID, dedupeKey, formatTime(since),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check dedupe key: %w", err)
	}
	return exists, nil
}

func scanSuggestion(row rowScanner) (*types.Suggestion, error) {
	var (
		sg                                  types.Suggestion
		sgType, priority, status, createdAt string
		trigger, dedupe                     sql.NullString
		entityType, entityID                sql.NullString
		actionType, actionParams            sql.NullString
		expiresAt, seenAt, actedAt, dismiss sql.NullString
	)
	err := row.Scan(&sg.ID, &sg.WorkspaceID, &sg.AgentType, &sgType, &sg.Title, &sg.Content,
		&priority, &trigger, &entityType, &entityID, &actionType, &actionParams,
		&status, &expiresAt, &dedupe, &createdAt, &seenAt, &actedAt, &dismiss)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan suggestion: %w", err)
	}

	sg.Type = types.SuggestionType(sgType)
	sg.Priority = types.Priority(priority)
	sg.Status = types.SuggestionStatus(status)
	sg.TriggerReason = trigger.String
	sg.DedupeKey = dedupe.String

	if entityType.Valid || entityID.Valid {
		sg.RelatedEntity = &types.RelatedEntity{Type: entityType.String, ID: entityID.String}
	}
	if actionType.Valid {
		sg.Action = &types.SuggestionAction{Type: actionType.String}
		if actionParams.Valid && actionParams.String != "" {
			if err := json.Unmarshal([]byte(actionParams.String), &sg.Action.Parameters); err != nil {
				return nil, fmt.Errorf("failed to unmarshal action parameters: %w", err)
			}
		}
	}

	if sg.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		src sql.NullString
		dst **time.Time
	}{
		{expiresAt, &sg.ExpiresAt},
		{seenAt, &sg.SeenAt},
		{actedAt, &sg.ActedAt},
		{dismiss, &sg.DismissedAt},
	} {
		if *f.dst, err = parseNullTime(f.src); err != nil {
			return nil, err
		}
	}
	return &sg, nil
}
