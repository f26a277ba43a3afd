package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

const suggestionColumns = `id, workspace_id, agent_type, suggestion_type, title, content, priority,
	trigger_reason, related_entity_type, related_entity_id, action_type, action_params,
	status, expires_at, dedupe_key, created_at, seen_at, acted_at, dismissed_at`

// CreateSuggestion inserts a suggestion row as given.
func (s *Store) CreateSuggestion(ctx context.Context, sg *types.Suggestion) error {
	if sg == nil || sg.ID == "" || sg.WorkspaceID == "" {
		return fmt.Errorf("%w: suggestion id and workspace are required", storage.ErrInvalidInput)
	}
	if sg.Title == "" {
		return fmt.Errorf("%w: suggestion title is required", storage.ErrInvalidInput)
	}

	var (
		entityType, entityID, actionType sql.NullString
		actionParams                     []byte
	)
	if sg.RelatedEntity != nil {
		entityType = nullableString(sg.RelatedEntity.Type)
		entityID = nullableString(sg.RelatedEntity.ID)
	}
	if sg.Action != nil {
		actionType = nullableString(sg.Action.Type)
		if len(sg.Action.Parameters) > 0 {
			var err error
			if actionParams, err = json.Marshal(sg.Action.Parameters); err != nil {
				return fmt.Errorf("postgres: failed to marshal action parameters: %w", err)
			}
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO suggestions (`+suggestionColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		sg.ID, sg.WorkspaceID, sg.AgentType, string(sg.Type), sg.Title, sg.Content,
		string(sg.Priority), nullableString(sg.TriggerReason), entityType, entityID,
		actionType, actionParams, string(sg.Status), nullableTime(sg.ExpiresAt),
		nullableString(sg.DedupeKey), sg.CreatedAt.UTC(),
		nullableTime(sg.SeenAt), nullableTime(sg.ActedAt), nullableTime(sg.DismissedAt),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert suggestion: %w", err)
	}
	return nil
}

// GetSuggestion retrieves a suggestion by ID.
func (s *Store) GetSuggestion(ctx context.Context, id string) (*types.Suggestion, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+suggestionColumns+` FROM suggestions WHERE id = $1`, id)
	sg, err := scanSuggestion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return sg, err
}

// ListSuggestions returns active suggestions ordered by priority then recency.
func (s *Store) ListSuggestions(ctx context.Context, workspaceID string, q storage.SuggestionQuery) ([]*types.Suggestion, error) {
	q = q.Normalize()

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+suggestionColumns+`
		FROM suggestions
		WHERE workspace_id = $1 AND status = $2
			AND (expires_at IS NULL OR expires_at > $3)
			AND ($4 = '' OR agent_type = $4)
		ORDER BY CASE priority
				WHEN 'urgent' THEN 0
				WHEN 'high' THEN 1
				WHEN 'medium' THEN 2
				ELSE 3 END,
			created_at DESC, seq DESC
		LIMIT $5`,
		workspaceID, string(q.Status), q.Now.UTC(), q.AgentType, q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query suggestions: %w", err)
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
	return suggestions, rows.Err()
}

// SetSuggestionStatus moves a suggestion to status unless it is already terminal.
func (s *Store) SetSuggestionStatus(ctx context.Context, id string, status types.SuggestionStatus, at time.Time) error {
	column, err := storage.SuggestionStatusColumn(status)
	if err != nil {
		return err
	}

	args := []interface{}{string(status), at.UTC(), id}
	placeholders := make([]string, 0, len(types.TerminalSuggestionStatuses))
	for _, v := range storage.TerminalStatusValues() {
		args = append(args, v)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	res, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE suggestions
		SET status = $1, %s = $2
		WHERE id = $3 AND status NOT IN (%s)`, column, strings.Join(placeholders, ", ")),
		args...,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to update suggestion status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("postgres: failed to get rows affected: %w", err)
	}
	if n > 0 {
		return nil
	}

	var exists bool
	if err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM suggestions WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return fmt.Errorf("postgres: failed to check suggestion: %w", err)
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
			WHERE workspace_id = $1 AND dedupe_key = $2 AND created_at >= $3
		)`,
		workspaceID, dedupeKey, since.UTC(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to check dedupe key: %w", err)
	}
	return exists, nil
}

func scanSuggestion(row rowScanner) (*types.Suggestion, error) {
	var (
		sg                                  types.Suggestion
		sgType, priority, status            string
		trigger, dedupe                     sql.NullString
		entityType, entityID, actionType    sql.NullString
		actionParams                        []byte
		expiresAt, seenAt, actedAt, dismiss sql.NullTime
	)
	err := row.Scan(&sg.ID, &sg.WorkspaceID, &sg.AgentType, &sgType, &sg.Title, &sg.Content,
		&priority, &trigger, &entityType, &entityID, &actionType, &actionParams,
		&status, &expiresAt, &dedupe, &sg.CreatedAt, &seenAt, &actedAt, &dismiss)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres: failed to scan suggestion: %w", err)
	}

	sg.Type = types.SuggestionType(sgType)
	sg.Priority = types.Priority(priority)
	sg.Status = types.SuggestionStatus(status)
	sg.TriggerReason = trigger.String
	sg.DedupeKey = dedupe.String
	sg.CreatedAt = sg.CreatedAt.UTC()
	sg.ExpiresAt = timePtr(expiresAt)
	sg.SeenAt = timePtr(seenAt)
	sg.ActedAt = timePtr(actedAt)
	sg.DismissedAt = timePtr(dismiss)

	if entityType.Valid || entityID.Valid {
		sg.RelatedEntity = &types.RelatedEntity{Type: entityType.String, ID: entityID.String}
	}
	if actionType.Valid {
		sg.Action = &types.SuggestionAction{Type: actionType.String}
		if len(actionParams) > 0 {
			if err := json.Unmarshal(actionParams, &sg.Action.Parameters); err != nil {
				return nil, fmt.Errorf("postgres: failed to unmarshal action parameters: %w", err)
			}
		}
	}
	return &sg, nil
}
