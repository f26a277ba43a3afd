package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// GetSettings returns the stored context settings for a workspace.
func (s *Store) GetSettings(ctx context.Context, workspaceID string) (*types.ContextSettings, error) {
	var (
		cs                      types.ContextSettings
		mode, excluded          string
		cross, history, suggest int
		instructions            sql.NullString
		createdAt, updatedAt    string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT workspace_id, context_mode, include_cross_workspace, include_conversation_history,
			include_suggestions, max_history_messages, max_history_days, excluded_workspace_ids,
			custom_instructions, created_at, updated_at
		FROM context_settings
		WHERE workspace_id = ?`,
		workspaceID,
	).Scan(&cs.WorkspaceID, &mode, &cross, &history, &suggest,
		&cs.MaxHistoryMessages, &cs.MaxHistoryDays, &excluded,
		&instructions, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settings: %w", err)
	}

	cs.ContextMode = types.ContextMode(mode)
	cs.IncludeCrossWorkspace = cross != 0
	cs.IncludeConversationHistory = history != 0
	cs.IncludeSuggestions = suggest != 0
	cs.CustomInstructions = instructions.String
	cs.Persisted = true
	if cs.ExcludedWorkspaceIDs, err = types.UnmarshalStringList(excluded); err != nil {
		return nil, fmt.Errorf("failed to unmarshal excluded workspaces: %w", err)
	}
	if cs.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if cs.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &cs, nil
}

// UpsertSettings inserts or replaces the whole settings row. created_at is
// kept from the first insert.
func (s *Store) UpsertSettings(ctx context.Context, cs *types.ContextSettings) error {
	if cs == nil || cs.WorkspaceID == "" {
		return fmt.Errorf("%w: settings workspace id is required", storage.ErrInvalidInput)
	}

	now := time.Now().UTC()
	if cs.UpdatedAt.IsZero() {
		cs.UpdatedAt = now
	}
	if cs.CreatedAt.IsZero() {
		cs.CreatedAt = cs.UpdatedAt
	}

	excluded, err := types.MarshalStringList(cs.ExcludedWorkspaceIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal excluded workspaces: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO context_settings (
			workspace_id, context_mode, include_cross_workspace, include_conversation_history,
			include_suggestions, max_history_messages, max_history_days, excluded_workspace_ids,
			custom_instructions, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(workspace_id) DO UPDATE SET
			context_mode = excluded.context_mode,
			include_cross_workspace = excluded.include_cross_workspace,
			include_conversation_history = excluded.include_conversation_history,
			include_suggestions = excluded.include_suggestions,
			max_history_messages = excluded.max_history_messages,
			max_history_days = excluded.max_history_days,
			excluded_workspace_ids = excluded.excluded_workspace_ids,
			custom_instructions = excluded.custom_instructions,
			updated_at = excluded.updated_at`,
		cs.WorkspaceID, string(cs.ContextMode),
		boolToInt(cs.IncludeCrossWorkspace), boolToInt(cs.IncludeConversationHistory),
		boolToInt(cs.IncludeSuggestions), cs.MaxHistoryMessages, cs.MaxHistoryDays,
		excluded, nullableString(cs.CustomInstructions),
		formatTime(cs.CreatedAt), formatTime(cs.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert settings: %w", err)
	}
	cs.Persisted = true
	return nil
}

// WorkspaceName returns the display name of a workspace.
func (s *Store) WorkspaceName(ctx context.Context, workspaceID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM workspaces WHERE id = ?`, workspaceID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to query workspace: %w", err)
	}
	return name, nil
}
