package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// AppendTurn inserts one immutable conversation turn.
func (s *Store) AppendTurn(ctx context.Context, turn *types.ConversationTurn) error {
	if err := storage.ValidateTurn(turn); err != nil {
		return err
	}

	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = time.Now()
	}
	turn.CreatedAt = turn.CreatedAt.UTC()

	var metadata sql.NullString
	if len(turn.Metadata) > 0 {
		data, err := json.Marshal(turn.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata: %w", err)
		}
		metadata = sql.NullString{String: string(data), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_turns
			(id, workspace_id, agent_type, session_id, role, content, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.ID, turn.WorkspaceID, turn.AgentType, turn.SessionID,
		string(turn.Role), turn.Content, metadata, formatTime(turn.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert turn: %w", err)
	}
	return nil
}

// RecentTurns returns the most recent q.Limit turns in the lookback window,
// oldest first. Turns sharing a timestamp keep their insertion order.
func (s *Store) RecentTurns(ctx context.Context, workspaceID, agentType string, q storage.TurnQuery) ([]*types.ConversationTurn, error) {
	q = q.Normalize()

	query := `
		SELECT id, workspace_id, agent_type, session_id, role, content, metadata, created_at
		FROM conversation_turns
		WHERE workspace_id = ? AND agent_type = ?`
	args := []interface{}{workspaceID, agentType}

	if since := q.Since(); !since.IsZero() {
		query += " AND created_at >= ?"
		args = append(args, formatTime(since))
	}
	if q.SessionID != "" {
		query += " AND session_id = ?"
		args = append(args, q.SessionID)
	}
	query += " ORDER BY created_at DESC, seq DESC LIMIT ?"
	args = append(args, q.Limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	turns := make([]*types.ConversationTurn, 0, q.Limit)
	for rows.Next() {
		var (
			turn      types.ConversationTurn
			role      string
			metadata  sql.NullString
			createdAt string
		)
		if err := rows.Scan(&turn.ID, &turn.WorkspaceID, &turn.AgentType, &turn.SessionID,
			&role, &turn.Content, &metadata, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Role = types.Role(role)
		if turn.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		if metadata.Valid && metadata.String != "" {
			if err := json.Unmarshal([]byte(metadata.String), &turn.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
			}
		}
		turns = append(turns, &turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}

	// Selected newest first so LIMIT keeps the tail; flip to ascending.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// ActivePartitions lists (workspace, agent type) pairs with turns since the given time.
func (s *Store) ActivePartitions(ctx context.Context, since time.Time) ([]storage.Partition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT workspace_id, agent_type
		FROM conversation_turns
		WHERE created_at >= ?
		ORDER BY workspace_id, agent_type`,
		formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query active partitions: %w", err)
	}
	defer rows.Close()

	var partitions []storage.Partition
	for rows.Next() {
		var p storage.Partition
		if err := rows.Scan(&p.WorkspaceID, &p.AgentType); err != nil {
			return nil, fmt.Errorf("failed to scan partition: %w", err)
		}
		partitions = append(partitions, p)
	}
	return partitions, rows.Err()
}
