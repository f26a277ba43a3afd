package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

var _ storage.Store = (*Store)(nil)

// Store implements storage.Store using PostgreSQL.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore connects to PostgreSQL and applies Schema.
func NewStore(dsn string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to ping database: %w", err)
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: failed to apply schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// isUndefinedTable reports whether err is PostgreSQL's undefined_table (42P01).
func isUndefinedTable(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "42P01"
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil || t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

// ---- History ----

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

	var metadata []byte
	if len(turn.Metadata) > 0 {
		var err error
		if metadata, err = json.Marshal(turn.Metadata); err != nil {
			return fmt.Errorf("postgres: failed to marshal metadata: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_turns
			(id, workspace_id, agent_type, session_id, role, content, metadata, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		turn.ID, turn.WorkspaceID, turn.AgentType, turn.SessionID,
		string(turn.Role), turn.Content, metadata, turn.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert turn: %w", err)
	}
	return nil
}

// RecentTurns returns the most recent q.Limit turns in the lookback window,
// oldest first.
func (s *Store) RecentTurns(ctx context.Context, workspaceID, agentType string, q storage.TurnQuery) ([]*types.ConversationTurn, error) {
	q = q.Normalize()

	var since sql.NullTime
	if t := q.Since(); !t.IsZero() {
		since = sql.NullTime{Time: t.UTC(), Valid: true}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, workspace_id, agent_type, session_id, role, content, metadata, created_at
		FROM (
			SELECT *
			FROM conversation_turns
			WHERE workspace_id = $1 AND agent_type = $2
				AND ($3::timestamptz IS NULL OR created_at >= $3)
				AND ($4 = '' OR session_id = $4)
			ORDER BY created_at DESC, seq DESC
			LIMIT $5
		) recent
		ORDER BY created_at ASC, seq ASC`,
		workspaceID, agentType, since, q.SessionID, q.Limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query turns: %w", err)
	}
	defer rows.Close()

	turns := make([]*types.ConversationTurn, 0, q.Limit)
	for rows.Next() {
		var (
			turn     types.ConversationTurn
			role     string
			metadata []byte
		)
		if err := rows.Scan(&turn.ID, &turn.WorkspaceID, &turn.AgentType, &turn.SessionID,
			&role, &turn.Content, &metadata, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan turn: %w", err)
		}
		turn.Role = types.Role(role)
		turn.CreatedAt = turn.CreatedAt.UTC()
		if len(metadata) > 0 {
			if err := json.Unmarshal(metadata, &turn.Metadata); err != nil {
				return nil, fmt.Errorf("postgres: failed to unmarshal metadata: %w", err)
			}
		}
		turns = append(turns, &turn)
	}
	return turns, rows.Err()
}

// ActivePartitions lists (workspace, agent type) pairs with turns since the given time.
func (s *Store) ActivePartitions(ctx context.Context, since time.Time) ([]storage.Partition, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT DISTINCT workspace_id, agent_type
		FROM conversation_turns
		WHERE created_at >= $1
		ORDER BY workspace_id, agent_type`,
		since.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query active partitions: %w", err)
	}
	defer rows.Close()

	var partitions []storage.Partition
	for rows.Next() {
		var p storage.Partition
		if err := rows.Scan(&p.WorkspaceID, &p.AgentType); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan partition: %w", err)
		}
		partitions = append(partitions, p)
	}
	return partitions, rows.Err()
}

// ---- Summaries ----

const summaryColumns = `id, workspace_id, agent_type, summary, key_topics, key_decisions,
	action_items, period_start, period_end, source_message_count, model, created_at`

// CreateSummary inserts a new memory summary.
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

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO memory_summaries (`+summaryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		summary.ID, summary.WorkspaceID, summary.AgentType, summary.Summary,
		pq.Array(nonNil(summary.KeyTopics)), pq.Array(nonNil(summary.KeyDecisions)),
		pq.Array(nonNil(summary.ActionItems)),
		summary.PeriodStart.UTC(), summary.PeriodEnd.UTC(), summary.SourceMessageCount,
		nullableString(summary.Model), summary.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert summary: %w", err)
	}
	return nil
}

// LatestSummary returns the most recently created summary for the pair.
func (s *Store) LatestSummary(ctx context.Context, workspaceID, agentType string) (*types.MemorySummary, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+summaryColumns+`
		FROM memory_summaries
		WHERE workspace_id = $1 AND agent_type = $2
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`,
		workspaceID, agentType,
	)
	summary, err := scanSummary(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return summary, err
}

// ListSummaries returns up to limit summaries, newest first.
func (s *Store) ListSummaries(ctx context.Context, workspaceID, agentType string, limit int) ([]*types.MemorySummary, error) {
	if limit <= 0 || limit > storage.MaxQueryLimit {
		limit = storage.DefaultTurnLimit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+`
		FROM memory_summaries
		WHERE workspace_id = $1 AND agent_type = $2
		ORDER BY created_at DESC, seq DESC
		LIMIT $3`,
		workspaceID, agentType, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query summaries: %w", err)
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

func scanSummary(row rowScanner) (*types.MemorySummary, error) {
	var (
		m     types.MemorySummary
		model sql.NullString
	)
	err := row.Scan(&m.ID, &m.WorkspaceID, &m.AgentType, &m.Summary,
		pq.Array(&m.KeyTopics), pq.Array(&m.KeyDecisions), pq.Array(&m.ActionItems),
		&m.PeriodStart, &m.PeriodEnd, &m.SourceMessageCount, &model, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("postgres: failed to scan summary: %w", err)
	}
	m.Model = model.String
	m.KeyTopics = nonNil(m.KeyTopics)
	m.KeyDecisions = nonNil(m.KeyDecisions)
	m.ActionItems = nonNil(m.ActionItems)
	m.PeriodStart = m.PeriodStart.UTC()
	m.PeriodEnd = m.PeriodEnd.UTC()
	m.CreatedAt = m.CreatedAt.UTC()
	return &m, nil
}

// ---- Settings ----

// GetSettings returns the stored context settings for a workspace.
func (s *Store) GetSettings(ctx context.Context, workspaceID string) (*types.ContextSettings, error) {
	var (
		cs           types.ContextSettings
		mode         string
		instructions sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT workspace_id, context_mode, include_cross_workspace, include_conversation_history,
			include_suggestions, max_history_messages, max_history_days, excluded_workspace_ids,
			custom_instructions, created_at, updated_at
		FROM context_settings
		WHERE workspace_id = $1`,
		workspaceID,
	).Scan(&cs.WorkspaceID, &mode, &cs.IncludeCrossWorkspace, &cs.IncludeConversationHistory,
		&cs.IncludeSuggestions, &cs.MaxHistoryMessages, &cs.MaxHistoryDays,
		pq.Array(&cs.ExcludedWorkspaceIDs), &instructions, &cs.CreatedAt, &cs.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query settings: %w", err)
	}

	cs.ContextMode = types.ContextMode(mode)
	cs.CustomInstructions = instructions.String
	cs.ExcludedWorkspaceIDs = nonNil(cs.ExcludedWorkspaceIDs)
	cs.CreatedAt = cs.CreatedAt.UTC()
	cs.UpdatedAt = cs.UpdatedAt.UTC()
	cs.Persisted = true
	return &cs, nil
}

// UpsertSettings inserts or replaces the whole settings row.
func (s *Store) UpsertSettings(ctx context.Context, cs *types.ContextSettings) error {
	if cs == nil || cs.WorkspaceID == "" {
		return fmt.Errorf("%w: settings workspace id is required", storage.ErrInvalidInput)
	}
	if cs.UpdatedAt.IsZero() {
		cs.UpdatedAt = time.Now().UTC()
	}
	if cs.CreatedAt.IsZero() {
		cs.CreatedAt = cs.UpdatedAt
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO context_settings (
			workspace_id, context_mode, include_cross_workspace, include_conversation_history,
			include_suggestions, max_history_messages, max_history_days, excluded_workspace_ids,
			custom_instructions, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (workspace_id) DO UPDATE SET
			context_mode = EXCLUDED.context_mode,
			include_cross_workspace = EXCLUDED.include_cross_workspace,
			include_conversation_history = EXCLUDED.include_conversation_history,
			include_suggestions = EXCLUDED.include_suggestions,
			max_history_messages = EXCLUDED.max_history_messages,
			max_history_days = EXCLUDED.max_history_days,
			excluded_workspace_ids = EXCLUDED.excluded_workspace_ids,
			custom_instructions = EXCLUDED.custom_instructions,
			updated_at = EXCLUDED.updated_at`,
		cs.WorkspaceID, string(cs.ContextMode), cs.IncludeCrossWorkspace,
		cs.IncludeConversationHistory, cs.IncludeSuggestions,
		cs.MaxHistoryMessages, cs.MaxHistoryDays, pq.Array(nonNil(cs.ExcludedWorkspaceIDs)),
		nullableString(cs.CustomInstructions), cs.CreatedAt.UTC(), cs.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to upsert settings: %w", err)
	}
	cs.Persisted = true
	return nil
}

// WorkspaceName returns the display name of a workspace. A missing
// workspaces table is treated like an unknown workspace.
func (s *Store) WorkspaceName(ctx context.Context, workspaceID string) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		`SELECT name FROM workspaces WHERE id = $1`, workspaceID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) || isUndefinedTable(err) {
		return "", storage.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("postgres: failed to query workspace: %w", err)
	}
	return name, nil
}
