package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tpcministries/ldc-command-center/internal/llm"
	"github.com/tpcministries/ldc-command-center/internal/metrics"
	"github.com/tpcministries/ldc-command-center/internal/services"
	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// Engine is the public API of the memory and suggestion engine. Every
// method takes the identifiers it needs; nothing is remembered between
// calls except cached settings.
type Engine struct {
	config Config
	store  storage.Store
	env

	settings    *services.SettingsService
	suggestions *services.SuggestionService
	summarizer  *Summarizer
	generator   *SuggestionGenerator
	assembler   *ContextAssembler
}

// New wires the engine components over store and oracle. A nil oracle is
// allowed; summarization and generation then degrade to their no-op results.
func New(store storage.Store, oracle llm.Completer, cfg Config, opts ...Option) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{config: cfg, store: store, env: newEnv(opts)}
	e.settings = services.NewSettingsService(store, cfg.SettingsCacheTTL, e.logger).WithClock(e.now)
	e.suggestions = services.NewSuggestionService(store, e.metrics, e.logger).WithClock(e.now)
	e.summarizer = NewSummarizer(store, store, oracle, cfg, opts...)
	e.generator = NewSuggestionGenerator(store, e.suggestions, oracle, cfg, opts...)
	e.assembler = NewContextAssembler(e.settings, store, store, e.suggestions, store, opts...)

	if oracle == nil {
		e.logger.Warn("engine started without a completion oracle")
	}
	return e, nil
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Metrics returns the engine's metrics sink, which may be nil.
func (e *Engine) Metrics() *metrics.Metrics { return e.metrics }

// AppendTurn validates and stores one conversation turn, assigning its ID
// and creation time when absent.
func (e *Engine) AppendTurn(ctx context.Context, turn *types.ConversationTurn) (*types.ConversationTurn, error) {
	if err := storage.ValidateTurn(turn); err != nil {
		return nil, err
	}
	if turn.ID == "" {
		turn.ID = uuid.New().String()
	}
	if turn.CreatedAt.IsZero() {
		turn.CreatedAt = e.now().UTC()
	}
	if err := e.store.AppendTurn(ctx, turn); err != nil {
		return nil, err
	}
	return turn, nil
}

// RecentTurns returns turns for a (workspace, agent type) pair, oldest first.
func (e *Engine) RecentTurns(ctx context.Context, workspaceID, agentType string, q storage.TurnQuery) ([]*types.ConversationTurn, error) {
	if workspaceID == "" || agentType == "" {
		return nil, fmt.Errorf("%w: workspace id and agent type are required", storage.ErrInvalidInput)
	}
	if q.Now.IsZero() {
		q.Now = e.now()
	}
	return e.store.RecentTurns(ctx, workspaceID, agentType, q.Normalize())
}

// SummarizeIfDue summarizes the recent window when it holds enough turns.
func (e *Engine) SummarizeIfDue(ctx context.Context, workspaceID, agentType string) (*SummaryResult, error) {
	return e.summarizer.Summarize(ctx, workspaceID, agentType)
}

// LatestSummary returns the current summary. Returns storage.ErrNotFound
// when none exists.
func (e *Engine) LatestSummary(ctx context.Context, workspaceID, agentType string) (*types.MemorySummary, error) {
	if workspaceID == "" || agentType == "" {
		return nil, fmt.Errorf("%w: workspace id and agent type are required", storage.ErrInvalidInput)
	}
	return e.store.LatestSummary(ctx, workspaceID, agentType)
}

// ListSummaries returns up to limit summaries, newest first.
func (e *Engine) ListSummaries(ctx context.Context, workspaceID, agentType string, limit int) ([]*types.MemorySummary, error) {
	if workspaceID == "" || agentType == "" {
		return nil, fmt.Errorf("%w: workspace id and agent type are required", storage.ErrInvalidInput)
	}
	return e.store.ListSummaries(ctx, workspaceID, agentType, limit)
}

// GetSettings returns the workspace's context settings or the defaults.
func (e *Engine) GetSettings(ctx context.Context, workspaceID string) (*types.ContextSettings, error) {
	return e.settings.GetSettings(ctx, workspaceID)
}

// UpdateSettings applies a partial settings update.
func (e *Engine) UpdateSettings(ctx context.Context, workspaceID string, update types.ContextSettingsUpdate) (*types.ContextSettings, error) {
	return e.settings.UpdateSettings(ctx, workspaceID, update)
}

// GenerateSuggestions runs one suggestion generation pass for a workspace.
func (e *Engine) GenerateSuggestions(ctx context.Context, workspaceID, agentType string) (*GenerationResult, error) {
	return e.generator.Generate(ctx, workspaceID, agentType)
}

// CreateSuggestion stores a caller-supplied suggestion with status new.
func (e *Engine) CreateSuggestion(ctx context.Context, workspaceID string, s *types.Suggestion) (*types.Suggestion, error) {
	return e.suggestions.Create(ctx, workspaceID, s)
}

// GetSuggestion returns one suggestion by ID.
func (e *Engine) GetSuggestion(ctx context.Context, id string) (*types.Suggestion, error) {
	return e.suggestions.Get(ctx, id)
}

// ListSuggestions returns active suggestions for a workspace.
func (e *Engine) ListSuggestions(ctx context.Context, workspaceID string, q storage.SuggestionQuery) ([]*types.Suggestion, error) {
	return e.suggestions.List(ctx, workspaceID, q)
}

// MarkSuggestion moves a suggestion to seen, acted or dismissed.
func (e *Engine) MarkSuggestion(ctx context.Context, id string, status types.SuggestionStatus) (*types.Suggestion, error) {
	return e.suggestions.SetStatus(ctx, id, status)
}

// AssembleContext builds the agent context for a workspace.
func (e *Engine) AssembleContext(ctx context.Context, workspaceID, agentType, additionalContext string) (*AssembledContext, error) {
	return e.assembler.Assemble(ctx, workspaceID, agentType, additionalContext)
}

// SummarizeActive summarizes every (workspace, agent type) pair with turns
// inside the summary window and returns how many summaries were created.
// A failing pair is logged and skipped.
func (e *Engine) SummarizeActive(ctx context.Context) (int, error) {
	partitions, err := e.store.ActivePartitions(ctx, e.now().Add(-e.config.SummaryWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list active partitions: %w", err)
	}

	created := 0
	for _, p := range partitions {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		res, err := e.summarizer.Summarize(ctx, p.WorkspaceID, p.AgentType)
		if err != nil {
			e.logger.Error("scheduled summarization failed",
				"workspace_id", p.WorkspaceID, "agent_type", p.AgentType, "error", err)
			continue
		}
		if res.Produced {
			created++
		}
	}
	return created, nil
}

// SuggestActive generates suggestions for every workspace with recent
// conversation activity and returns how many suggestions were created.
func (e *Engine) SuggestActive(ctx context.Context, agentType string) (int, error) {
	partitions, err := e.store.ActivePartitions(ctx, e.now().Add(-e.config.SummaryWindow))
	if err != nil {
		return 0, fmt.Errorf("failed to list active partitions: %w", err)
	}

	created := 0
	for _, ws := range uniqueWorkspaces(partitions) {
		if ctx.Err() != nil {
			return created, ctx.Err()
		}
		res, err := e.generator.Generate(ctx, ws, agentType)
		if err != nil {
			e.logger.Error("scheduled suggestion generation failed", "workspace_id", ws, "error", err)
			continue
		}
		created += len(res.Suggestions)
	}
	return created, nil
}

func uniqueWorkspaces(partitions []storage.Partition) []string {
	seen := make(map[string]bool, len(partitions))
	out := make([]string, 0, len(partitions))
	for _, p := range partitions {
		if !seen[p.WorkspaceID] {
			seen[p.WorkspaceID] = true
			out = append(out, p.WorkspaceID)
		}
	}
	return out
}
