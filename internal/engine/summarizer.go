package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tpcministries/ldc-command-center/internal/llm"
	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// Summarizer compresses the recent history of a (workspace, agent type)
// pair into a durable MemorySummary.
type Summarizer struct {
	history   storage.HistoryStore
	summaries storage.SummaryStore
	oracle    llm.Completer
	config    Config
	env
}

// NewSummarizer creates a Summarizer.
func NewSummarizer(history storage.HistoryStore, summaries storage.SummaryStore, oracle llm.Completer, cfg Config, opts ...Option) *Summarizer {
	return &Summarizer{
		history:   history,
		summaries: summaries,
		oracle:    oracle,
		config:    cfg,
		env:       newEnv(opts),
	}
}

// Summarize summarizes the turns of the last SummaryWindow. Too few turns,
// an oracle failure or an unparseable reply produce a result with Produced
// false and a nil error. Only store failures are returned as errors.
func (s *Summarizer) Summarize(ctx context.Context, workspaceID, agentType string) (*SummaryResult, error) {
	if workspaceID == "" || agentType == "" {
		return nil, fmt.Errorf("%w: workspace id and agent type are required", storage.ErrInvalidInput)
	}

	now := s.now()
	turns, err := s.history.RecentTurns(ctx, workspaceID, agentType, storage.TurnQuery{
		Limit:    s.config.SummaryFetchLimit,
		DaysBack: windowDays(s.config.SummaryWindow),
		Now:      now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}

	result := &SummaryResult{TurnCount: len(turns)}
	logger := s.logger.With("workspace_id", workspaceID, "agent_type", agentType, "turns", len(turns))

	if len(turns) < s.config.SummaryMinTurns {
		result.Reason = SummaryInsufficientTurns
		s.metrics.RecordSummary(string(result.Reason))
		logger.Debug("not enough turns to summarize", "required", s.config.SummaryMinTurns)
		return result, nil
	}

	reply, err := s.callOracle(ctx, s.oracle, s.config.OracleTimeout, "summarize", llm.SummarySystemPrompt, buildTranscript(turns))
	if err != nil {
		result.Reason = SummaryOracleError
		s.metrics.RecordSummary(string(result.Reason))
		logger.Warn("summary oracle call failed", "error", err)
		return result, nil
	}

	parsed, err := llm.ParseSummaryResponse(reply)
	if err != nil {
		result.Reason = SummaryParseError
		s.metrics.RecordSummary(string(result.Reason))
		logger.Warn("summary reply could not be parsed", "error", err)
		return result, nil
	}

	summary := &types.MemorySummary{
		ID:                 uuid.New().String(),
		WorkspaceID:        workspaceID,
		AgentType:          agentType,
		Summary:            parsed.Summary,
		KeyTopics:          types.DedupeStrings(parsed.KeyTopics),
		KeyDecisions:       nonNil(parsed.KeyDecisions),
		ActionItems:        nonNil(parsed.ActionItems),
		PeriodStart:        turns[0].CreatedAt,
		PeriodEnd:          turns[len(turns)-1].CreatedAt,
		SourceMessageCount: len(turns),
		CreatedAt:          now.UTC(),
	}
	if s.oracle != nil {
		summary.Model = s.oracle.GetModel()
	}

	if err := s.summaries.CreateSummary(ctx, summary); err != nil {
		return nil, fmt.Errorf("failed to save summary: %w", err)
	}

	result.Summary = summary
	result.Produced = true
	result.Reason = SummaryCreated
	s.metrics.RecordSummary(string(result.Reason))
	logger.Info("memory summary created", "summary_id", summary.ID)
	return result, nil
}

// buildTranscript renders turns as "role: content" lines.
func buildTranscript(turns []*types.ConversationTurn) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(string(t.Role))
		b.WriteString(": ")
		b.WriteString(t.Content)
		b.WriteString("\n")
	}
	return b.String()
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}
