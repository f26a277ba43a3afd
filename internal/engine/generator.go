package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/tpcministries/ldc-command-center/internal/llm"
	"github.com/tpcministries/ldc-command-center/internal/services"
	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// Messages explaining an empty GenerationResult.
const (
	msgInsufficientSignals = "not enough workspace signals to generate suggestions"
	msgOracleUnavailable   = "suggestion oracle unavailable; no suggestions generated"
	msgEmptyReply          = "suggestion oracle returned an empty reply"
	msgNoSuggestions       = "suggestion oracle proposed no suggestions"
)

// SuggestionGenerator turns workspace signals into persisted suggestions.
// Each run is stateless: collect, synthesize, persist.
type SuggestionGenerator struct {
	signals     storage.SignalSource
	suggestions *services.SuggestionService
	oracle      llm.Completer
	config      Config
	env
}

// NewSuggestionGenerator creates a SuggestionGenerator. A nil signal source
// means the workspace has no signals.
func NewSuggestionGenerator(signals storage.SignalSource, suggestions *services.SuggestionService, oracle llm.Completer, cfg Config, opts ...Option) *SuggestionGenerator {
	return &SuggestionGenerator{
		signals:     signals,
		suggestions: suggestions,
		oracle:      oracle,
		config:      cfg,
		env:         newEnv(opts),
	}
}

// Generate runs one generation pass for a workspace. agentType is recorded
// as the producer of the new suggestions. Thin signals, oracle failures and
// empty replies yield an empty result with a Message and a nil error. Store
// failures are returned.
func (g *SuggestionGenerator) Generate(ctx context.Context, workspaceID, agentType string) (*GenerationResult, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", storage.ErrInvalidInput)
	}

	now := g.now()
	logger := g.logger.With("workspace_id", workspaceID, "agent_type", agentType)
	result := &GenerationResult{Suggestions: []*types.Suggestion{}}

	// Collect
	snapshot := collectSignals(ctx, g.signals, workspaceID, now, g.config, logger)
	signalText := snapshot.Render(now)
	if len(strings.TrimSpace(signalText)) < g.config.MinSignalChars {
		result.Message = msgInsufficientSignals
		logger.Debug("skipping suggestion generation", "signal_chars", len(signalText))
		return result, nil
	}

	// Synthesize
	reply, err := g.callOracle(ctx, g.oracle, g.config.OracleTimeout, "suggest", llm.SuggestionSystemPrompt, signalText)
	if err != nil {
		result.Message = msgOracleUnavailable
		logger.Warn("suggestion oracle call failed", "error", err)
		return result, nil
	}

	candidates, err := g.synthesize(workspaceID, agentType, reply, now)
	if err != nil {
		if strings.TrimSpace(reply) == "" {
			result.Message = msgEmptyReply
			logger.Warn("suggestion oracle returned an empty reply")
			return result, nil
		}
		logger.Warn("suggestion reply could not be parsed, using fallback", "error", err)
		candidates = []*types.Suggestion{fallbackSuggestion(workspaceID, agentType, reply, now, g.config)}
		result.Fallback = true
	}
	if len(candidates) == 0 {
		result.Message = msgNoSuggestions
		return result, nil
	}

	// Persist
	seen := make(map[string]bool, len(candidates))
	for _, c := range candidates {
		if seen[c.DedupeKey] {
			result.Deduped++
			g.metrics.RecordDeduped()
			continue
		}
		seen[c.DedupeKey] = true

		if g.config.DedupeWindow > 0 {
			dup, err := g.suggestions.HasRecent(ctx, workspaceID, c.DedupeKey, now.Add(-g.config.DedupeWindow))
			if err != nil {
				return nil, fmt.Errorf("failed to check for duplicate suggestion: %w", err)
			}
			if dup {
				result.Deduped++
				g.metrics.RecordDeduped()
				logger.Debug("skipping duplicate suggestion", "title", c.Title)
				continue
			}
		}

		created, err := g.suggestions.Create(ctx, workspaceID, c)
		if err != nil {
			return nil, fmt.Errorf("failed to save suggestion: %w", err)
		}
		result.Suggestions = append(result.Suggestions, created)
		g.metrics.RecordSuggestion(string(created.Type))
	}

	logger.Info("suggestion generation complete",
		"created", len(result.Suggestions), "deduped", result.Deduped, "fallback", result.Fallback)
	return result, nil
}

// synthesize parses the oracle reply into unsaved suggestions.
func (g *SuggestionGenerator) synthesize(workspaceID, agentType, reply string, now time.Time) ([]*types.Suggestion, error) {
	parsed, err := llm.ParseSuggestionResponse(reply)
	if err != nil {
		return nil, err
	}

	out := make([]*types.Suggestion, 0, len(parsed))
	for _, p := range parsed {
		s := &types.Suggestion{
			WorkspaceID:   workspaceID,
			AgentType:     agentType,
			Type:          types.NormalizeSuggestionType(p.Type),
			Title:         strings.TrimSpace(p.Title),
			Content:       strings.TrimSpace(p.Content),
			Priority:      types.NormalizePriority(p.Priority),
			TriggerReason: strings.TrimSpace(p.TriggerReason),
			CreatedAt:     now.UTC(),
		}
		if p.RelatedEntity != nil && (p.RelatedEntity.Type != "" || p.RelatedEntity.ID != "") {
			s.RelatedEntity = &types.RelatedEntity{Type: p.RelatedEntity.Type, ID: p.RelatedEntity.ID}
		}
		if p.Action != nil && p.Action.Type != "" {
			s.Action = &types.SuggestionAction{Type: p.Action.Type, Parameters: p.Action.AllParameters()}
		}
		s.ExpiresAt = expiry(now, p.ExpiresInDays, g.config.SuggestionExpiry)
		s.DedupeKey = DedupeKey(workspaceID, s.Title, s.TriggerReason)
		out = append(out, s)
	}
	return out, nil
}

// fallbackSuggestion wraps an unstructured reply in a single generic insight.
func fallbackSuggestion(workspaceID, agentType, reply string, now time.Time, cfg Config) *types.Suggestion {
	const trigger = "unstructured oracle reply"
	return &types.Suggestion{
		WorkspaceID:   workspaceID,
		AgentType:     agentType,
		Type:          types.NormalizeSuggestionType("general"),
		Title:         fallbackTitle,
		Content:       truncate(strings.TrimSpace(reply), fallbackContentLimit),
		Priority:      types.PriorityMedium,
		TriggerReason: trigger,
		Action:        &types.SuggestionAction{Type: "monitor"},
		ExpiresAt:     expiry(now, nil, cfg.SuggestionExpiry),
		DedupeKey:     DedupeKey(workspaceID, fallbackTitle, trigger),
		CreatedAt:     now.UTC(),
	}
}

func expiry(now time.Time, days *int, fallback time.Duration) *time.Time {
	var at time.Time
	switch {
	case days != nil && *days > 0:
		at = now.AddDate(0, 0, *days).UTC()
	case fallback > 0:
		at = now.Add(fallback).UTC()
	default:
		return nil
	}
	return &at
}

// DedupeKey identifies semantically identical suggestions: a sha256 over the
// workspace, the normalized title and the normalized trigger reason.
func DedupeKey(workspaceID, title, triggerReason string) string {
	h := sha256.New()
	h.Write([]byte(workspaceID))
	h.Write([]byte{0})
	h.Write([]byte(normalizeText(title)))
	h.Write([]byte{0})
	h.Write([]byte(normalizeText(triggerReason)))
	return hex.EncodeToString(h.Sum(nil))
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
