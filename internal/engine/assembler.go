package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tpcministries/ldc-command-center/internal/services"
	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// ContextAssembler builds the context text handed to an agent from the
// workspace settings, memory summary, recent turns and open suggestions.
type ContextAssembler struct {
	settings    *services.SettingsService
	history     storage.HistoryStore
	summaries   storage.SummaryStore
	suggestions *services.SuggestionService
	workspaces  storage.WorkspaceDirectory
	env
}

// NewContextAssembler creates a ContextAssembler.
func NewContextAssembler(
	settings *services.SettingsService,
	history storage.HistoryStore,
	summaries storage.SummaryStore,
	suggestions *services.SuggestionService,
	workspaces storage.WorkspaceDirectory,
	opts ...Option,
) *ContextAssembler {
	return &ContextAssembler{
		settings:    settings,
		history:     history,
		summaries:   summaries,
		suggestions: suggestions,
		workspaces:  workspaces,
		env:         newEnv(opts),
	}
}

// Assemble builds the context for one agent invocation. Blocks appear in
// order: custom instructions, mode line, memory summary, recent turns,
// suggestions, additional context.
//
// History and suggestions are gated only by their include flags, so
// minimal mode still carries them when the flags are on. Read failures
// drop the affected block instead of failing the call.
func (a *ContextAssembler) Assemble(ctx context.Context, workspaceID, agentType, additionalContext string) (*AssembledContext, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", storage.ErrInvalidInput)
	}

	logger := a.logger.With("workspace_id", workspaceID, "agent_type", agentType)

	settings, err := a.settings.GetSettings(ctx, workspaceID)
	if err != nil {
		logger.Warn("falling back to default context settings", "error", err)
		settings = types.DefaultContextSettings(workspaceID)
	}

	out := &AssembledContext{Settings: settings}
	var blocks []string

	if instructions := strings.TrimSpace(settings.CustomInstructions); instructions != "" {
		blocks = append(blocks, "CUSTOM INSTRUCTIONS:\n"+instructions)
	}

	if line := a.modeLine(ctx, settings); line != "" {
		blocks = append(blocks, line)
	}

	if settings.IncludeConversationHistory {
		if summary := a.summaryBlock(ctx, workspaceID, agentType); summary != "" {
			blocks = append(blocks, summary)
			out.SummaryIncluded = true
		}
		if turns, n := a.turnsBlock(ctx, workspaceID, agentType, settings); n > 0 {
			blocks = append(blocks, turns)
			out.TurnCount = n
		}
	}

	if settings.IncludeSuggestions {
		if suggestions, n := a.suggestionsBlock(ctx, workspaceID); n > 0 {
			blocks = append(blocks, suggestions)
			out.SuggestionCount = n
		}
	}

	if additionalContext != "" {
		blocks = append(blocks, additionalContext)
	}

	out.Text = strings.Join(blocks, "\n\n")
	a.metrics.RecordAssembly(string(settings.ContextMode))
	return out, nil
}

func (a *ContextAssembler) modeLine(ctx context.Context, settings *types.ContextSettings) string {
	switch settings.ContextMode {
	case types.ContextModeMinimal:
		return "Workspace: " + a.workspaceName(ctx, settings.WorkspaceID)
	case types.ContextModeFocused:
		return "Context scope: this workspace only. Cross-workspace data is excluded."
	default:
		if !settings.IncludeCrossWorkspace {
			return ""
		}
		line := "Context scope: cross-workspace data is enabled."
		if len(settings.ExcludedWorkspaceIDs) > 0 {
			line += " Excluded workspaces: " + strings.Join(settings.ExcludedWorkspaceIDs, ", ") + "."
		}
		return line
	}
}

// workspaceName falls back to the id when the directory has no entry.
func (a *ContextAssembler) workspaceName(ctx context.Context, workspaceID string) string {
	if a.workspaces == nil {
		return workspaceID
	}
	name, err := a.workspaces.WorkspaceName(ctx, workspaceID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.logger.Warn("workspace name lookup failed", "workspace_id", workspaceID, "error", err)
		}
		return workspaceID
	}
	if strings.TrimSpace(name) == "" {
		return workspaceID
	}
	return name
}

func (a *ContextAssembler) summaryBlock(ctx context.Context, workspaceID, agentType string) string {
	summary, err := a.summaries.LatestSummary(ctx, workspaceID, agentType)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			a.logger.Warn("latest summary lookup failed", "workspace_id", workspaceID, "error", err)
		}
		return ""
	}

	var b strings.Builder
	b.WriteString("CONVERSATION MEMORY:\n")
	b.WriteString(summary.Summary)
	if len(summary.KeyTopics) > 0 {
		b.WriteString("\nTopics: " + strings.Join(summary.KeyTopics, ", "))
	}
	if len(summary.KeyDecisions) > 0 {
		b.WriteString("\nDecisions: " + strings.Join(summary.KeyDecisions, "; "))
	}
	if len(summary.ActionItems) > 0 {
		b.WriteString("\nAction items: " + strings.Join(summary.ActionItems, "; "))
	}
	return b.String()
}

func (a *ContextAssembler) turnsBlock(ctx context.Context, workspaceID, agentType string, settings *types.ContextSettings) (string, int) {
	limit := contextTurnLimit
	if settings.MaxHistoryMessages > 0 && settings.MaxHistoryMessages < limit {
		limit = settings.MaxHistoryMessages
	}

	turns, err := a.history.RecentTurns(ctx, workspaceID, agentType, storage.TurnQuery{
		Limit:    limit,
		DaysBack: settings.MaxHistoryDays,
		Now:      a.now(),
	})
	if err != nil {
		a.logger.Warn("recent turns lookup failed", "workspace_id", workspaceID, "error", err)
		return "", 0
	}
	if len(turns) == 0 {
		return "", 0
	}

	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, fmt.Sprintf("%s: %s", t.Role, truncate(t.Content, contextTurnChars)))
	}
	return block("RECENT CONVERSATION", lines), len(turns)
}

func (a *ContextAssembler) suggestionsBlock(ctx context.Context, workspaceID string) (string, int) {
	list, err := a.suggestions.List(ctx, workspaceID, storage.SuggestionQuery{
		Status: types.StatusNew,
		Limit:  contextSuggestions,
		Now:    a.now(),
	})
	if err != nil {
		a.logger.Warn("suggestion lookup failed", "workspace_id", workspaceID, "error", err)
		return "", 0
	}
	if len(list) == 0 {
		return "", 0
	}

	lines := make([]string, 0, len(list))
	for _, s := range list {
		lines = append(lines, fmt.Sprintf("- [%s] %s: %s", s.Priority, s.Title, truncate(s.Content, suggestionPrefixLen)))
	}
	return block("PROACTIVE SUGGESTIONS", lines), len(list)
}

// truncate shortens s to at most max runes, ending in "..." when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
