package engine

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpcministries/ldc-command-center/pkg/types"
)

func ptr[T any](v T) *T { return &v }

func seedSummary(t *testing.T, e *Engine, ws, agent string) {
	t.Helper()
	err := e.store.CreateSummary(context.Background(), &types.MemorySummary{
		ID:           "sum-1",
		WorkspaceID:  ws,
		AgentType:    agent,
		Summary:      "Discussed the capital campaign.",
		KeyTopics:    []string{"campaign", "budget"},
		KeyDecisions: []string{"Hire a consultant"},
		ActionItems:  []string{"Email the board", "Draft timeline"},
		PeriodStart:  baseTime.Add(-48 * time.Hour),
		PeriodEnd:    baseTime.Add(-time.Hour),
		CreatedAt:    baseTime.Add(-time.Hour),
	})
	require.NoError(t, err)
}

func seedSuggestion(t *testing.T, e *Engine, ws, title string, p types.Priority) {
	t.Helper()
	_, err := e.CreateSuggestion(context.Background(), ws, &types.Suggestion{
		Title:    title,
		Content:  "Details for " + title,
		Priority: p,
	})
	require.NoError(t, err)
}

func TestAssemble_EmptyWorkspace(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	out, err := e.AssembleContext(context.Background(), "ws-empty", "grants", "")
	require.NoError(t, err)

	assert.Equal(t, "Context scope: cross-workspace data is enabled.", out.Text)
	assert.NotContains(t, out.Text, "CONVERSATION MEMORY")
	assert.NotContains(t, out.Text, "PROACTIVE SUGGESTIONS")
	assert.False(t, out.SummaryIncluded)
	assert.Zero(t, out.TurnCount)
	assert.Zero(t, out.SuggestionCount)
	assert.Equal(t, types.ContextModeFull, out.Settings.ContextMode)
}

func TestAssemble_EmptyWorkspaceMinimal(t *testing.T) {
	e, store := newTestEngine(t, nil)
	ctx := context.Background()
	_, err := store.DB().Exec(`INSERT INTO workspaces (id, name) VALUES ('ws-1', 'Grace Chapel')`)
	require.NoError(t, err)
	_, err = e.UpdateSettings(ctx, "ws-1", types.ContextSettingsUpdate{ContextMode: ptr(types.ContextModeMinimal)})
	require.NoError(t, err)

	out, err := e.AssembleContext(ctx, "ws-1", "grants", "")
	require.NoError(t, err)
	assert.Equal(t, "Workspace: Grace Chapel", out.Text)
}

func TestAssemble_MinimalFallsBackToWorkspaceID(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	_, err := e.UpdateSettings(ctx, "ws-unknown", types.ContextSettingsUpdate{ContextMode: ptr(types.ContextModeMinimal)})
	require.NoError(t, err)

	out, err := e.AssembleContext(ctx, "ws-unknown", "grants", "")
	require.NoError(t, err)
	assert.Equal(t, "Workspace: ws-unknown", out.Text)
}

func TestAssemble_LastSixTurnsTruncated(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	long := strings.Repeat("x", 300)
	appendTurns(t, e, "ws-1", "grants", 8, baseTime.Add(-time.Hour), func(i int) string {
		return fmt.Sprintf("turn-%d %s", i, long)
	})

	out, err := e.AssembleContext(context.Background(), "ws-1", "grants", "")
	require.NoError(t, err)
	require.Equal(t, 6, out.TurnCount)

	section := out.Text[strings.Index(out.Text, "RECENT CONVERSATION:\n")+len("RECENT CONVERSATION:\n"):]
	lines := strings.Split(section, "\n")
	require.Len(t, lines, 6)

	for i, line := range lines {
		n := i + 2
		prefix := "user: "
		if n%2 == 1 {
			prefix = "assistant: "
		}
		require.True(t, strings.HasPrefix(line, prefix), "line %d: %q", i, line)
		content := strings.TrimPrefix(line, prefix)
		assert.True(t, strings.HasPrefix(content, fmt.Sprintf("turn-%d ", n)), "turns stay in chronological order")
		assert.LessOrEqual(t, len([]rune(content)), 200)
	}
	assert.NotContains(t, out.Text, "turn-0 ")
	assert.NotContains(t, out.Text, "turn-1 ")
}

func TestAssemble_MaxHistoryMessagesCapsTurns(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	appendTurns(t, e, "ws-1", "grants", 8, baseTime.Add(-time.Hour), turnText)
	_, err := e.UpdateSettings(ctx, "ws-1", types.ContextSettingsUpdate{MaxHistoryMessages: ptr(2)})
	require.NoError(t, err)

	out, err := e.AssembleContext(ctx, "ws-1", "grants", "")
	require.NoError(t, err)
	assert.Equal(t, 2, out.TurnCount)
	assert.Contains(t, out.Text, "message 7 about")
	assert.NotContains(t, out.Text, "message 5 about")
}

func TestAssemble_FullContextOrder(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	_, err := e.UpdateSettings(ctx, "ws-1", types.ContextSettingsUpdate{
		CustomInstructions:   ptr("Always answer in Spanish."),
		ExcludedWorkspaceIDs: ptr([]string{"ws-9"}),
	})
	require.NoError(t, err)
	seedSummary(t, e, "ws-1", "grants")
	appendTurns(t, e, "ws-1", "grants", 2, baseTime.Add(-time.Hour), turnText)
	seedSuggestion(t, e, "ws-1", "Low thing", types.PriorityLow)
	seedSuggestion(t, e, "ws-1", "Urgent thing", types.PriorityUrgent)

	out, err := e.AssembleContext(ctx, "ws-1", "grants", "Caller note: meeting at 3pm.")
	require.NoError(t, err)

	expectedOrder := []string{
		"CUSTOM INSTRUCTIONS:\nAlways answer in Spanish.",
		"Context scope: cross-workspace data is enabled. Excluded workspaces: ws-9.",
		"CONVERSATION MEMORY:\nDiscussed the capital campaign.\nTopics: campaign, budget\nDecisions: Hire a consultant\nAction items: Email the board; Draft timeline",
		"RECENT CONVERSATION:\nuser: message 0 about the spring grant\nassistant: message 1 about the spring grant",
		"PROACTIVE SUGGESTIONS:\n- [urgent] Urgent thing: Details for Urgent thing\n- [low] Low thing: Details for Low thing",
		"Caller note: meeting at 3pm.",
	}
	assert.Equal(t, strings.Join(expectedOrder, "\n\n"), out.Text)
	assert.True(t, out.SummaryIncluded)
	assert.Equal(t, 2, out.SuggestionCount)
	assert.Equal(t, "Always answer in Spanish.", out.Settings.CustomInstructions)
}

func TestAssemble_FocusedMode(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	_, err := e.UpdateSettings(ctx, "ws-1", types.ContextSettingsUpdate{ContextMode: ptr(types.ContextModeFocused)})
	require.NoError(t, err)

	out, err := e.AssembleContext(ctx, "ws-1", "grants", "")
	require.NoError(t, err)
	assert.Equal(t, "Context scope: this workspace only. Cross-workspace data is excluded.", out.Text)
}

func TestAssemble_FullWithoutCrossWorkspace(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	_, err := e.UpdateSettings(ctx, "ws-1", types.ContextSettingsUpdate{IncludeCrossWorkspace: ptr(false)})
	require.NoError(t, err)

	out, err := e.AssembleContext(ctx, "ws-1", "grants", "extra")
	require.NoError(t, err)
	assert.Equal(t, "extra", out.Text)
}

// Minimal mode does not suppress memory or suggestions; only the include
// flags gate those blocks.
func TestAssemble_MinimalModeKeepsHistoryAndSuggestions(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	_, err := e.UpdateSettings(ctx, "ws-1", types.ContextSettingsUpdate{ContextMode: ptr(types.ContextModeMinimal)})
	require.NoError(t, err)
	seedSummary(t, e, "ws-1", "grants")
	appendTurns(t, e, "ws-1", "grants", 1, baseTime.Add(-time.Hour), turnText)
	seedSuggestion(t, e, "ws-1", "Call donor", types.PriorityHigh)

	out, err := e.AssembleContext(ctx, "ws-1", "grants", "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(out.Text, "Workspace: ws-1"))
	assert.Contains(t, out.Text, "CONVERSATION MEMORY:")
	assert.Contains(t, out.Text, "RECENT CONVERSATION:")
	assert.Contains(t, out.Text, "PROACTIVE SUGGESTIONS:")
}

func TestAssemble_FlagsOffSuppressBlocks(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	_, err := e.UpdateSettings(ctx, "ws-1", types.ContextSettingsUpdate{
		IncludeConversationHistory: ptr(false),
		IncludeSuggestions:         ptr(false),
	})
	require.NoError(t, err)
	seedSummary(t, e, "ws-1", "grants")
	appendTurns(t, e, "ws-1", "grants", 3, baseTime.Add(-time.Hour), turnText)
	seedSuggestion(t, e, "ws-1", "Call donor", types.PriorityHigh)

	out, err := e.AssembleContext(ctx, "ws-1", "grants", "")
	require.NoError(t, err)
	assert.NotContains(t, out.Text, "CONVERSATION MEMORY")
	assert.NotContains(t, out.Text, "RECENT CONVERSATION")
	assert.NotContains(t, out.Text, "PROACTIVE SUGGESTIONS")
}

func TestAssemble_AtMostFiveSuggestions(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	for i := 0; i < 7; i++ {
		seedSuggestion(t, e, "ws-1", fmt.Sprintf("Suggestion %d", i), types.PriorityMedium)
	}

	out, err := e.AssembleContext(context.Background(), "ws-1", "grants", "")
	require.NoError(t, err)
	assert.Equal(t, 5, out.SuggestionCount)
	assert.Equal(t, 5, strings.Count(out.Text, "- [medium]"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "héllo", truncate("héllo", 5))
	assert.Len(t, []rune(truncate(strings.Repeat("é", 300), 200)), 200)
}
