package engine

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpcministries/ldc-command-center/internal/metrics"
	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, nil, DefaultConfig())
	assert.Error(t, err)

	cfg := DefaultConfig()
	cfg.OracleTimeout = 0
	_, err = New(newTestStore(t), nil, cfg)
	assert.Error(t, err)
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	bad := []func(*Config){
		func(c *Config) { c.SummaryWindow = 0 },
		func(c *Config) { c.SummaryMinTurns = 0 },
		func(c *Config) { c.SummaryFetchLimit = 1 },
		func(c *Config) { c.SignalHorizonDays = 0 },
		func(c *Config) { c.ActivityWindow = 0 },
		func(c *Config) { c.MinSignalChars = -1 },
		func(c *Config) { c.DedupeWindow = -time.Hour },
	}
	for i, mutate := range bad {
		c := DefaultConfig()
		mutate(&c)
		assert.Error(t, c.Validate(), "case %d", i)
	}
}

func TestAppendTurn_AssignsIdentity(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	turn, err := e.AppendTurn(context.Background(), &types.ConversationTurn{
		WorkspaceID: "ws-1",
		AgentType:   "grants",
		SessionID:   "s-1",
		Role:        types.RoleUser,
		Content:     "hello",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, turn.ID)
	assert.Equal(t, baseTime, turn.CreatedAt)
}

func TestAppendTurn_Validation(t *testing.T) {
	e, _ := newTestEngine(t, nil)

	_, err := e.AppendTurn(context.Background(), &types.ConversationTurn{
		WorkspaceID: "ws-1", AgentType: "grants", SessionID: "s-1", Role: "system", Content: "x",
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = e.AppendTurn(context.Background(), nil)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestRecentTurns_OrderedWithinSession(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	// Identical timestamps keep insertion order.
	for _, content := range []string{"first", "second", "third"} {
		_, err := e.AppendTurn(ctx, &types.ConversationTurn{
			WorkspaceID: "ws-1", AgentType: "grants", SessionID: "s-1",
			Role: types.RoleUser, Content: content, CreatedAt: baseTime.Add(-time.Minute),
		})
		require.NoError(t, err)
	}

	turns, err := e.RecentTurns(ctx, "ws-1", "grants", storage.TurnQuery{SessionID: "s-1", DaysBack: 1})
	require.NoError(t, err)
	require.Len(t, turns, 3)
	assert.Equal(t, "first", turns[0].Content)
	assert.Equal(t, "third", turns[2].Content)
	for i := 1; i < len(turns); i++ {
		assert.False(t, turns[i].CreatedAt.Before(turns[i-1].CreatedAt))
	}

	_, err = e.RecentTurns(ctx, "", "grants", storage.TurnQuery{})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestLatestSummary_NotFound(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	_, err := e.LatestSummary(context.Background(), "ws-1", "grants")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSettings_DefaultsAndUpdate(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	defaults, err := e.GetSettings(ctx, "ws-new")
	require.NoError(t, err)
	assert.Equal(t, types.ContextModeFull, defaults.ContextMode)
	assert.True(t, defaults.IncludeCrossWorkspace)
	assert.True(t, defaults.IncludeConversationHistory)
	assert.True(t, defaults.IncludeSuggestions)
	assert.Equal(t, 50, defaults.MaxHistoryMessages)
	assert.Equal(t, 30, defaults.MaxHistoryDays)

	updated, err := e.UpdateSettings(ctx, "ws-new", types.ContextSettingsUpdate{MaxHistoryDays: ptr(5)})
	require.NoError(t, err)
	assert.Equal(t, 5, updated.MaxHistoryDays)
	assert.Equal(t, baseTime, updated.UpdatedAt)
}

func TestSuggestionLifecycle(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()

	var ids []string
	for _, p := range []types.Priority{types.PriorityLow, types.PriorityUrgent, types.PriorityMedium, types.PriorityHigh} {
		s, err := e.CreateSuggestion(ctx, "ws-1", &types.Suggestion{Title: string(p) + " item", Priority: p})
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	list, err := e.ListSuggestions(ctx, "ws-1", storage.SuggestionQuery{})
	require.NoError(t, err)
	require.Len(t, list, 4)
	got := []types.Priority{list[0].Priority, list[1].Priority, list[2].Priority, list[3].Priority}
	assert.Equal(t, []types.Priority{types.PriorityUrgent, types.PriorityHigh, types.PriorityMedium, types.PriorityLow}, got)

	acted, err := e.MarkSuggestion(ctx, ids[0], types.StatusActed)
	require.NoError(t, err)
	assert.Equal(t, baseTime, *acted.ActedAt)

	_, err = e.MarkSuggestion(ctx, ids[0], types.StatusDismissed)
	assert.ErrorIs(t, err, storage.ErrTerminalStatus)

	still, err := e.GetSuggestion(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, types.StatusActed, still.Status)
}

func TestSuggestionExpiryFiltering(t *testing.T) {
	e, _ := newTestEngine(t, nil)
	ctx := context.Background()
	past := baseTime.Add(-time.Hour)

	_, err := e.CreateSuggestion(ctx, "ws-1", &types.Suggestion{Title: "Expired", ExpiresAt: &past})
	require.NoError(t, err)

	list, err := e.ListSuggestions(ctx, "ws-1", storage.SuggestionQuery{Status: types.StatusNew})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSummarizeActive(t *testing.T) {
	oracle := newMockCompleter(validSummaryReply, validSummaryReply)
	e, _ := newTestEngine(t, oracle)
	ctx := context.Background()

	appendTurns(t, e, "ws-1", "grants", 5, baseTime.Add(-time.Hour), turnText)
	appendTurns(t, e, "ws-1", "crm", 2, baseTime.Add(-time.Hour), turnText)
	appendTurns(t, e, "ws-2", "grants", 6, baseTime.Add(-2*time.Hour), turnText)

	created, err := e.SummarizeActive(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 2, oracle.callCount())
}

func TestSuggestActive(t *testing.T) {
	oracle := newMockCompleter(twoSuggestionsReply)
	e, store := newTestEngine(t, oracle)
	ctx := context.Background()

	_, err := store.DB().Exec(`INSERT INTO tasks (id, workspace_id, title, status, due_date) VALUES
		('t1', 'ws-1', 'Send thank-you letters to spring donors', 'todo', '2026-03-05')`)
	require.NoError(t, err)

	appendTurns(t, e, "ws-1", "grants", 1, baseTime.Add(-time.Hour), turnText)
	appendTurns(t, e, "ws-1", "crm", 1, baseTime.Add(-time.Hour), turnText)
	appendTurns(t, e, "ws-quiet", "grants", 1, baseTime.Add(-time.Hour), turnText)

	created, err := e.SuggestActive(ctx, "proactive")
	require.NoError(t, err)
	assert.Equal(t, 2, created)
	assert.Equal(t, 1, oracle.callCount(), "ws-quiet has no signals and each workspace runs once")

	list, err := e.ListSuggestions(ctx, "ws-1", storage.SuggestionQuery{AgentType: "proactive"})
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestEngine_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	store := newTestStore(t)
	oracle := newMockCompleter(validSummaryReply)

	e, err := New(store, oracle, DefaultConfig(), WithClock(fixedNow), WithMetrics(m))
	require.NoError(t, err)
	ctx := context.Background()

	appendTurns(t, e, "ws-1", "grants", 5, baseTime.Add(-time.Hour), turnText)
	_, err = e.SummarizeIfDue(ctx, "ws-1", "grants")
	require.NoError(t, err)
	_, err = e.AssembleContext(ctx, "ws-1", "grants", "")
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Summaries.WithLabelValues("created")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OracleRequests.WithLabelValues("summarize", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ContextAssemblies.WithLabelValues("full")))
}
