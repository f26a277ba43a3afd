package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

func newSuggestion(ws, title string, priority types.Priority, createdAt time.Time) *types.Suggestion {
	return &types.Suggestion{
		ID:          uuid.NewString(),
		WorkspaceID: ws,
		AgentType:   "grants",
		Type:        types.SuggestionReminder,
		Title:       title,
		Content:     "content for " + title,
		Priority:    priority,
		Status:      types.StatusNew,
		CreatedAt:   createdAt,
	}
}

func TestListSuggestions_PriorityOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	for i, p := range []types.Priority{types.PriorityLow, types.PriorityUrgent, types.PriorityMedium, types.PriorityHigh} {
		sg := newSuggestion("ws", string(p), p, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.CreateSuggestion(ctx, sg))
	}

	got, err := store.ListSuggestions(ctx, "ws", storage.SuggestionQuery{})
	require.NoError(t, err)
	require.Len(t, got, 4)

	var order []types.Priority
	for _, sg := range got {
		order = append(order, sg.Priority)
	}
	assert.Equal(t, []types.Priority{types.PriorityUrgent, types.PriorityHigh, types.PriorityMedium, types.PriorityLow}, order)
}

func TestListSuggestions_TieBreakNewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	base := time.Now().Add(-time.Hour)

	require.NoError(t, store.CreateSuggestion(ctx, newSuggestion("ws", "older", types.PriorityHigh, base)))
	require.NoError(t, store.CreateSuggestion(ctx, newSuggestion("ws", "newer", types.PriorityHigh, base.Add(time.Minute))))

	got, err := store.ListSuggestions(ctx, "ws", storage.SuggestionQuery{Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "newer", got[0].Title)
}

func TestListSuggestions_ExcludesExpired(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(24 * time.Hour)

	expired := newSuggestion("ws", "expired", types.PriorityUrgent, now.Add(-time.Hour))
	expired.ExpiresAt = &past
	live := newSuggestion("ws", "live", types.PriorityLow, now.Add(-time.Hour))
	live.ExpiresAt = &future
	open := newSuggestion("ws", "no expiry", types.PriorityMedium, now.Add(-time.Hour))

	for _, sg := range []*types.Suggestion{expired, live, open} {
		require.NoError(t, store.CreateSuggestion(ctx, sg))
	}

	got, err := store.ListSuggestions(ctx, "ws", storage.SuggestionQuery{Status: types.StatusNew, Now: now})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "no expiry", got[0].Title)
	assert.Equal(t, "live", got[1].Title)

	// The expired row still exists with status new.
	stored, err := store.GetSuggestion(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusNew, stored.Status)
}

func TestListSuggestions_AgentFilter(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	a := newSuggestion("ws", "grants one", types.PriorityHigh, time.Now())
	b := newSuggestion("ws", "crm one", types.PriorityHigh, time.Now())
	b.AgentType = "crm"
	require.NoError(t, store.CreateSuggestion(ctx, a))
	require.NoError(t, store.CreateSuggestion(ctx, b))

	got, err := store.ListSuggestions(ctx, "ws", storage.SuggestionQuery{AgentType: "crm"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "crm one", got[0].Title)
}

func TestSuggestion_RoundTripOptionalFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sg := newSuggestion("ws", "Follow up with funder", types.PriorityHigh, time.Now())
	sg.TriggerReason = "deadline in 2 days"
	sg.RelatedEntity = &types.RelatedEntity{Type: "opportunity", ID: "opp-1"}
	sg.Action = &types.SuggestionAction{Type: "open_entity", Parameters: map[string]interface{}{"tab": "tasks"}}
	sg.DedupeKey = "abc"
	require.NoError(t, store.CreateSuggestion(ctx, sg))

	got, err := store.GetSuggestion(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, "deadline in 2 days", got.TriggerReason)
	require.NotNil(t, got.RelatedEntity)
	assert.Equal(t, "opp-1", got.RelatedEntity.ID)
	require.NotNil(t, got.Action)
	assert.Equal(t, "open_entity", got.Action.Type)
	assert.Equal(t, "tasks", got.Action.Parameters["tab"])
	assert.Equal(t, "abc", got.DedupeKey)
	assert.Nil(t, got.SeenAt)

	_, err = store.GetSuggestion(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSetSuggestionStatus_StampsMatchingTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sg := newSuggestion("ws", "t", types.PriorityLow, time.Now())
	require.NoError(t, store.CreateSuggestion(ctx, sg))

	at := time.Now().UTC()
	require.NoError(t, store.SetSuggestionStatus(ctx, sg.ID, types.StatusSeen, at))

	got, err := store.GetSuggestion(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusSeen, got.Status)
	require.NotNil(t, got.SeenAt)
	assert.True(t, got.SeenAt.Equal(at))
	assert.Nil(t, got.ActedAt)
	assert.Nil(t, got.DismissedAt)
}

func TestSetSuggestionStatus_TerminalIsFinal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	sg := newSuggestion("ws", "t", types.PriorityLow, time.Now())
	require.NoError(t, store.CreateSuggestion(ctx, sg))

	require.NoError(t, store.SetSuggestionStatus(ctx, sg.ID, types.StatusActed, time.Now()))

	err := store.SetSuggestionStatus(ctx, sg.ID, types.StatusDismissed, time.Now())
	assert.ErrorIs(t, err, storage.ErrTerminalStatus)

	got, err := store.GetSuggestion(ctx, sg.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusActed, got.Status)
	assert.NotNil(t, got.ActedAt)
	assert.Nil(t, got.DismissedAt)
}

func TestSetSuggestionStatus_EveryTerminalStatusIsFinal(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, terminal := range types.TerminalSuggestionStatuses {
		t.Run(string(terminal), func(t *testing.T) {
			sg := newSuggestion("ws", "t-"+string(terminal), types.PriorityLow, time.Now())
			require.NoError(t, store.CreateSuggestion(ctx, sg))
			require.NoError(t, store.SetSuggestionStatus(ctx, sg.ID, terminal, time.Now()))

			err := store.SetSuggestionStatus(ctx, sg.ID, types.StatusSeen, time.Now())
			assert.ErrorIs(t, err, storage.ErrTerminalStatus)

			got, err := store.GetSuggestion(ctx, sg.ID)
			require.NoError(t, err)
			assert.Equal(t, terminal, got.Status)
			assert.Nil(t, got.SeenAt)
		})
	}
}

func TestSetSuggestionStatus_Errors(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	err := store.SetSuggestionStatus(ctx, "missing", types.StatusSeen, time.Now())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.SetSuggestionStatus(ctx, "missing", types.StatusNew, time.Now())
	assert.ErrorIs(t, err, storage.ErrInvalidStatus)
}

func TestHasRecentSuggestion(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	sg := newSuggestion("ws", "t", types.PriorityLow, now.Add(-2*time.Hour))
	sg.DedupeKey = "key-1"
	require.NoError(t, store.CreateSuggestion(ctx, sg))

	found, err := store.HasRecentSuggestion(ctx, "ws", "key-1", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.True(t, found)

	found, err = store.HasRecentSuggestion(ctx, "ws", "key-1", now.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, found)

	found, err = store.HasRecentSuggestion(ctx, "other", "key-1", now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.False(t, found)
}
