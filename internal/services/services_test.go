package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tpcministries/ldc-command-center/internal/storage/sqlite"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.NewStore(":memory:", nil)
	require.NoError(t, err, "failed to create test store")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// fixedClock returns a clock that advances by step on every call.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	current := start
	return func() time.Time {
		t := current
		current = current.Add(step)
		return t
	}
}

// countingSettingsStore counts reads so tests can observe cache hits.
type countingSettingsStore struct {
	*sqlite.Store
	reads int
}

func (c *countingSettingsStore) GetSettings(ctx context.Context, workspaceID string) (*types.ContextSettings, error) {
	c.reads++
	return c.Store.GetSettings(ctx, workspaceID)
}

func ptr[T any](v T) *T { return &v }

// suggestionWriteStore counts status writes and can serve a stale status on
// read to simulate a transition racing between the read and the write.
type suggestionWriteStore struct {
	*sqlite.Store
	writes      int
	staleStatus types.SuggestionStatus
}

func (s *suggestionWriteStore) GetSuggestion(ctx context.Context, id string) (*types.Suggestion, error) {
	sg, err := s.Store.GetSuggestion(ctx, id)
	if err != nil || s.staleStatus == "" {
		return sg, err
	}
	sg.Status = s.staleStatus
	return sg, nil
}

func (s *suggestionWriteStore) SetSuggestionStatus(ctx context.Context, id string, status types.SuggestionStatus, at time.Time) error {
	s.writes++
	return s.Store.SetSuggestionStatus(ctx, id, status, at)
}
