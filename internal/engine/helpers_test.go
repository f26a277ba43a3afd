package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tpcministries/ldc-command-center/internal/llm"
	"github.com/tpcministries/ldc-command-center/internal/storage/sqlite"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// baseTime anchors every test clock.
var baseTime = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return baseTime }

// mockCompleter is a scripted llm.Completer.
type mockCompleter struct {
	mu        sync.Mutex
	responses []string // responses to return in order
	errors    []error  // errors to return in order (nil for success)
	block     bool     // wait for ctx cancellation instead of answering
	calls     int
	inputs    []string
	model     string
}

func newMockCompleter(responses ...string) *mockCompleter {
	return &mockCompleter{responses: responses, model: "mock-model"}
}

func (m *mockCompleter) Complete(ctx context.Context, system, input string) (string, error) {
	m.mu.Lock()
	idx := m.calls
	m.calls++
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()

	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if idx < len(m.errors) && m.errors[idx] != nil {
		return "", m.errors[idx]
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return "", errors.New("mock completer: no more responses configured")
}

func (m *mockCompleter) GetModel() string { return m.model }

func (m *mockCompleter) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *mockCompleter) lastInput() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inputs) == 0 {
		return ""
	}
	return m.inputs[len(m.inputs)-1]
}

// newTestStore creates an in-memory SQLite store for testing.
func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.NewStore(":memory:", nil)
	require.NoError(t, err, "failed to create test store")
	t.Cleanup(func() { _ = store.Close() })
	return store
}

// newTestEngine wires an Engine over a fresh store with a fixed clock.
func newTestEngine(t *testing.T, oracle *mockCompleter, mutate ...func(*Config)) (*Engine, *sqlite.Store) {
	t.Helper()
	store := newTestStore(t)
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}

	var completer llm.Completer
	if oracle != nil {
		completer = oracle
	}

	e, err := New(store, completer, cfg, WithClock(fixedNow))
	require.NoError(t, err)
	return e, store
}

// appendTurns stores n alternating user/assistant turns one minute apart,
// ending at end.
func appendTurns(t *testing.T, e *Engine, ws, agent string, n int, end time.Time, content func(i int) string) {
	t.Helper()
	for i := 0; i < n; i++ {
		role := types.RoleUser
		if i%2 == 1 {
			role = types.RoleAssistant
		}
		_, err := e.AppendTurn(context.Background(), &types.ConversationTurn{
			WorkspaceID: ws,
			AgentType:   agent,
			SessionID:   "session-1",
			Role:        role,
			Content:     content(i),
			CreatedAt:   end.Add(time.Duration(i-n+1) * time.Minute),
		})
		require.NoError(t, err)
	}
}

// fakeSignals is a SignalSource backed by fixed slices.
type fakeSignals struct {
	overdue       []types.TaskSignal
	upcoming      []types.TaskSignal
	opportunities []types.OpportunitySignal
	proposals     []types.ProposalSignal
	contacts      []types.ContactSignal
	activity      []types.ActivityCount
	failAll       error
}

func (f *fakeSignals) OverdueTasks(context.Context, string, time.Time) ([]types.TaskSignal, error) {
	return f.overdue, f.failAll
}

func (f *fakeSignals) UpcomingTasks(context.Context, string, time.Time, int) ([]types.TaskSignal, error) {
	return f.upcoming, f.failAll
}

func (f *fakeSignals) UpcomingOpportunities(context.Context, string, time.Time, int) ([]types.OpportunitySignal, error) {
	return f.opportunities, f.failAll
}

func (f *fakeSignals) OpenProposals(context.Context, string) ([]types.ProposalSignal, error) {
	return f.proposals, f.failAll
}

func (f *fakeSignals) AtRiskContacts(context.Context, string) ([]types.ContactSignal, error) {
	// Contacts never fail so partial-failure tests keep one category.
	return f.contacts, nil
}

func (f *fakeSignals) ActivityRollup(context.Context, string, time.Time) ([]types.ActivityCount, error) {
	return f.activity, f.failAll
}

func overdueTasks(n int) []types.TaskSignal {
	tasks := make([]types.TaskSignal, 0, n)
	for i := 0; i < n; i++ {
		tasks = append(tasks, types.TaskSignal{
			ID:      "task-" + string(rune('a'+i)),
			Title:   "Submit quarterly donor report " + string(rune('A'+i)),
			Status:  "todo",
			DueDate: baseTime.AddDate(0, 0, -(i + 2)),
		})
	}
	return tasks
}
