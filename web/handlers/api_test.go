package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpcministries/ldc-command-center/internal/engine"
	"github.com/tpcministries/ldc-command-center/internal/llm"
	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/internal/storage/sqlite"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

const summaryReply = `{"summary": "Discussed the spring grant.", "key_topics": ["grant"], "key_decisions": [], "action_items": ["draft budget"]}`

// mockCompleter returns scripted replies in order.
type mockCompleter struct {
	mu        sync.Mutex
	responses []string
	calls     int
}

func (m *mockCompleter) Complete(ctx context.Context, system, input string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls >= len(m.responses) {
		return "", errors.New("mock completer: no more responses configured")
	}
	reply := m.responses[m.calls]
	m.calls++
	return reply, nil
}

func (m *mockCompleter) GetModel() string { return "mock-model" }

// newTestServer mounts the API over an engine backed by in-memory SQLite.
func newTestServer(t *testing.T, replies ...string) (*httptest.Server, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.NewStore(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	var oracle llm.Completer = &mockCompleter{responses: replies}
	e, err := engine.New(store, oracle, engine.DefaultConfig(), engine.WithClock(func() time.Time { return testNow }))
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewAPIHandlers(e, nil).Register(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, store
}

func doJSON(t *testing.T, srv *httptest.Server, method, path string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func appendTurn(t *testing.T, srv *httptest.Server, ws, agent string, role types.Role, content string, at time.Time) {
	t.Helper()
	resp := doJSON(t, srv, http.MethodPost, fmt.Sprintf("/api/workspaces/%s/agents/%s/turns", ws, agent), AppendTurnRequest{
		SessionID: "s-1", Role: role, Content: content, CreatedAt: &at,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAppendAndListTurns(t *testing.T) {
	srv, _ := newTestServer(t)

	appendTurn(t, srv, "ws-1", "grants", types.RoleUser, "When is the grant due?", testNow.Add(-2*time.Minute))
	appendTurn(t, srv, "ws-1", "grants", types.RoleAssistant, "March 14.", testNow.Add(-time.Minute))

	resp := doJSON(t, srv, http.MethodGet, "/api/workspaces/ws-1/agents/grants/turns?limit=10&days=1", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decode[TurnsResponse](t, resp)
	require.Equal(t, 2, body.Count)
	assert.Equal(t, "When is the grant due?", body.Turns[0].Content)
	assert.Equal(t, types.RoleAssistant, body.Turns[1].Role)
	assert.NotEmpty(t, body.Turns[0].ID)
}

func TestAppendTurn_InvalidRole(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/workspaces/ws-1/agents/grants/turns",
		AppendTurnRequest{SessionID: "s-1", Role: "system", Content: "hi"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	errResp := decode[ErrorResponse](t, resp)
	assert.Equal(t, "failed to append turn", errResp.Error)
	assert.Equal(t, "Bad Request", errResp.Code)
}

func TestAppendTurn_MalformedBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := srv.Client().Post(srv.URL+"/api/workspaces/ws-1/agents/grants/turns", "application/json",
		strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSummarizeFlow(t *testing.T) {
	srv, _ := newTestServer(t, summaryReply)

	resp := doJSON(t, srv, http.MethodGet, "/api/workspaces/ws-1/agents/grants/summary", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	for i := 0; i < 4; i++ {
		appendTurn(t, srv, "ws-1", "grants", types.RoleUser, fmt.Sprintf("turn %d", i), testNow.Add(-time.Duration(10-i)*time.Minute))
	}
	resp = doJSON(t, srv, http.MethodPost, "/api/workspaces/ws-1/agents/grants/summarize", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	skipped := decode[engine.SummaryResult](t, resp)
	assert.False(t, skipped.Produced)
	assert.Equal(t, engine.SummaryInsufficientTurns, skipped.Reason)

	appendTurn(t, srv, "ws-1", "grants", types.RoleAssistant, "turn 4", testNow.Add(-time.Minute))
	resp = doJSON(t, srv, http.MethodPost, "/api/workspaces/ws-1/agents/grants/summarize", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[engine.SummaryResult](t, resp)
	require.True(t, created.Produced)
	assert.Equal(t, 5, created.Summary.SourceMessageCount)

	resp = doJSON(t, srv, http.MethodGet, "/api/workspaces/ws-1/agents/grants/summary", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	latest := decode[types.MemorySummary](t, resp)
	assert.Equal(t, "Discussed the spring grant.", latest.Summary)

	resp = doJSON(t, srv, http.MethodGet, "/api/workspaces/ws-1/agents/grants/summaries", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[SummariesResponse](t, resp).Count)
}

func TestSettingsEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodGet, "/api/workspaces/ws-1/settings", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	defaults := decode[types.ContextSettings](t, resp)
	assert.Equal(t, types.ContextModeFull, defaults.ContextMode)

	resp = doJSON(t, srv, http.MethodPatch, "/api/workspaces/ws-1/settings", map[string]interface{}{
		"context_mode":        "focused",
		"custom_instructions": "Be brief.",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[types.ContextSettings](t, resp)
	assert.Equal(t, types.ContextModeFocused, updated.ContextMode)
	assert.Equal(t, "Be brief.", updated.CustomInstructions)
	assert.Equal(t, 50, updated.MaxHistoryMessages)

	resp = doJSON(t, srv, http.MethodPatch, "/api/workspaces/ws-1/settings", map[string]interface{}{
		"max_history_messages": 0,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPatch, "/api/workspaces/ws-1/settings", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestSuggestionEndpoints(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/workspaces/ws-1/suggestions", CreateSuggestionRequest{
		AgentType: "grants", Type: types.SuggestionReminder, Title: "Submit LOI", Content: "Due Friday", Priority: "high",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[types.Suggestion](t, resp)
	assert.Equal(t, types.StatusNew, created.Status)

	resp = doJSON(t, srv, http.MethodGet, "/api/workspaces/ws-1/suggestions", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[SuggestionsResponse](t, resp).Count)

	resp = doJSON(t, srv, http.MethodPost, "/api/suggestions/"+created.ID+"/status", MarkSuggestionRequest{Status: types.StatusSeen})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotNil(t, decode[types.Suggestion](t, resp).SeenAt)

	resp = doJSON(t, srv, http.MethodPost, "/api/suggestions/"+created.ID+"/status", MarkSuggestionRequest{Status: types.StatusActed})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/api/suggestions/"+created.ID+"/status", MarkSuggestionRequest{Status: types.StatusDismissed})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/api/suggestions/"+created.ID+"/status", MarkSuggestionRequest{Status: types.StatusNew})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodGet, "/api/suggestions/"+created.ID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, types.StatusActed, decode[types.Suggestion](t, resp).Status)

	resp = doJSON(t, srv, http.MethodGet, "/api/suggestions/missing", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodGet, "/api/workspaces/ws-1/suggestions?status=bogus", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGenerateSuggestions_NoSignals(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := doJSON(t, srv, http.MethodPost, "/api/workspaces/ws-1/suggestions/generate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[engine.GenerationResult](t, resp)
	assert.Empty(t, result.Suggestions)
	assert.NotEmpty(t, result.Message)
}

func TestGenerateSuggestions_FromSignals(t *testing.T) {
	reply := `[{"type": "reminder", "title": "Finish donor letters", "content": "Five days overdue.", "priority": "urgent", "trigger_reason": "overdue task"}]`
	srv, store := newTestServer(t, reply)

	_, err := store.DB().Exec(`INSERT INTO tasks (id, workspace_id, title, status, due_date) VALUES
		('t1', 'ws-1', 'Send thank-you letters to spring donors', 'todo', '2026-03-05')`)
	require.NoError(t, err)

	resp := doJSON(t, srv, http.MethodPost, "/api/workspaces/ws-1/suggestions/generate", GenerateSuggestionsRequest{AgentType: "grants"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[engine.GenerationResult](t, resp)
	require.Len(t, result.Suggestions, 1)
	assert.Equal(t, "grants", result.Suggestions[0].AgentType)
	assert.Equal(t, types.PriorityUrgent, result.Suggestions[0].Priority)
}

func TestAssembleContextEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)
	appendTurn(t, srv, "ws-1", "grants", types.RoleUser, "What's due this week?", testNow.Add(-time.Minute))

	resp := doJSON(t, srv, http.MethodPost, "/api/workspaces/ws-1/agents/grants/context",
		AssembleContextRequest{AdditionalContext: "User is viewing the grants board."})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assembled := decode[engine.AssembledContext](t, resp)
	assert.Contains(t, assembled.Text, "RECENT CONVERSATION:\nuser: What's due this week?")
	assert.True(t, strings.HasSuffix(assembled.Text, "User is viewing the grants board."))
	assert.Equal(t, 1, assembled.TurnCount)

	// The body is optional.
	resp = doJSON(t, srv, http.MethodPost, "/api/workspaces/ws-1/agents/grants/context", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _ := newTestServer(t)
	resp := doJSON(t, srv, http.MethodDelete, "/api/workspaces/ws-1/settings", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("wrapped: %w", storage.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: bad", storage.ErrInvalidInput), http.StatusBadRequest},
		{fmt.Errorf("%w: bad", storage.ErrInvalidStatus), http.StatusBadRequest},
		{storage.ErrTerminalStatus, http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusForError(tt.err), tt.err.Error())
	}
}

func TestRespondError_IncludesDetails(t *testing.T) {
	h := NewAPIHandlers(nil, nil)
	w := httptest.NewRecorder()

	h.respondError(w, http.StatusInternalServerError, "failed", errors.New("boom"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Error)
	assert.Equal(t, "boom", resp.Details["error"])
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 5, parseInt("", 5))
	assert.Equal(t, 5, parseInt("abc", 5))
	assert.Equal(t, 12, parseInt("12", 5))
}
