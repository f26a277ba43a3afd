package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, store *Store, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		_, err := store.DB().Exec(stmt)
		require.NoError(t, err, stmt)
	}
}

func TestSignals_Tasks(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	asOf := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	seed(t, store,
		`INSERT INTO tasks (id, workspace_id, title, status, due_date) VALUES
			('t1', 'ws', 'File 990', 'todo', '2026-03-01'),
			('t2', 'ws', 'Board packet', 'in_progress', '2026-03-09'),
			('t3', 'ws', 'Done already', 'done', '2026-03-02'),
			('t4', 'ws', 'Due today', 'todo', '2026-03-10'),
			('t5', 'ws', 'Due in a week', 'todo', '2026-03-17'),
			('t6', 'ws', 'Due later', 'todo', '2026-03-18'),
			('t7', 'other', 'Elsewhere', 'todo', '2026-03-01')`,
	)

	overdue, err := store.OverdueTasks(ctx, "ws", asOf)
	require.NoError(t, err)
	require.Len(t, overdue, 2)
	assert.Equal(t, "t1", overdue[0].ID)
	assert.Equal(t, "t2", overdue[1].ID)

	upcoming, err := store.UpcomingTasks(ctx, "ws", asOf, 7)
	require.NoError(t, err)
	require.Len(t, upcoming, 2)
	assert.Equal(t, "t4", upcoming[0].ID)
	assert.Equal(t, "t5", upcoming[1].ID)
	assert.Equal(t, 17, upcoming[1].DueDate.Day())
}

func TestSignals_OpportunitiesAndProposals(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	asOf := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	seed(t, store,
		`INSERT INTO opportunities (id, workspace_id, title, funder, status, deadline) VALUES
			('o1', 'ws', 'Youth grant', 'Lilly Endowment', 'tracking', '2026-03-12'),
			('o2', 'ws', 'Closed grant', NULL, 'declined', '2026-03-12'),
			('o3', 'ws', 'Far grant', NULL, 'tracking', '2026-05-01')`,
		`INSERT INTO proposals (id, workspace_id, title, status, deadline) VALUES
			('p1', 'ws', 'No deadline', 'draft', NULL),
			('p2', 'ws', 'Soon', 'review', '2026-03-20'),
			('p3', 'ws', 'Sooner', 'draft', '2026-03-15'),
			('p4', 'ws', 'Sent', 'submitted', '2026-03-11')`,
	)

	opps, err := store.UpcomingOpportunities(ctx, "ws", asOf, 7)
	require.NoError(t, err)
	require.Len(t, opps, 1)
	assert.Equal(t, "Lilly Endowment", opps[0].Funder)

	proposals, err := store.OpenProposals(ctx, "ws")
	require.NoError(t, err)
	require.Len(t, proposals, 3)
	assert.Equal(t, "p3", proposals[0].ID)
	assert.Equal(t, "p2", proposals[1].ID)
	assert.Equal(t, "p1", proposals[2].ID)
	assert.Nil(t, proposals[2].Deadline)
}

func TestSignals_ContactsAndActivity(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	seed(t, store,
		`INSERT INTO contacts (id, workspace_id, name, organization, relationship_status) VALUES
			('c1', 'ws', 'Ruth Park', 'First Baptist', 'cold'),
			('c2', 'ws', 'Sam Ode', NULL, 'at_risk'),
			('c3', 'ws', 'Happy Donor', NULL, 'warm')`,
	)
	for i, row := range []struct{ activity, entity string }{
		{"created", "task"}, {"created", "task"}, {"updated", "proposal"},
	} {
		_, err := store.DB().Exec(
			`INSERT INTO activity_log (id, workspace_id, activity_type, entity_type, created_at) VALUES (?, 'ws', ?, ?, ?)`,
			i, row.activity, row.entity, formatTime(now.Add(-time.Hour)))
		require.NoError(t, err)
	}
	_, err := store.DB().Exec(
		`INSERT INTO activity_log (id, workspace_id, activity_type, entity_type, created_at) VALUES ('old', 'ws', 'created', 'task', ?)`,
		formatTime(now.AddDate(0, 0, -30)))
	require.NoError(t, err)

	contacts, err := store.AtRiskContacts(ctx, "ws")
	require.NoError(t, err)
	assert.Len(t, contacts, 2)

	rollup, err := store.ActivityRollup(ctx, "ws", now.AddDate(0, 0, -7))
	require.NoError(t, err)
	require.Len(t, rollup, 2)
	assert.Equal(t, "created", rollup[0].ActivityType)
	assert.Equal(t, "task", rollup[0].EntityType)
	assert.Equal(t, 2, rollup[0].Count)
	assert.Equal(t, 1, rollup[1].Count)
}

func TestSignals_EmptyWorkspace(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	tasks, err := store.OverdueTasks(ctx, "nobody", time.Now())
	require.NoError(t, err)
	assert.Empty(t, tasks)

	contacts, err := store.AtRiskContacts(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, contacts)
}
