package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// The collections queried here belong to other subsystems. A missing table
// yields no signals rather than an error.

// OverdueTasks returns open tasks due before asOf's calendar date.
func (s *Store) OverdueTasks(ctx context.Context, workspaceID string, asOf time.Time) ([]types.TaskSignal, error) {
	return s.queryTasks(ctx, `
		SELECT id, title, status, due_date, assigned_to
		FROM tasks
		WHERE workspace_id = $1 AND due_date < $2::date AND status = ANY($3)
		ORDER BY due_date ASC`,
		workspaceID, asOf.Format(storage.DateLayout), pq.Array(storage.OpenTaskStatuses),
	)
}

// UpcomingTasks returns open tasks due within days of asOf, inclusive.
func (s *Store) UpcomingTasks(ctx context.Context, workspaceID string, asOf time.Time, days int) ([]types.TaskSignal, error) {
	return s.queryTasks(ctx, `
		SELECT id, title, status, due_date, assigned_to
		FROM tasks
		WHERE workspace_id = $1 AND due_date BETWEEN $2::date AND $3::date AND status = ANY($4)
		ORDER BY due_date ASC`,
		workspaceID, asOf.Format(storage.DateLayout),
		asOf.AddDate(0, 0, days).Format(storage.DateLayout), pq.Array(storage.OpenTaskStatuses),
	)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...interface{}) ([]types.TaskSignal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []types.TaskSignal
	for rows.Next() {
		var (
			t        types.TaskSignal
			assignee sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &t.DueDate, &assignee); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan task: %w", err)
		}
		t.AssignedTo = assignee.String
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpcomingOpportunities returns tracked opportunities with deadlines within days of asOf.
func (s *Store) UpcomingOpportunities(ctx context.Context, workspaceID string, asOf time.Time, days int) ([]types.OpportunitySignal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, funder, status, deadline
		FROM opportunities
		WHERE workspace_id = $1 AND deadline BETWEEN $2::date AND $3::date
			AND NOT (status = ANY($4))
		ORDER BY deadline ASC`,
		workspaceID, asOf.Format(storage.DateLayout),
		asOf.AddDate(0, 0, days).Format(storage.DateLayout),
		pq.Array(storage.ClosedOpportunityStatuses),
	)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var opps []types.OpportunitySignal
	for rows.Next() {
		var (
			o      types.OpportunitySignal
			funder sql.NullString
		)
		if err := rows.Scan(&o.ID, &o.Title, &funder, &o.Status, &o.Deadline); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan opportunity: %w", err)
		}
		o.Funder = funder.String
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

// OpenProposals returns proposals in a non-terminal status, earliest deadline first.
func (s *Store) OpenProposals(ctx context.Context, workspaceID string) ([]types.ProposalSignal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, status, deadline
		FROM proposals
		WHERE workspace_id = $1 AND NOT (status = ANY($2))
		ORDER BY deadline ASC NULLS LAST`,
		workspaceID, pq.Array(storage.TerminalProposalStatuses),
	)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query proposals: %w", err)
	}
	defer rows.Close()

	var proposals []types.ProposalSignal
	for rows.Next() {
		var (
			p        types.ProposalSignal
			deadline sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Status, &deadline); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan proposal: %w", err)
		}
		p.Deadline = timePtr(deadline)
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

// AtRiskContacts returns contacts whose relationship is flagged cold or at_risk.
func (s *Store) AtRiskContacts(ctx context.Context, workspaceID string) ([]types.ContactSignal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, organization, relationship_status, last_contacted_at
		FROM contacts
		WHERE workspace_id = $1 AND relationship_status = ANY($2)
		ORDER BY last_contacted_at ASC NULLS FIRST`,
		workspaceID, pq.Array(storage.AtRiskRelationshipStatuses),
	)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []types.ContactSignal
	for rows.Next() {
		var (
			c    types.ContactSignal
			org  sql.NullString
			last sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.Name, &org, &c.RelationshipStatus, &last); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan contact: %w", err)
		}
		c.Organization = org.String
		c.LastContactedAt = timePtr(last)
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ActivityRollup counts activity-log entries since the given time.
func (s *Store) ActivityRollup(ctx context.Context, workspaceID string, since time.Time) ([]types.ActivityCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT activity_type, entity_type, COUNT(*)
		FROM activity_log
		WHERE workspace_id = $1 AND created_at >= $2
		GROUP BY activity_type, entity_type
		ORDER BY COUNT(*) DESC, activity_type, entity_type`,
		workspaceID, since.UTC(),
	)
	if isUndefinedTable(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query activity log: %w", err)
	}
	defer rows.Close()

	var counts []types.ActivityCount
	for rows.Next() {
		var c types.ActivityCount
		if err := rows.Scan(&c.ActivityType, &c.EntityType, &c.Count); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan activity count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}
