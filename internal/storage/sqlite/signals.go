package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// OverdueTasks returns open tasks due before asOf's calendar date.
func (s *Store) OverdueTasks(ctx context.Context, workspaceID string, asOf time.Time) ([]types.TaskSignal, error) {
	in, args := inClause(storage.OpenTaskStatuses)
	query := `
		SELECT id, title, status, due_date, assigned_to
		FROM tasks
		WHERE workspace_id = ? AND due_date IS NOT NULL AND due_date < ?
			AND status IN (` + in + `)
		ORDER BY due_date ASC`
	return s.queryTasks(ctx, query, append([]interface{}{workspaceID, asOf.Format(storage.DateLayout)}, args...)...)
}

// UpcomingTasks returns open tasks due within days of asOf, inclusive.
func (s *Store) UpcomingTasks(ctx context.Context, workspaceID string, asOf time.Time, days int) ([]types.TaskSignal, error) {
	in, args := inClause(storage.OpenTaskStatuses)
	query := `
		SELECT id, title, status, due_date, assigned_to
		FROM tasks
		WHERE workspace_id = ? AND due_date >= ? AND due_date <= ?
			AND status IN (` + in + `)
		ORDER BY due_date ASC`
	return s.queryTasks(ctx, query, append([]interface{}{
		workspaceID,
		asOf.Format(storage.DateLayout),
		asOf.AddDate(0, 0, days).Format(storage.DateLayout),
	}, args...)...)
}

func (s *Store) queryTasks(ctx context.Context, query string, args ...interface{}) ([]types.TaskSignal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []types.TaskSignal
	for rows.Next() {
		var (
			t        types.TaskSignal
			due      string
			assignee sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.Title, &t.Status, &due, &assignee); err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		if t.DueDate, err = parseDate(due); err != nil {
			return nil, err
		}
		t.AssignedTo = assignee.String
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpcomingOpportunities returns tracked opportunities with deadlines within days of asOf.
func (s *Store) UpcomingOpportunities(ctx context.Context, workspaceID string, asOf time.Time, days int) ([]types.OpportunitySignal, error) {
	in, args := inClause(storage.ClosedOpportunityStatuses)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, funder, status, deadline
		FROM opportunities
		WHERE workspace_id = ? AND deadline >= ? AND deadline <= ?
			AND status NOT IN (`+in+`)
		ORDER BY deadline ASC`,
		append([]interface{}{
			workspaceID,
			asOf.Format(storage.DateLayout),
			asOf.AddDate(0, 0, days).Format(storage.DateLayout),
		}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query opportunities: %w", err)
	}
	defer rows.Close()

	var opps []types.OpportunitySignal
	for rows.Next() {
		var (
			o        types.OpportunitySignal
			funder   sql.NullString
			deadline string
		)
		if err := rows.Scan(&o.ID, &o.Title, &funder, &o.Status, &deadline); err != nil {
			return nil, fmt.Errorf("failed to scan opportunity: %w", err)
		}
		if o.Deadline, err = parseDate(deadline); err != nil {
			return nil, err
		}
		o.Funder = funder.String
		opps = append(opps, o)
	}
	return opps, rows.Err()
}

// OpenProposals returns proposals in a non-terminal status, earliest deadline
// first. Proposals without a deadline sort last.
func (s *Store) OpenProposals(ctx context.Context, workspaceID string) ([]types.ProposalSignal, error) {
	in, args := inClause(storage.TerminalProposalStatuses)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, status, deadline
		FROM proposals
		WHERE workspace_id = ? AND status NOT IN (`+in+`)
		ORDER BY deadline IS NULL, deadline ASC`,
		append([]interface{}{workspaceID}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	var proposals []types.ProposalSignal
	for rows.Next() {
		var (
			p        types.ProposalSignal
			deadline sql.NullString
		)
		if err := rows.Scan(&p.ID, &p.Title, &p.Status, &deadline); err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		if deadline.Valid && deadline.String != "" {
			d, err := parseDate(deadline.String)
			if err != nil {
				return nil, err
			}
			p.Deadline = &d
		}
		proposals = append(proposals, p)
	}
	return proposals, rows.Err()
}

// AtRiskContacts returns contacts whose relationship is flagged cold or at_risk.
func (s *Store) AtRiskContacts(ctx context.Context, workspaceID string) ([]types.ContactSignal, error) {
	in, args := inClause(storage.AtRiskRelationshipStatuses)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, organization, relationship_status, last_contacted_at
		FROM contacts
		WHERE workspace_id = ? AND relationship_status IN (`+in+`)
		ORDER BY last_contacted_at IS NULL DESC, last_contacted_at ASC`,
		append([]interface{}{workspaceID}, args...)...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []types.ContactSignal
	for rows.Next() {
		var (
			c         types.ContactSignal
			org, last sql.NullString
		)
		if err := rows.Scan(&c.ID, &c.Name, &org, &c.RelationshipStatus, &last); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		c.Organization = org.String
		if c.LastContactedAt, err = parseNullTime(last); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

// ActivityRollup counts activity-log entries since the given time.
func (s *Store) ActivityRollup(ctx context.Context, workspaceID string, since time.Time) ([]types.ActivityCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT activity_type, entity_type, COUNT(*)
		FROM activity_log
		WHERE workspace_id = ? AND created_at >= ?
		GROUP BY activity_type, entity_type
		ORDER BY COUNT(*) DESC, activity_type, entity_type`,
		workspaceID, formatTime(since),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query activity log: %w", err)
	}
	defer rows.Close()

	var counts []types.ActivityCount
	for rows.Next() {
		var c types.ActivityCount
		if err := rows.Scan(&c.ActivityType, &c.EntityType, &c.Count); err != nil {
			return nil, fmt.Errorf("failed to scan activity count: %w", err)
		}
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func parseDate(v string) (time.Time, error) {
	if len(v) > len(storage.DateLayout) {
		v = v[:len(storage.DateLayout)]
	}
	t, err := time.Parse(storage.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", v, err)
	}
	return t, nil
}
