package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// ClassifyDeadline buckets a deadline by whole calendar days from asOf:
// overdue or within 1 day is critical, within 3 high, within 7 medium,
// within 14 low. Anything later returns UrgencyNone.
func ClassifyDeadline(deadline, asOf time.Time) types.Urgency {
	days := DaysUntil(deadline, asOf)
	switch {
	case days <= 1:
		return types.UrgencyCritical
	case days <= 3:
		return types.UrgencyHigh
	case days <= 7:
		return types.UrgencyMedium
	case days <= 14:
		return types.UrgencyLow
	default:
		return types.UrgencyNone
	}
}

// DaysUntil returns the number of calendar days from asOf's date to the
// deadline's date. Negative values mean the deadline has passed.
func DaysUntil(deadline, asOf time.Time) int {
	d := civilDate(deadline)
	a := civilDate(asOf)
	return int(d.Sub(a).Hours() / 24)
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SignalSnapshot is everything the generator collected for one workspace.
type SignalSnapshot struct {
	OverdueTasks  []types.TaskSignal
	UpcomingTasks []types.TaskSignal
	Opportunities []types.OpportunitySignal
	Proposals     []types.ProposalSignal
	Contacts      []types.ContactSignal
	Activity      []types.ActivityCount
}

// IsEmpty reports whether no category has any records.
func (s *SignalSnapshot) IsEmpty() bool {
	return len(s.OverdueTasks) == 0 && len(s.UpcomingTasks) == 0 &&
		len(s.Opportunities) == 0 && len(s.Proposals) == 0 &&
		len(s.Contacts) == 0 && len(s.Activity) == 0
}

// collectSignals queries every signal category. A failing category is
// logged and left empty; a nil source yields an empty snapshot.
func collectSignals(ctx context.Context, src storage.SignalSource, workspaceID string, asOf time.Time, cfg Config, logger *slog.Logger) *SignalSnapshot {
	snap := &SignalSnapshot{}
	if src == nil {
		return snap
	}

	warn := func(category string, err error) {
		logger.Warn("signal source failed", "workspace_id", workspaceID, "category", category, "error", err)
	}

	var err error
	if snap.OverdueTasks, err = src.OverdueTasks(ctx, workspaceID, asOf); err != nil {
		warn("overdue_tasks", err)
		snap.OverdueTasks = nil
	}
	if snap.UpcomingTasks, err = src.UpcomingTasks(ctx, workspaceID, asOf, cfg.SignalHorizonDays); err != nil {
		warn("upcoming_tasks", err)
		snap.UpcomingTasks = nil
	}
	if snap.Opportunities, err = src.UpcomingOpportunities(ctx, workspaceID, asOf, cfg.SignalHorizonDays); err != nil {
		warn("opportunities", err)
		snap.Opportunities = nil
	}
	if snap.Proposals, err = src.OpenProposals(ctx, workspaceID); err != nil {
		warn("proposals", err)
		snap.Proposals = nil
	}
	if snap.Contacts, err = src.AtRiskContacts(ctx, workspaceID); err != nil {
		warn("contacts", err)
		snap.Contacts = nil
	}
	if snap.Activity, err = src.ActivityRollup(ctx, workspaceID, asOf.Add(-cfg.ActivityWindow)); err != nil {
		warn("activity", err)
		snap.Activity = nil
	}
	return snap
}

// Render writes each non-empty category as a labeled block. Deadlines are
// tagged with their urgency; proposals due more than 14 days out are left
// out of the proposal block.
func (s *SignalSnapshot) Render(asOf time.Time) string {
	var blocks []string

	if lines := renderTasks(s.OverdueTasks, asOf); len(lines) > 0 {
		blocks = append(blocks, block(fmt.Sprintf("OVERDUE TASKS (%d)", len(lines)), lines))
	}
	if lines := renderTasks(s.UpcomingTasks, asOf); len(lines) > 0 {
		blocks = append(blocks, block("TASKS DUE SOON", lines))
	}

	var opps []string
	for _, o := range s.Opportunities {
		u := ClassifyDeadline(o.Deadline, asOf)
		if u == types.UrgencyNone {
			continue
		}
		line := fmt.Sprintf("- [%s] %s (id: %s, deadline %s, %s", u, o.Title, o.ID,
			o.Deadline.Format(storage.DateLayout), relativeDays(DaysUntil(o.Deadline, asOf)))
		if o.Funder != "" {
			line += ", funder " + o.Funder
		}
		opps = append(opps, line+")")
	}
	if len(opps) > 0 {
		blocks = append(blocks, block("FUNDING DEADLINES", opps))
	}

	var proposals []string
	for _, p := range s.Proposals {
		if p.Deadline == nil {
			proposals = append(proposals, fmt.Sprintf("- %s (id: %s, status %s, no deadline set)", p.Title, p.ID, p.Status))
			continue
		}
		u := ClassifyDeadline(*p.Deadline, asOf)
		if u == types.UrgencyNone {
			continue
		}
		proposals = append(proposals, fmt.Sprintf("- [%s] %s (id: %s, status %s, deadline %s, %s)", u, p.Title, p.ID, p.Status,
			p.Deadline.Format(storage.DateLayout), relativeDays(DaysUntil(*p.Deadline, asOf))))
	}
	if len(proposals) > 0 {
		blocks = append(blocks, block("OPEN PROPOSALS", proposals))
	}

	var contacts []string
	for _, c := range s.Contacts {
		line := fmt.Sprintf("- %s (id: %s, relationship %s", c.Name, c.ID, c.RelationshipStatus)
		if c.Organization != "" {
			line += ", " + c.Organization
		}
		if c.LastContactedAt != nil {
			line += fmt.Sprintf(", last contacted %d days ago", -DaysUntil(*c.LastContactedAt, asOf))
		} else {
			line += ", never contacted"
		}
		contacts = append(contacts, line+")")
	}
	if len(contacts) > 0 {
		blocks = append(blocks, block("RELATIONSHIPS NEEDING ATTENTION", contacts))
	}

	var activity []string
	for _, a := range s.Activity {
		activity = append(activity, fmt.Sprintf("- %s on %s: %d", a.ActivityType, a.EntityType, a.Count))
	}
	if len(activity) > 0 {
		blocks = append(blocks, block("RECENT ACTIVITY", activity))
	}

	return strings.Join(blocks, "\n\n")
}

func renderTasks(tasks []types.TaskSignal, asOf time.Time) []string {
	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		u := ClassifyDeadline(t.DueDate, asOf)
		if u == types.UrgencyNone {
			continue
		}
		line := fmt.Sprintf("- [%s] %s (id: %s, due %s, %s, status %s", u, t.Title, t.ID,
			t.DueDate.Format(storage.DateLayout), relativeDays(DaysUntil(t.DueDate, asOf)), t.Status)
		if t.AssignedTo != "" {
			line += ", assigned to " + t.AssignedTo
		}
		lines = append(lines, line+")")
	}
	return lines
}

func relativeDays(days int) string {
	switch {
	case days < -1:
		return fmt.Sprintf("%d days overdue", -days)
	case days == -1:
		return "1 day overdue"
	case days == 0:
		return "due today"
	case days == 1:
		return "in 1 day"
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

func block(label string, lines []string) string {
	return label + ":\n" + strings.Join(lines, "\n")
}
