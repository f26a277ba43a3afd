package types

import "time"

// Urgency buckets a deadline by how many days remain until it.
type Urgency string

// Urgency constants. UrgencyNone marks deadlines too far out to surface.
const (
	UrgencyCritical Urgency = "critical"
	UrgencyHigh     Urgency = "high"
	UrgencyMedium   Urgency = "medium"
	UrgencyLow      Urgency = "low"
	UrgencyNone     Urgency = ""
)

// TaskSignal is a read-only view of a task owned by the project subsystem.
type TaskSignal struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	DueDate    time.Time `json:"due_date"`
	AssignedTo string    `json:"assigned_to,omitempty"`
}

// OpportunitySignal is a tracked funding opportunity with a deadline.
type OpportunitySignal struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Funder   string    `json:"funder,omitempty"`
	Status   string    `json:"status"`
	Deadline time.Time `json:"deadline"`
}

// ProposalSignal is a proposal in a non-terminal status. Deadline may be nil.
type ProposalSignal struct {
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Status   string     `json:"status"`
	Deadline *time.Time `json:"deadline,omitempty"`
}

// ContactSignal is a contact whose relationship health needs attention.
type ContactSignal struct {
	ID                 string     `json:"id"`
	Name               string     `json:"name"`
	Organization       string     `json:"organization,omitempty"`
	RelationshipStatus string     `json:"relationship_status"` // cold or at_risk
	LastContactedAt    *time.Time `json:"last_contacted_at,omitempty"`
}

// ActivityCount is one row of the recent activity rollup.
type ActivityCount struct {
	ActivityType string `json:"activity_type"`
	EntityType   string `json:"entity_type"`
	Count        int    `json:"count"`
}
