// Package backup takes consistent snapshots of the SQLite store with
// VACUUM INTO, verifies them, and prunes old snapshots with a tiered
// retention policy.
package backup

import (
	"log/slog"
	"time"

	"github.com/tpcministries/ldc-command-center/internal/logging"
)

// Config holds snapshot configuration.
type Config struct {
	// DBPath is the SQLite database file to snapshot.
	DBPath string

	// Dir is where snapshots are written. It is created on first use.
	Dir string

	// Verify runs PRAGMA integrity_check on every new snapshot.
	Verify bool

	// Retention decides which older snapshots survive a run.
	Retention RetentionPolicy
}

// RetentionPolicy defines how many snapshots to keep in each age tier:
//   - Hourly: younger than 24 hours
//   - Daily: 1 to 7 days old
//   - Weekly: 7 to 30 days old
//   - Monthly: 30 to 365 days old
//
// Snapshots older than a year are always pruned. Within a tier the newest
// snapshots are kept.
type RetentionPolicy struct {
	Hourly  int
	Daily   int
	Weekly  int
	Monthly int
}

// DefaultRetention keeps a day of hourly snapshots, a week of dailies, a
// month of weeklies and a year of monthlies.
func DefaultRetention() RetentionPolicy {
	return RetentionPolicy{Hourly: 24, Daily: 7, Weekly: 4, Monthly: 12}
}

// Snapshot describes one snapshot file.
type Snapshot struct {
	Path     string    `json:"path"`
	TakenAt  time.Time `json:"taken_at"`
	Size     int64     `json:"size"`
	Verified bool      `json:"verified"`
}

// Result is the outcome of one Run.
type Result struct {
	Snapshot Snapshot      `json:"snapshot"`
	Duration time.Duration `json:"duration"`
	Pruned   []string      `json:"pruned"`
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = logging.OrNop(l) }
}

// WithClock overrides the time source used for naming and retention.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}
