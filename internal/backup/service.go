package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/tpcministries/ldc-command-center/internal/logging"
)

// Service takes snapshots of one database into one directory.
type Service struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// Status summarizes the snapshots on disk.
type Status struct {
	Dir       string     `json:"dir"`
	Count     int        `json:"count"`
	DiskBytes int64      `json:"disk_bytes"`
	Latest    *time.Time `json:"latest,omitempty"`
	Snapshots []Snapshot `json:"snapshots"`
}

// NewService validates cfg and returns a Service.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	if cfg.DBPath == "" {
		return nil, errors.New("backup: database path is required")
	}
	if cfg.Dir == "" {
		return nil, errors.New("backup: backup directory is required")
	}
	p := cfg.Retention
	if p.Hourly < 0 || p.Daily < 0 || p.Weekly < 0 || p.Monthly < 0 {
		return nil, errors.New("backup: retention counts must not be negative")
	}

	s := &Service{cfg: cfg, logger: logging.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Run snapshots the database, verifies the snapshot when configured, and
// prunes snapshots the retention policy no longer keeps. A snapshot that
// fails verification is removed and reported as an error.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	start := s.now()

	if _, err := os.Stat(s.cfg.DBPath); err != nil {
		return nil, fmt.Errorf("backup: database not found: %w", err)
	}
	if err := os.MkdirAll(s.cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("backup: failed to create backup directory: %w", err)
	}

	path := filepath.Join(s.cfg.Dir, snapshotName(start))
	if err := vacuumInto(ctx, s.cfg.DBPath, path); err != nil {
		return nil, fmt.Errorf("backup: %w", err)
	}

	snap := Snapshot{Path: path, TakenAt: start.UTC()}
	if s.cfg.Verify {
		if err := verify(ctx, path); err != nil {
			_ = os.Remove(path)
			return nil, fmt.Errorf("backup: %w", err)
		}
		snap.Verified = true
	}
	if info, err := os.Stat(path); err == nil {
		snap.Size = info.Size()
	}

	pruned, err := s.Prune()
	if err != nil {
		// The snapshot itself succeeded.
		s.logger.Warn("backup retention failed", "dir", s.cfg.Dir, "error", err)
	}

	result := &Result{Snapshot: snap, Duration: s.now().Sub(start), Pruned: pruned}
	s.logger.Info("backup completed",
		"path", snap.Path, "size", snap.Size, "verified", snap.Verified,
		"pruned", len(pruned), "duration", result.Duration)
	return result, nil
}

// Prune deletes snapshots outside the retention policy and returns their
// paths. It keeps going after a failed delete and reports the last error.
func (s *Service) Prune() ([]string, error) {
	snapshots, err := listSnapshots(s.cfg.Dir)
	if err != nil {
		return nil, err
	}

	pruned := []string{}
	var lastErr error
	for _, snap := range expired(snapshots, s.cfg.Retention, s.now()) {
		if err := os.Remove(snap.Path); err != nil {
			lastErr = err
			continue
		}
		pruned = append(pruned, snap.Path)
	}
	if lastErr != nil {
		return pruned, fmt.Errorf("failed to delete some snapshots: %w", lastErr)
	}
	return pruned, nil
}

// Status lists the snapshots on disk, newest first.
func (s *Service) Status() (*Status, error) {
	snapshots, err := listSnapshots(s.cfg.Dir)
	if err != nil {
		return nil, err
	}
	st := &Status{
		Dir:       s.cfg.Dir,
		Count:     len(snapshots),
		DiskBytes: diskUsage(snapshots),
		Snapshots: snapshots,
	}
	if len(snapshots) > 0 {
		latest := snapshots[0].TakenAt
		st.Latest = &latest
	}
	return st, nil
}

// Restore replaces the configured database with snapshot. A bare file name
// is resolved inside the backup directory.
func (s *Service) Restore(ctx context.Context, snapshot string) error {
	path := snapshot
	if filepath.Base(snapshot) == snapshot {
		path = filepath.Join(s.cfg.Dir, snapshot)
	}
	if err := Restore(ctx, path, s.cfg.DBPath); err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	s.logger.Info("database restored", "snapshot", path, "target", s.cfg.DBPath)
	return nil
}
