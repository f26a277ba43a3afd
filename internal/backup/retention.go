package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	snapshotPrefix = "ldc-memory-"
	snapshotSuffix = ".db"
	snapshotLayout = "20060102-150405.000000"
)

func snapshotName(t time.Time) string {
	return snapshotPrefix + t.UTC().Format(snapshotLayout) + snapshotSuffix
}

// takenAt recovers the snapshot time from its file name, falling back to
// the modification time for files named some other way.
func takenAt(name string, info os.FileInfo) time.Time {
	stamp := strings.TrimSuffix(strings.TrimPrefix(name, snapshotPrefix), snapshotSuffix)
	if t, err := time.Parse(snapshotLayout, stamp); err == nil {
		return t.UTC()
	}
	return info.ModTime().UTC()
}

// listSnapshots returns the .db files in dir, newest first. A missing
// directory has no snapshots.
func listSnapshots(dir string) ([]Snapshot, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return []Snapshot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	snapshots := []Snapshot{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), snapshotSuffix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		snapshots = append(snapshots, Snapshot{
			Path:    filepath.Join(dir, entry.Name()),
			TakenAt: takenAt(entry.Name(), info),
			Size:    info.Size(),
		})
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].TakenAt.After(snapshots[j].TakenAt)
	})
	return snapshots, nil
}

// expired returns the snapshots policy does not keep. snapshots must be
// sorted newest first. The newest snapshot is always kept.
func expired(snapshots []Snapshot, policy RetentionPolicy, now time.Time) []Snapshot {
	if len(snapshots) == 0 {
		return nil
	}

	var hourly, daily, weekly, monthly, drop []Snapshot
	for _, s := range snapshots[1:] {
		age := now.Sub(s.TakenAt)
		switch {
		case age < 24*time.Hour:
			hourly = append(hourly, s)
		case age < 7*24*time.Hour:
			daily = append(daily, s)
		case age < 30*24*time.Hour:
			weekly = append(weekly, s)
		case age < 365*24*time.Hour:
			monthly = append(monthly, s)
		default:
			drop = append(drop, s)
		}
	}

	// The newest snapshot occupies a slot in its own tier.
	newest := now.Sub(snapshots[0].TakenAt)
	keep := policy
	switch {
	case newest < 24*time.Hour:
		keep.Hourly--
	case newest < 7*24*time.Hour:
		keep.Daily--
	case newest < 30*24*time.Hour:
		keep.Weekly--
	case newest < 365*24*time.Hour:
		keep.Monthly--
	}

	drop = append(drop, overflow(hourly, keep.Hourly)...)
	drop = append(drop, overflow(daily, keep.Daily)...)
	drop = append(drop, overflow(weekly, keep.Weekly)...)
	drop = append(drop, overflow(monthly, keep.Monthly)...)
	return drop
}

func overflow(tier []Snapshot, keep int) []Snapshot {
	if keep < 0 {
		keep = 0
	}
	if len(tier) <= keep {
		return nil
	}
	return tier[keep:]
}

// diskUsage sums snapshot sizes.
func diskUsage(snapshots []Snapshot) int64 {
	var total int64
	for _, s := range snapshots {
		total += s.Size
	}
	return total
}
