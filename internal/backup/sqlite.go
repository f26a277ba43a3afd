package backup

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver
)

// openExisting opens a database file without creating it.
func openExisting(path string) (*sql.DB, error) {
	return sql.Open("sqlite", fmt.Sprintf("file:%s?mode=rw", path))
}

// vacuumInto writes a consistent point-in-time copy of sourcePath to
// destPath. VACUUM INTO reads through the WAL, so the source may be in use.
func vacuumInto(ctx context.Context, sourcePath, destPath string) error {
	db, err := openExisting(sourcePath)
	if err != nil {
		return fmt.Errorf("failed to open source database: %w", err)
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping source database: %w", err)
	}

	quoted := strings.ReplaceAll(destPath, "'", "''")
	if _, err := db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", quoted)); err != nil {
		return fmt.Errorf("failed to snapshot database: %w", err)
	}
	return nil
}

// verify runs SQLite's integrity check against a snapshot.
func verify(ctx context.Context, path string) error {
	db, err := openExisting(path)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("failed to run integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}

// Restore replaces targetPath with a verified copy of snapshotPath. The
// store must not be open while restoring. The copy is staged next to the
// target and renamed into place, so a failed restore leaves the target
// untouched.
func Restore(ctx context.Context, snapshotPath, targetPath string) error {
	if err := verify(ctx, snapshotPath); err != nil {
		return fmt.Errorf("snapshot verification failed: %w", err)
	}

	src, err := os.Open(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer func() { _ = src.Close() }()

	staged := targetPath + ".restore"
	dst, err := os.OpenFile(staged, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create staging file: %w", err)
	}
	cleanup := func() { _ = os.Remove(staged) }

	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		cleanup()
		return fmt.Errorf("failed to copy snapshot: %w", err)
	}
	if err := dst.Sync(); err != nil {
		_ = dst.Close()
		cleanup()
		return fmt.Errorf("failed to sync staging file: %w", err)
	}
	if err := dst.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close staging file: %w", err)
	}

	if err := verify(ctx, staged); err != nil {
		cleanup()
		return fmt.Errorf("restored database verification failed: %w", err)
	}

	// Stale WAL files would be replayed over the restored database.
	for _, suffix := range []string{"-wal", "-shm"} {
		if err := os.Remove(targetPath + suffix); err != nil && !os.IsNotExist(err) {
			cleanup()
			return fmt.Errorf("failed to remove %s: %w", targetPath+suffix, err)
		}
	}

	if err := os.Rename(staged, targetPath); err != nil {
		cleanup()
		return fmt.Errorf("failed to move restored database into place: %w", err)
	}
	return nil
}
