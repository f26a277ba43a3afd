// Package postgres provides a PostgreSQL implementation of storage.Store.
// This file contains test helpers only available during testing.
package postgres

import (
	"context"
	"fmt"
)

// TruncateForTest removes all rows from the tables this store owns.
// It is defined in the postgres package so it can reach the unexported db
// field, and exported so the postgres_test package can call it.
func (s *Store) TruncateForTest(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `TRUNCATE TABLE
		conversation_turns, memory_summaries, context_settings, suggestions
		RESTART IDENTITY CASCADE`)
	if err != nil {
		return fmt.Errorf("postgres: failed to truncate tables: %w", err)
	}
	return nil
}

// IsUndefinedTableForTest exposes the missing-table check to external tests.
func IsUndefinedTableForTest(err error) bool {
	return isUndefinedTable(err)
}
