// Package services holds the validation and lifecycle rules layered over the
// storage contracts: the context settings registry and the suggestion store.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	cache "github.com/patrickmn/go-cache"

	"github.com/tpcministries/ldc-command-center/internal/logging"
	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// DefaultSettingsCacheTTL is used when NewSettingsService is given a
// non-positive TTL.
const DefaultSettingsCacheTTL = time.Minute

// SettingsService is the per-workspace context settings registry. Reads go
// through a short-lived cache; the store stays the source of truth and the
// cache entry is replaced on every update.
type SettingsService struct {
	store  storage.SettingsStore
	cache  *cache.Cache
	logger *slog.Logger
	now    func() time.Time
}

// NewSettingsService creates a new SettingsService instance.
func NewSettingsService(store storage.SettingsStore, ttl time.Duration, logger *slog.Logger) *SettingsService {
	if ttl <= 0 {
		ttl = DefaultSettingsCacheTTL
	}
	return &SettingsService{
		store:  store,
		cache:  cache.New(ttl, 2*ttl),
		logger: logging.OrNop(logger),
		now:    time.Now,
	}
}

// GetSettings returns the stored settings for a workspace, or the defaults
// when none are stored. A missing record is never an error.
func (s *SettingsService) GetSettings(ctx context.Context, workspaceID string) (*types.ContextSettings, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", storage.ErrInvalidInput)
	}

	if cached, ok := s.cache.Get(workspaceID); ok {
		return cloneSettings(cached.(*types.ContextSettings)), nil
	}

	settings, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(workspaceID, settings)
	return cloneSettings(settings), nil
}

// UpdateSettings applies a partial update. Fields left nil keep their stored
// value, or the default when the workspace has no record yet. The whole row
// is written back, so concurrent updates are last-writer-wins.
func (s *SettingsService) UpdateSettings(ctx context.Context, workspaceID string, update types.ContextSettingsUpdate) (*types.ContextSettings, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", storage.ErrInvalidInput)
	}
	if err := ValidateSettingsUpdate(update); err != nil {
		return nil, err
	}

	// Merge against the store, not the cache.
	current, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	update.Apply(current)
	current.ExcludedWorkspaceIDs = cleanWorkspaceIDs(current.ExcludedWorkspaceIDs)

	now := s.now().UTC()
	if !current.Persisted || current.CreatedAt.IsZero() {
		current.CreatedAt = now
	}
	current.UpdatedAt = now

	if err := s.store.UpsertSettings(ctx, current); err != nil {
		return nil, fmt.Errorf("failed to save settings: %w", err)
	}
	current.Persisted = true

	s.cache.SetDefault(workspaceID, current)
	s.logger.Debug("context settings updated", "workspace_id", workspaceID, "mode", current.ContextMode)

	return cloneSettings(current), nil
}

// WithClock overrides time.Now for update stamps.
func (s *SettingsService) WithClock(now func() time.Time) *SettingsService {
	if now != nil {
		s.now = now
	}
	return s
}

func (s *SettingsService) load(ctx context.Context, workspaceID string) (*types.ContextSettings, error) {
	settings, err := s.store.GetSettings(ctx, workspaceID)
	if errors.Is(err, storage.ErrNotFound) {
		return types.DefaultContextSettings(workspaceID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.ExcludedWorkspaceIDs == nil {
		settings.ExcludedWorkspaceIDs = []string{}
	}
	return settings, nil
}

// ValidateSettingsUpdate rejects unknown modes and non-positive limits.
func ValidateSettingsUpdate(u types.ContextSettingsUpdate) error {
	if u.ContextMode != nil && !types.IsValidContextMode(*u.ContextMode) {
		return fmt.Errorf("%w: context mode must be one of full, focused, minimal", storage.ErrInvalidInput)
	}
	if u.MaxHistoryMessages != nil && *u.MaxHistoryMessages <= 0 {
		return fmt.Errorf("%w: max history messages must be positive", storage.ErrInvalidInput)
	}
	if u.MaxHistoryDays != nil && *u.MaxHistoryDays <= 0 {
		return fmt.Errorf("%w: max history days must be positive", storage.ErrInvalidInput)
	}
	return nil
}

func cleanWorkspaceIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func cloneSettings(s *types.ContextSettings) *types.ContextSettings {
	c := *s
	c.ExcludedWorkspaceIDs = append([]string{}, s.ExcludedWorkspaceIDs...)
	return &c
}
