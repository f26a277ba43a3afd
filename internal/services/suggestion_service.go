package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tpcministries/ldc-command-center/internal/logging"
	"github.com/tpcministries/ldc-command-center/internal/metrics"
	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// SuggestionService enforces the suggestion lifecycle on top of a
// storage.SuggestionStore: creation always starts at new, and acted or
// dismissed suggestions never change again.
type SuggestionService struct {
	store   storage.SuggestionStore
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewSuggestionService creates a new SuggestionService. m may be nil.
func NewSuggestionService(store storage.SuggestionStore, m *metrics.Metrics, logger *slog.Logger) *SuggestionService {
	return &SuggestionService{
		store:   store,
		metrics: m,
		logger:  logging.OrNop(logger),
		now:     time.Now,
	}
}

// WithClock overrides time.Now for creation and transition stamps.
func (s *SuggestionService) WithClock(now func() time.Time) *SuggestionService {
	if now != nil {
		s.now = now
	}
	return s
}

// Create persists a suggestion for a workspace. Status is forced to new,
// transition timestamps are cleared, unknown types become insight and
// unknown priorities become medium.
func (s *SuggestionService) Create(ctx context.Context, workspaceID string, sg *types.Suggestion) (*types.Suggestion, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", storage.ErrInvalidInput)
	}
	if sg == nil {
		return nil, fmt.Errorf("%w: suggestion is required", storage.ErrInvalidInput)
	}

	out := *sg
	out.WorkspaceID = workspaceID
	out.Title = strings.TrimSpace(out.Title)
	if out.Title == "" {
		return nil, fmt.Errorf("%w: suggestion title is required", storage.ErrInvalidInput)
	}
	out.Type = types.NormalizeSuggestionType(string(out.Type))
	out.Priority = types.NormalizePriority(string(out.Priority))
	out.Status = types.StatusNew
	out.SeenAt, out.ActedAt, out.DismissedAt = nil, nil, nil

	if out.ID == "" {
		out.ID = uuid.New().String()
	}
	if out.CreatedAt.IsZero() {
		out.CreatedAt = s.now().UTC()
	}
	if out.RelatedEntity != nil && out.RelatedEntity.Type == "" && out.RelatedEntity.ID == "" {
		out.RelatedEntity = nil
	}
	if out.Action != nil && out.Action.Type == "" {
		out.Action = nil
	}

	if err := s.store.CreateSuggestion(ctx, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get returns one suggestion by ID.
func (s *SuggestionService) Get(ctx context.Context, id string) (*types.Suggestion, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: suggestion id is required", storage.ErrInvalidInput)
	}
	return s.store.GetSuggestion(ctx, id)
}

// List returns active (unexpired) suggestions for a workspace.
func (s *SuggestionService) List(ctx context.Context, workspaceID string, q storage.SuggestionQuery) ([]*types.Suggestion, error) {
	if workspaceID == "" {
		return nil, fmt.Errorf("%w: workspace id is required", storage.ErrInvalidInput)
	}
	if q.Status != "" && !types.IsValidSuggestionStatus(q.Status) {
		return nil, fmt.Errorf("%w: %q", storage.ErrInvalidStatus, q.Status)
	}
	if q.Now.IsZero() {
		q.Now = s.now()
	}
	return s.store.ListSuggestions(ctx, workspaceID, q.Normalize())
}

// SetStatus moves a suggestion to seen, acted or dismissed and returns the
// updated record. Other statuses return ErrInvalidStatus; leaving a terminal
// status returns ErrTerminalStatus.
func (s *SuggestionService) SetStatus(ctx context.Context, id string, status types.SuggestionStatus) (*types.Suggestion, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: suggestion id is required", storage.ErrInvalidInput)
	}
	if !types.IsMarkableStatus(status) {
		return nil, fmt.Errorf("%w: %q", storage.ErrInvalidStatus, status)
	}

	current, err := s.store.GetSuggestion(ctx, id)
	if err != nil {
		return nil, err
	}
	if !types.IsValidStatusTransition(current.Status, status) {
		return nil, fmt.Errorf("%w: %s to %s", storage.ErrTerminalStatus, current.Status, status)
	}

	// The store re-checks terminal status in the UPDATE so a concurrent
	// transition between the read and the write still loses.
	if err := s.store.SetSuggestionStatus(ctx, id, status, s.now().UTC()); err != nil {
		return nil, err
	}
	s.metrics.RecordTransition(string(status))
	s.logger.Debug("suggestion status changed", "suggestion_id", id, "status", status)

	return s.store.GetSuggestion(ctx, id)
}

// HasRecent reports whether a suggestion with dedupeKey was created in the
// workspace at or after since.
func (s *SuggestionService) HasRecent(ctx context.Context, workspaceID, dedupeKey string, since time.Time) (bool, error) {
	if dedupeKey == "" {
		return false, nil
	}
	return s.store.HasRecentSuggestion(ctx, workspaceID, dedupeKey, since)
}
