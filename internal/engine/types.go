// Package engine implements the agent memory and proactive suggestion
// engine: conversation summarization, signal-driven suggestion generation
// and context assembly, behind the Engine facade.
//
// Every operation is request scoped. State lives in the store; the only
// in-process state is the settings read-through cache.
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/tpcministries/ldc-command-center/internal/logging"
	"github.com/tpcministries/ldc-command-center/internal/metrics"
	"github.com/tpcministries/ldc-command-center/pkg/types"
)

// Config holds tuning for the engine components.
type Config struct {
	// SummaryWindow is the fixed lookback summarized on each run (default: 7 days).
	SummaryWindow time.Duration

	// SummaryMinTurns is the number of turns required before a summary is produced (default: 5).
	SummaryMinTurns int

	// SummaryFetchLimit caps the turns sent to the oracle (default: 200).
	SummaryFetchLimit int

	// OracleTimeout bounds every oracle call (default: 30s).
	OracleTimeout time.Duration

	// SignalHorizonDays is the look-ahead for upcoming tasks and opportunities (default: 7).
	SignalHorizonDays int

	// ActivityWindow is the lookback for the activity rollup (default: 7 days).
	ActivityWindow time.Duration

	// MinSignalChars is the rendered signal size below which generation is skipped (default: 50).
	MinSignalChars int

	// DedupeWindow suppresses suggestions whose dedupe key was seen within
	// the window. Zero disables deduplication (default: 24h).
	DedupeWindow time.Duration

	// SuggestionExpiry is applied when the oracle gives no expiry. Zero
	// leaves suggestions without expiry (default: 7 days).
	SuggestionExpiry time.Duration

	// SettingsCacheTTL is the settings read-through cache lifetime (default: 1m).
	SettingsCacheTTL time.Duration
}

// Fixed presentation limits.
const (
	fallbackTitle        = "Workspace insight"
	fallbackContentLimit = 500
	contextTurnLimit     = 6
	contextTurnChars     = 200
	contextSuggestions   = 5
	suggestionPrefixLen  = 120
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SummaryWindow:     7 * 24 * time.Hour,
		SummaryMinTurns:   5,
		SummaryFetchLimit: 200,
		OracleTimeout:     30 * time.Second,
		SignalHorizonDays: 7,
		ActivityWindow:    7 * 24 * time.Hour,
		MinSignalChars:    50,
		DedupeWindow:      24 * time.Hour,
		SuggestionExpiry:  7 * 24 * time.Hour,
		SettingsCacheTTL:  time.Minute,
	}
}

// Validate checks if the config is valid.
func (c *Config) Validate() error {
	if c.SummaryWindow <= 0 {
		return fmt.Errorf("SummaryWindow must be > 0, got %v", c.SummaryWindow)
	}
	if c.SummaryMinTurns < 1 {
		return fmt.Errorf("SummaryMinTurns must be >= 1, got %d", c.SummaryMinTurns)
	}
	if c.SummaryFetchLimit < c.SummaryMinTurns {
		return fmt.Errorf("SummaryFetchLimit must be >= SummaryMinTurns, got %d", c.SummaryFetchLimit)
	}
	if c.OracleTimeout <= 0 {
		return fmt.Errorf("OracleTimeout must be > 0, got %v", c.OracleTimeout)
	}
	if c.SignalHorizonDays < 1 {
		return fmt.Errorf("SignalHorizonDays must be >= 1, got %d", c.SignalHorizonDays)
	}
	if c.ActivityWindow <= 0 {
		return fmt.Errorf("ActivityWindow must be > 0, got %v", c.ActivityWindow)
	}
	if c.MinSignalChars < 0 {
		return fmt.Errorf("MinSignalChars must be >= 0, got %d", c.MinSignalChars)
	}
	if c.DedupeWindow < 0 || c.SuggestionExpiry < 0 {
		return fmt.Errorf("DedupeWindow and SuggestionExpiry must be >= 0")
	}
	return nil
}

// SummaryReason explains the outcome of a summarization run.
type SummaryReason string

// Summarization outcomes. Only SummaryCreated persists anything.
const (
	SummaryInsufficientTurns SummaryReason = "insufficient_turns"
	SummaryOracleError       SummaryReason = "oracle_error"
	SummaryParseError        SummaryReason = "parse_error"
	SummaryCreated           SummaryReason = "created"
)

// SummaryResult is the tagged result of Summarize. Summary is set only when
// Produced is true.
type SummaryResult struct {
	Summary   *types.MemorySummary `json:"summary,omitempty"`
	Produced  bool                 `json:"produced"`
	Reason    SummaryReason        `json:"reason"`
	TurnCount int                  `json:"turn_count"`
}

// GenerationResult is the outcome of one suggestion generation run.
// Message explains empty results.
type GenerationResult struct {
	Suggestions []*types.Suggestion `json:"suggestions"`
	Deduped     int                 `json:"deduped"`
	Fallback    bool                `json:"fallback"`
	Message     string              `json:"message,omitempty"`
}

// AssembledContext is the text handed to an agent plus the settings that
// shaped it.
type AssembledContext struct {
	Text            string                 `json:"context"`
	Settings        *types.ContextSettings `json:"settings"`
	SummaryIncluded bool                   `json:"summary_included"`
	TurnCount       int                    `json:"turn_count"`
	SuggestionCount int                    `json:"suggestion_count"`
}

// Option configures the ambient dependencies shared by engine components.
type Option func(*env)

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *env) { e.logger = logging.OrNop(l) }
}

// WithMetrics sets the metrics sink. Nil disables metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *env) { e.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *env) {
		if now != nil {
			e.now = now
		}
	}
}

type env struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func newEnv(opts []Option) env {
	e := env{logger: logging.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// windowDays converts a lookback duration to whole days, rounding up.
func windowDays(d time.Duration) int {
	day := 24 * time.Hour
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}
