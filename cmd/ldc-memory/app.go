package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tpcministries/ldc-command-center/internal/config"
	"github.com/tpcministries/ldc-command-center/internal/engine"
	"github.com/tpcministries/ldc-command-center/internal/llm"
	"github.com/tpcministries/ldc-command-center/internal/logging"
	"github.com/tpcministries/ldc-command-center/internal/metrics"
	"github.com/tpcministries/ldc-command-center/internal/storage"
	"github.com/tpcministries/ldc-command-center/internal/storage/postgres"
	"github.com/tpcministries/ldc-command-center/internal/storage/sqlite"
)

// app holds everything a command needs, built from the loaded config.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    storage.Store
	engine   *engine.Engine
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

// loadConfig reads the persistent flags, loads configuration and builds
// the process logger. Logs always go to stderr.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, nil, fmt.Errorf("could not get config flag: %w", err)
	}
	debug, err := cmd.Flags().GetBool("debug")
	if err != nil {
		return nil, nil, fmt.Errorf("could not get debug flag: %w", err)
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(cfg.Logging, debug, cmd.ErrOrStderr()), nil
}

// newApp loads configuration and wires storage, the oracle and the engine.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	store, err := openStore(cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	oracle, err := llm.NewCompleter(completerConfig(cfg), logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	e, err := engine.New(store, oracle, engineConfig(cfg.Memory),
		engine.WithLogger(logger), engine.WithMetrics(m))
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	logger.Debug("engine ready",
		"storage", cfg.Storage.Engine, "llm_provider", cfg.LLM.Provider, "model", oracle.GetModel())
	return &app{cfg: cfg, logger: logger, store: store, engine: e, registry: registry, metrics: m}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func newLogger(cfg config.LoggingConfig, debug bool, w io.Writer) *slog.Logger {
	return logging.New(
		logging.WithLevel(cfg.Level),
		logging.WithDebug(debug),
		logging.WithJSON(cfg.Format == "json"),
		logging.WithPretty(cfg.Format == "pretty"),
		logging.WithWriter(w),
	)
}

func openStore(cfg config.StorageConfig, logger *slog.Logger) (storage.Store, error) {
	switch cfg.Engine {
	case "postgres":
		store, err := postgres.NewStore(cfg.PostgresDSN, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres store: %w", err)
		}
		logger.Info("using PostgreSQL storage")
		return store, nil
	default:
		if err := os.MkdirAll(cfg.DataPath, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := sqlite.NewStore(cfg.SQLitePath(), logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite store: %w", err)
		}
		logger.Info("using SQLite storage", "path", cfg.SQLitePath())
		return store, nil
	}
}

func completerConfig(cfg *config.Config) llm.Config {
	c := llm.Config{
		Provider:          cfg.LLM.Provider,
		Model:             cfg.LLM.ActiveModel(),
		Timeout:           cfg.Memory.OracleTimeout,
		MaxTokens:         cfg.LLM.MaxTokens,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	}
	switch cfg.LLM.Provider {
	case "openai":
		c.APIKey = cfg.LLM.OpenAIAPIKey
		c.BaseURL = cfg.LLM.OpenAIBaseURL
	case "anthropic":
		c.APIKey = cfg.LLM.AnthropicAPIKey
	default:
		c.BaseURL = cfg.LLM.OllamaURL
	}
	return c
}

func engineConfig(m config.MemoryConfig) engine.Config {
	c := engine.DefaultConfig()
	c.SummaryWindow = m.SummaryWindow
	c.SummaryMinTurns = m.SummaryMinTurns
	c.SummaryFetchLimit = m.SummaryFetchLimit
	c.OracleTimeout = m.OracleTimeout
	c.DedupeWindow = m.DedupeWindow
	c.SuggestionExpiry = m.SuggestionExpiry
	c.SettingsCacheTTL = m.SettingsCacheTTL
	return c
}

// printJSON writes v as indented JSON.
func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
