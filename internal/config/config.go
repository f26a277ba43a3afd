// Package config provides configuration management for the LDC memory engine.
// Values come from built-in defaults, then an optional YAML file, then
// environment variables with the LDC_ prefix (highest precedence). A .env
// file in the working directory is loaded before the environment is read.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration settings for the engine.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	LLM       LLMConfig       `yaml:"llm"`
	Memory    MemoryConfig    `yaml:"memory"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Backup    BackupConfig    `yaml:"backup"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port           int     `yaml:"port"`             // Server port (default: 6464)
	Host           string  `yaml:"host"`             // Server host (default: 127.0.0.1)
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`   // Per-client requests per second (default: 20)
	RateLimitBurst int     `yaml:"rate_limit_burst"` // Per-client burst (default: 40)

	// APIToken, when set, is required as a Bearer token on /api/ routes.
	APIToken string `yaml:"api_token"`
}

// StorageConfig contains database configuration.
type StorageConfig struct {
	Engine      string `yaml:"engine"`       // sqlite or postgres (default: sqlite)
	DataPath    string `yaml:"data_path"`    // Directory holding the SQLite file (default: ./data)
	PostgresDSN string `yaml:"postgres_dsn"` // Required when Engine is postgres
}

// SQLitePath returns the SQLite database file inside DataPath.
func (s StorageConfig) SQLitePath() string {
	return filepath.Join(s.DataPath, "ldc-memory.db")
}

// LLMConfig contains completion provider configuration.
type LLMConfig struct {
	Provider          string `yaml:"provider"` // ollama, openai, anthropic (default: ollama)
	OllamaURL         string `yaml:"ollama_url"`
	OllamaModel       string `yaml:"ollama_model"`
	OpenAIAPIKey      string `yaml:"openai_api_key"`
	OpenAIModel       string `yaml:"openai_model"`
	OpenAIBaseURL     string `yaml:"openai_base_url"`
	AnthropicAPIKey   string `yaml:"anthropic_api_key"`
	AnthropicModel    string `yaml:"anthropic_model"`
	MaxTokens         int    `yaml:"max_tokens"`
	RequestsPerMinute int    `yaml:"requests_per_minute"` // 0 disables the client-side limit
}

// MemoryConfig tunes summarization, suggestion generation and settings caching.
type MemoryConfig struct {
	SummaryWindow     time.Duration `yaml:"summary_window"`      // Lookback for summarization (default: 7d)
	SummaryMinTurns   int           `yaml:"summary_min_turns"`   // Turns required before summarizing (default: 5)
	SummaryFetchLimit int           `yaml:"summary_fetch_limit"` // Max turns sent to the oracle (default: 200)
	OracleTimeout     time.Duration `yaml:"oracle_timeout"`      // Per-call oracle deadline (default: 30s)
	DedupeWindow      time.Duration `yaml:"dedupe_window"`       // Duplicate suggestion window, 0 disables (default: 24h)
	SuggestionExpiry  time.Duration `yaml:"suggestion_expiry"`   // Default suggestion lifetime, 0 disables (default: 7d)
	SettingsCacheTTL  time.Duration `yaml:"settings_cache_ttl"`  // Settings read-through cache TTL (default: 1m)
}

// SchedulerConfig controls the periodic background jobs started by serve.
type SchedulerConfig struct {
	Enabled           bool          `yaml:"enabled"`            // default: false
	SummarizeInterval time.Duration `yaml:"summarize_interval"` // default: 6h
	SuggestInterval   time.Duration `yaml:"suggest_interval"`   // default: 24h
	AgentType         string        `yaml:"agent_type"`         // Producer recorded on scheduled suggestions (default: proactive)
}

// BackupConfig controls SQLite snapshots taken by the backup command.
type BackupConfig struct {
	Dir     string `yaml:"dir"`     // Snapshot directory (default: <data_path>/backups)
	Verify  bool   `yaml:"verify"`  // Run integrity_check on each snapshot (default: true)
	Hourly  int    `yaml:"hourly"`  // Snapshots kept from the last 24h (default: 24)
	Daily   int    `yaml:"daily"`   // Snapshots kept from 1-7 days ago (default: 7)
	Weekly  int    `yaml:"weekly"`  // Snapshots kept from 7-30 days ago (default: 4)
	Monthly int    `yaml:"monthly"` // Snapshots kept from 30-365 days ago (default: 12)
}

// BackupDir returns the configured snapshot directory, defaulting to a
// backups directory next to the SQLite file.
func (c *Config) BackupDir() string {
	if c.Backup.Dir != "" {
		return c.Backup.Dir
	}
	return filepath.Join(c.Storage.DataPath, "backups")
}

// LoggingConfig controls the process logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error (default: info)
	Format string `yaml:"format"` // text, json, pretty (default: text)
}

// Default returns a Config populated only with built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           6464,
			Host:           "127.0.0.1",
			RateLimitRPS:   20,
			RateLimitBurst: 40,
		},
		Storage: StorageConfig{
			Engine:   "sqlite",
			DataPath: "./data",
		},
		LLM: LLMConfig{
			Provider:       "ollama",
			OllamaURL:      "http://localhost:11434",
			OllamaModel:    "qwen2.5:7b",
			OpenAIModel:    "gpt-4o-mini",
			AnthropicModel: "claude-3-5-haiku-latest",
			MaxTokens:      1024,
		},
		Memory: MemoryConfig{
			SummaryWindow:     7 * 24 * time.Hour,
			SummaryMinTurns:   5,
			SummaryFetchLimit: 200,
			OracleTimeout:     30 * time.Second,
			DedupeWindow:      24 * time.Hour,
			SuggestionExpiry:  7 * 24 * time.Hour,
			SettingsCacheTTL:  time.Minute,
		},
		Scheduler: SchedulerConfig{
			SummarizeInterval: 6 * time.Hour,
			SuggestInterval:   24 * time.Hour,
			AgentType:         "proactive",
		},
		Backup: BackupConfig{
			Verify:  true,
			Hourly:  24,
			Daily:   7,
			Weekly:  4,
			Monthly: 12,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration. path names an optional YAML file; an
// empty path skips the file layer. A missing .env file is not an error.
func LoadConfig(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to load .env: %w", err)
	}

	cfg := Default()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: failed to read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: failed to parse %s: %w", path, err)
	}
	return nil
}

// applyEnv overlays LDC_ environment variables onto the current values.
func (c *Config) applyEnv() {
	c.Server.Port = getEnvInt("LDC_PORT", c.Server.Port)
	c.Server.Host = getEnv("LDC_HOST", c.Server.Host)
	c.Server.RateLimitRPS = getEnvFloat("LDC_RATE_LIMIT_RPS", c.Server.RateLimitRPS)
	c.Server.RateLimitBurst = getEnvInt("LDC_RATE_LIMIT_BURST", c.Server.RateLimitBurst)
	c.Server.APIToken = getEnv("LDC_API_TOKEN", c.Server.APIToken)

	c.Storage.Engine = getEnv("LDC_STORAGE_ENGINE", c.Storage.Engine)
	c.Storage.DataPath = getEnv("LDC_DATA_PATH", c.Storage.DataPath)
	c.Storage.PostgresDSN = getEnv("LDC_POSTGRES_DSN", c.Storage.PostgresDSN)

	c.LLM.Provider = getEnv("LDC_LLM_PROVIDER", c.LLM.Provider)
	c.LLM.OllamaURL = getEnv("LDC_OLLAMA_URL", c.LLM.OllamaURL)
	c.LLM.OllamaModel = getEnv("LDC_OLLAMA_MODEL", c.LLM.OllamaModel)
	c.LLM.OpenAIAPIKey = getEnv("LDC_OPENAI_API_KEY", c.LLM.OpenAIAPIKey)
	c.LLM.OpenAIModel = getEnv("LDC_OPENAI_MODEL", c.LLM.OpenAIModel)
	c.LLM.OpenAIBaseURL = getEnv("LDC_OPENAI_BASE_URL", c.LLM.OpenAIBaseURL)
	c.LLM.AnthropicAPIKey = getEnv("LDC_ANTHROPIC_API_KEY", c.LLM.AnthropicAPIKey)
	c.LLM.AnthropicModel = getEnv("LDC_ANTHROPIC_MODEL", c.LLM.AnthropicModel)
	c.LLM.MaxTokens = getEnvInt("LDC_LLM_MAX_TOKENS", c.LLM.MaxTokens)
	c.LLM.RequestsPerMinute = getEnvInt("LDC_LLM_REQUESTS_PER_MINUTE", c.LLM.RequestsPerMinute)

	c.Memory.SummaryWindow = getEnvDuration("LDC_SUMMARY_WINDOW", c.Memory.SummaryWindow)
	c.Memory.SummaryMinTurns = getEnvInt("LDC_SUMMARY_MIN_TURNS", c.Memory.SummaryMinTurns)
	c.Memory.SummaryFetchLimit = getEnvInt("LDC_SUMMARY_FETCH_LIMIT", c.Memory.SummaryFetchLimit)
	c.Memory.OracleTimeout = getEnvDuration("LDC_ORACLE_TIMEOUT", c.Memory.OracleTimeout)
	c.Memory.DedupeWindow = getEnvDuration("LDC_DEDUPE_WINDOW", c.Memory.DedupeWindow)
	c.Memory.SuggestionExpiry = getEnvDuration("LDC_SUGGESTION_EXPIRY", c.Memory.SuggestionExpiry)
	c.Memory.SettingsCacheTTL = getEnvDuration("LDC_SETTINGS_CACHE_TTL", c.Memory.SettingsCacheTTL)

	c.Scheduler.Enabled = getEnvBool("LDC_SCHEDULER_ENABLED", c.Scheduler.Enabled)
	c.Scheduler.SummarizeInterval = getEnvDuration("LDC_SUMMARIZE_INTERVAL", c.Scheduler.SummarizeInterval)
	c.Scheduler.SuggestInterval = getEnvDuration("LDC_SUGGEST_INTERVAL", c.Scheduler.SuggestInterval)
	c.Scheduler.AgentType = getEnv("LDC_SCHEDULER_AGENT_TYPE", c.Scheduler.AgentType)

	c.Backup.Dir = getEnv("LDC_BACKUP_DIR", c.Backup.Dir)
	c.Backup.Verify = getEnvBool("LDC_BACKUP_VERIFY", c.Backup.Verify)

	c.Logging.Level = getEnv("LDC_LOG_LEVEL", c.Logging.Level)
	c.Logging.Format = getEnv("LDC_LOG_FORMAT", c.Logging.Format)
}

// Validate checks the values that would otherwise fail late at startup.
func (c *Config) Validate() error {
	switch c.Storage.Engine {
	case "sqlite":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("config: postgres storage requires LDC_POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("config: unsupported storage engine %q", c.Storage.Engine)
	}

	switch c.LLM.Provider {
	case "ollama", "openai", "anthropic":
	default:
		return fmt.Errorf("config: unsupported LLM provider %q", c.LLM.Provider)
	}

	switch c.Logging.Format {
	case "text", "json", "pretty":
	default:
		return fmt.Errorf("config: unsupported log format %q", c.Logging.Format)
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Server.Port)
	}
	if c.Memory.SummaryMinTurns <= 0 {
		return errors.New("config: summary_min_turns must be positive")
	}
	if c.Memory.SummaryFetchLimit < c.Memory.SummaryMinTurns {
		return errors.New("config: summary_fetch_limit must be at least summary_min_turns")
	}
	if c.Memory.OracleTimeout <= 0 {
		return errors.New("config: oracle_timeout must be positive")
	}
	if c.Scheduler.Enabled && (c.Scheduler.SummarizeInterval <= 0 || c.Scheduler.SuggestInterval <= 0) {
		return errors.New("config: scheduler intervals must be positive")
	}
	if c.Backup.Hourly < 0 || c.Backup.Daily < 0 || c.Backup.Weekly < 0 || c.Backup.Monthly < 0 {
		return errors.New("config: backup retention counts must not be negative")
	}
	return nil
}

// ActiveModel returns the model name for the configured provider.
func (l LLMConfig) ActiveModel() string {
	switch l.Provider {
	case "openai":
		return l.OpenAIModel
	case "anthropic":
		return l.AnthropicModel
	default:
		return l.OllamaModel
	}
}

// getEnv retrieves a string environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns a default value.
// Unparseable values fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("90s", "6h") and a day
// suffix ("7d").
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, ok := parseDays(value); ok {
		return d
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}

func parseDays(value string) (time.Duration, bool) {
	if !strings.HasSuffix(value, "d") {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
	if err != nil {
		return 0, false
	}
	return time.Duration(n) * 24 * time.Hour, true
}

// getEnvBool recognizes "true", "1", "yes" and "false", "0", "no"
// (case-insensitive). Anything else keeps the default.
func getEnvBool(key string, defaultValue bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}
