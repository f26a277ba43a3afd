package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tpcministries/ldc-command-center/internal/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host, "default host must be loopback")
	assert.Equal(t, 6464, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Engine)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
	assert.Equal(t, 7*24*time.Hour, cfg.Memory.SummaryWindow)
	assert.Equal(t, 5, cfg.Memory.SummaryMinTurns)
	assert.Equal(t, 200, cfg.Memory.SummaryFetchLimit)
	assert.Equal(t, 30*time.Second, cfg.Memory.OracleTimeout)
	assert.Equal(t, 24*time.Hour, cfg.Memory.DedupeWindow)
	assert.Equal(t, 7*24*time.Hour, cfg.Memory.SuggestionExpiry)
	assert.False(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "proactive", cfg.Scheduler.AgentType)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LDC_HOST", "0.0.0.0")
	t.Setenv("LDC_PORT", "8080")
	t.Setenv("LDC_ORACLE_TIMEOUT", "5s")
	t.Setenv("LDC_SUMMARY_WINDOW", "3d")
	t.Setenv("LDC_SCHEDULER_ENABLED", "YES")
	t.Setenv("LDC_LLM_PROVIDER", "openai")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Memory.OracleTimeout)
	assert.Equal(t, 72*time.Hour, cfg.Memory.SummaryWindow)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.ActiveModel())
}

func TestLoadConfig_InvalidEnvKeepsDefault(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("LDC_PORT", "not-a-number")
	t.Setenv("LDC_DEDUPE_WINDOW", "soon")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 6464, cfg.Server.Port)
	assert.Equal(t, 24*time.Hour, cfg.Memory.DedupeWindow)
}

func TestLoadConfig_YAMLOverlay(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	path := filepath.Join(dir, "ldc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7000
memory:
  oracle_timeout: 45s
  dedupe_window: 0s
scheduler:
  enabled: true
  agent_type: nightly
logging:
  format: json
`), 0o600))

	t.Setenv("LDC_PORT", "7100")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.Server.Port, "env must win over the file")
	assert.Equal(t, 45*time.Second, cfg.Memory.OracleTimeout)
	assert.Equal(t, time.Duration(0), cfg.Memory.DedupeWindow)
	assert.True(t, cfg.Scheduler.Enabled)
	assert.Equal(t, "nightly", cfg.Scheduler.AgentType)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 200, cfg.Memory.SummaryFetchLimit, "unset file keys keep defaults")
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("LDC_DOTENV_PROBE_MODEL=llama3\n"), 0o600))

	_, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "llama3", os.Getenv("LDC_DOTENV_PROBE_MODEL"))
	t.Cleanup(func() { _ = os.Unsetenv("LDC_DOTENV_PROBE_MODEL") })
}

func TestLoadConfig_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown storage engine", func(c *config.Config) { c.Storage.Engine = "mongo" }},
		{"postgres without dsn", func(c *config.Config) { c.Storage.Engine = "postgres" }},
		{"unknown provider", func(c *config.Config) { c.LLM.Provider = "bard" }},
		{"unknown log format", func(c *config.Config) { c.Logging.Format = "xml" }},
		{"bad port", func(c *config.Config) { c.Server.Port = 0 }},
		{"zero min turns", func(c *config.Config) { c.Memory.SummaryMinTurns = 0 }},
		{"fetch limit below threshold", func(c *config.Config) { c.Memory.SummaryFetchLimit = 2 }},
		{"zero oracle timeout", func(c *config.Config) { c.Memory.OracleTimeout = 0 }},
		{"scheduler without interval", func(c *config.Config) {
			c.Scheduler.Enabled = true
			c.Scheduler.SuggestInterval = 0
		}},
		{"negative backup retention", func(c *config.Config) { c.Backup.Daily = -1 }},
	}

	require.NoError(t, config.Default().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestStorageConfig_SQLitePath(t *testing.T) {
	s := config.StorageConfig{DataPath: "/var/lib/ldc"}
	assert.Equal(t, filepath.Join("/var/lib/ldc", "ldc-memory.db"), s.SQLitePath())
}

func TestConfig_BackupDir(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.DataPath = "/var/lib/ldc"
	assert.Equal(t, filepath.Join("/var/lib/ldc", "backups"), cfg.BackupDir())

	cfg.Backup.Dir = "/mnt/snapshots"
	assert.Equal(t, "/mnt/snapshots", cfg.BackupDir())
	assert.True(t, cfg.Backup.Verify)
	assert.Equal(t, 24, cfg.Backup.Hourly)
}
