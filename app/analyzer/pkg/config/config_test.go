package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_DefaultsAndEnv(t *testing.T) {
	t.Setenv("PR_TEST_KEY", "sk-123")

	cfg, err := Parse([]byte(`
llm:
  api_key: ${PR_TEST_KEY}
  model: gpt-4o-mini
storage:
  driver: sqlite
  sqlite:
    path: /tmp/reports.db
`))
	require.NoError(t, err)

	assert.Equal(t, "sk-123", cfg.LLM.APIKey)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 60, cfg.Concurrency.RPM)
	assert.Equal(t, 1, cfg.Concurrency.QPS)
	assert.Equal(t, "Castiel Bits Backup", cfg.Backup.Source)
	assert.Equal(t, "Pedro (Eu)", cfg.Evolution.SelfName)
	assert.Equal(t, 30, cfg.Report.TrendDays)
	assert.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Parse([]byte("llm: {api_key: k, model: m}"))
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	assert.NoError(t, cfg.Validate())

	cfg = base()
	cfg.LLM.APIKey = ""
	assert.Error(t, cfg.Validate())
	assert.NoError(t, cfg.ValidateStorage())

	cfg = base()
	cfg.Storage.Driver = "mongo"
	assert.ErrorContains(t, cfg.Validate(), "unknown storage driver")

	cfg = base()
	cfg.Storage.Driver = "postgres"
	assert.ErrorContains(t, cfg.Validate(), "db host")

	cfg = base()
	cfg.Report.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, cfg.Validate(), "timezone")
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm:\n  model: claude\n  provider: anthropic\n"), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "claude", cfg.LLM.Model)

	_, err = LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestDBConfig_DSN(t *testing.T) {
	c := DBConfig{Host: "db", Port: 5432, User: "u", Password: "p", Name: "n"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", c.DSN())
}
