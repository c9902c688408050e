package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prehisle/ydms-sub001/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8060, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "ydms", cfg.Database.DBName)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 3, cfg.Batch.DefaultConcurrency)
	assert.Equal(t, 20, cfg.Batch.MaxConcurrency)
	assert.Equal(t, 30*time.Minute, cfg.Batch.StaleAfter)
	assert.Equal(t, 2*time.Second, cfg.Workflow.PollInterval)
	assert.Equal(t, 2*time.Second, cfg.Sync.PollInterval)
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
debug: true
server:
  port: 9090
batch:
  default_concurrency: 5
  max_concurrency: 10
workflow:
  base_url: http://workflow.internal/api/v1
  poll_interval: 500ms
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.True(t, cfg.Debug)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Batch.DefaultConcurrency)
	assert.Equal(t, 10, cfg.Batch.MaxConcurrency)
	assert.Equal(t, "http://workflow.internal/api/v1", cfg.Workflow.BaseURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Workflow.PollInterval)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	assert.Equal(t, 8060, cfg.Server.Port)
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "zero default concurrency",
			content: `
batch:
  default_concurrency: 0
`,
		},
		{
			name: "max below default",
			content: `
batch:
  default_concurrency: 10
  max_concurrency: 2
`,
		},
		{
			name: "missing database name",
			content: `
database:
  dbname: ""
`,
		},
		{
			name: "non-positive poll interval",
			content: `
sync:
  poll_interval: 0s
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}
