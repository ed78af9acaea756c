package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
app:
  name: shelf-edge
  log_level: debug
detector:
  url: http://localhost:8080/image
  min_confidence: 0.3
planogram:
  overlap_threshold: 0.3
  items:
    - label: bottle
      expected: 1
      zones:
        - {left: 0.1, top: 0.05, width: 0.3, height: 0.85}
    - label: tea bottle
      expected: 1
      perishable: true
      zones:
        - {left: 0.4, top: 0.3, width: 0.25, height: 0.7}
storage:
  driver: sqlite
  dsn: ./data/history.db
redis:
  addr: localhost:6379
workers:
  - name: shelf-check
    source: ticker
    interval: 30s
    processor:
      timeout: 90s
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "worker.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("STOCK_REDIS_PASSWORD", "from-env")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "shelf-edge", cfg.App.Name)
	assert.Equal(t, "5001", cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.EventHeartbeat)
	assert.Equal(t, 3*time.Second, cfg.Camera.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Detector.Timeout)
	assert.Equal(t, 0.3, cfg.Detector.MinConfidence)
	assert.Equal(t, 100, cfg.Storage.HistoryLimit)
	assert.Equal(t, "from-env", cfg.Redis.Password)
	assert.Equal(t, "shelf_check_complete", cfg.Redis.Channel)

	require.Len(t, cfg.Workers, 1)
	w := cfg.Workers[0]
	assert.Equal(t, 30*time.Second, w.Interval)
	assert.Equal(t, 90*time.Second, w.Processor.Timeout)
	assert.Equal(t, 1, w.Subscriber.Threads)
	assert.Equal(t, "shelf_check", w.ActionType)

	p, err := cfg.Planogram.BuildPlanogram()
	require.NoError(t, err)
	assert.Equal(t, []string{"bottle", "tea bottle"}, p.Labels())
	assert.True(t, p.IsPerishable("tea bottle"))
	assert.Equal(t, 0.3, p.Thresholds().Overlap)
	assert.Equal(t, 0.25, p.Thresholds().ZoneFraction)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "detector:\n  url: http://detector/image\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Len(t, cfg.Planogram.Items, 3)
	require.Len(t, cfg.Workers, 1)
	assert.Equal(t, SourceTicker, cfg.Workers[0].Source)
	assert.Equal(t, time.Minute, cfg.Workers[0].Interval)
	assert.Equal(t, 0.5, cfg.Detector.MinConfidence)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load(writeConfig(t, sampleYAML))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{"detector url", func(c *Config) { c.Detector.URL = "" }, "detector.url"},
		{"negative expected", func(c *Config) { c.Planogram.Items[0].Expected = -1 }, "planogram"},
		{"zero area zone", func(c *Config) { c.Planogram.Items[0].Zones[0].Width = 0 }, "zero area"},
		{"storage driver", func(c *Config) { c.Storage.Driver = "postgres" }, "storage.driver"},
		{"storage dsn", func(c *Config) { c.Storage.DSN = "" }, "storage.dsn"},
		{"telegram chat", func(c *Config) { c.Telegram.Token = "t" }, "telegram.chat_id"},
		{"lmstfy source", func(c *Config) { c.Workers[0].Source = SourceLmstfy }, "lmstfy.host"},
		{"unknown source", func(c *Config) { c.Workers[0].Source = "kafka" }, "unknown source"},
		{"ticker interval", func(c *Config) { c.Workers[0].Interval = 0 }, "interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
