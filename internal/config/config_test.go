package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, 30*time.Minute, cfg.Interval())
	assert.Equal(t, 100, cfg.MaxCommentsPerVideo)
	assert.True(t, cfg.CheckAlerts)
	assert.Equal(t, 100*time.Millisecond, cfg.ParseFetchDelay())
	assert.Equal(t, "./vidpulse.db", cfg.Database.Path)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.InDelta(t, -0.3, cfg.AlertThresholds.Negative, 1e-9)
	assert.InDelta(t, 0.5, cfg.AlertThresholds.Positive, 1e-9)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
api_key: file-key
video_ids:
  - vid1
  - vid2
interval_minutes: 5
max_comments_per_video: 250
fetch_delay: 2s
alert_thresholds:
  negative: -0.6
database:
  path: /tmp/other.db
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, []string{"vid1", "vid2"}, cfg.VideoIDs)
	assert.Equal(t, 5*time.Minute, cfg.Interval())
	assert.Equal(t, 250, cfg.MaxCommentsPerVideo)
	assert.Equal(t, 2*time.Second, cfg.ParseFetchDelay())
	assert.Equal(t, "/tmp/other.db", cfg.Database.Path)

	// Partial override keeps defaults for the unset fields.
	assert.InDelta(t, -0.6, cfg.AlertThresholds.Negative, 1e-9)
	assert.InDelta(t, 0.2, cfg.AlertThresholds.Drop, 1e-9)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeConfig(t, "api_key: [unclosed")
	_, err := Load(path)
	require.Error(t, err)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.IntervalMinutes)
}

func TestEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
api_key: file-key
database:
  path: /tmp/file.db
`)
	t.Setenv("YOUTUBE_API_KEY", "env-key")
	t.Setenv("VIDPULSE_DB_PATH", "/tmp/env.db")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.example/T123")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, "/tmp/env.db", cfg.Database.Path)
	assert.True(t, cfg.Notifications.Slack.Enabled)
	assert.Equal(t, "https://hooks.slack.example/T123", cfg.Notifications.Slack.WebhookURL)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.Error(t, cfg.Validate())

	cfg.APIKey = "key"
	require.Error(t, cfg.Validate())

	cfg.VideoIDs = []string{"vid1"}
	require.NoError(t, cfg.Validate())
}

func TestParseFetchDelayRejectsGarbage(t *testing.T) {
	cfg := Default()
	cfg.FetchDelay = "soon"
	assert.Equal(t, 100*time.Millisecond, cfg.ParseFetchDelay())

	cfg.FetchDelay = "-5s"
	assert.Equal(t, 100*time.Millisecond, cfg.ParseFetchDelay())
}
