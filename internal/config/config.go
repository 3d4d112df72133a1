package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vidpulse/vidpulse/internal/monitor"
	"github.com/vidpulse/vidpulse/pkg/sentiment"
)

// Config is the root configuration.
type Config struct {
	APIKey              string   `yaml:"api_key"`
	VideoIDs            []string `yaml:"video_ids"`
	IntervalMinutes     int      `yaml:"interval_minutes"`
	MaxCommentsPerVideo int      `yaml:"max_comments_per_video"`
	CheckAlerts         bool     `yaml:"check_alerts"`
	FetchDelay          string   `yaml:"fetch_delay"`
	LogLevel            string   `yaml:"log_level"`

	AlertThresholds monitor.Thresholds   `yaml:"alert_thresholds"`
	Sentiment       sentiment.Thresholds `yaml:"sentiment_thresholds"`
	Database        DatabaseConfig       `yaml:"database"`
	Server          ServerConfig         `yaml:"server"`
	Notifications   NotificationsConfig  `yaml:"notifications"`
}

// DatabaseConfig configures SQLite storage.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// NotificationsConfig configures alert notification destinations.
type NotificationsConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
	Webhook WebhookConfig `yaml:"webhook"`
}

// SlackConfig for Slack webhook notifications.
type SlackConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DiscordConfig for Discord webhook notifications.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// WebhookConfig for generic webhook notifications.
type WebhookConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Secret  string `yaml:"secret"`
}

// Interval returns the monitoring interval as a duration.
func (c *Config) Interval() time.Duration {
	if c.IntervalMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.IntervalMinutes) * time.Minute
}

// ParseFetchDelay returns the post-fetch delay as a duration.
func (c *Config) ParseFetchDelay() time.Duration {
	d, err := time.ParseDuration(c.FetchDelay)
	if err != nil || d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		IntervalMinutes:     30,
		MaxCommentsPerVideo: 100,
		CheckAlerts:         true,
		FetchDelay:          "100ms",
		LogLevel:            "info",
		AlertThresholds:     monitor.DefaultThresholds(),
		Sentiment:           sentiment.DefaultThresholds(),
		Database:            DatabaseConfig{Path: "./vidpulse.db"},
		Server:              ServerConfig{Port: 8080},
	}
}

// Load reads configuration from a YAML file and applies env var overrides.
// An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// Validate checks the settings a monitoring run cannot start without.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("config: API key required (set api_key or YOUTUBE_API_KEY)")
	}
	if len(c.VideoIDs) == 0 {
		return fmt.Errorf("config: no videos configured (set video_ids)")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("YOUTUBE_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("VIDPULSE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("SLACK_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Slack.WebhookURL = v
		cfg.Notifications.Slack.Enabled = true
	}
	if v := os.Getenv("DISCORD_WEBHOOK_URL"); v != "" {
		cfg.Notifications.Discord.WebhookURL = v
		cfg.Notifications.Discord.Enabled = true
	}
}
