package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Album      AlbumConfig      `yaml:"album"`
	Storage    StorageConfig    `yaml:"storage"`
	YouTube    YouTubeConfig    `yaml:"youtube"`
	AI         AIConfig         `yaml:"ai"`
	Email      EmailConfig      `yaml:"email"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule"`
}

type AlbumConfig struct {
	Slug       string `yaml:"slug"`
	Title      string `yaml:"title"`
	Artist     string `yaml:"artist"`
	ChannelID  string `yaml:"channel_id"`
	PlaylistID string `yaml:"playlist_id"`
}

type StorageConfig struct {
	Path string `yaml:"path"`
}

type YouTubeConfig struct {
	APIKey string `yaml:"api_key" env:"YOUTUBE_API_KEY"`

	// Snapshots are only captured inside this UTC hour window so that
	// successive captures are comparable day over day.
	SnapshotStartHourUTC int `yaml:"snapshot_start_hour_utc"`
	SnapshotEndHourUTC   int `yaml:"snapshot_end_hour_utc"`

	// Playlist entries shorter than this are never matched to a track.
	MinMatchSeconds int `yaml:"min_match_seconds"`
}

type AIConfig struct {
	GeminiAPIKey string `yaml:"gemini_api_key" env:"GEMINI_API_KEY"`
	Model        string `yaml:"model"`
}

type EmailConfig struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username" env:"EMAIL_USERNAME"`
	Password   string `yaml:"password" env:"EMAIL_PASSWORD"`
	FromEmail  string `yaml:"from_email"`
	ToEmail    string `yaml:"to_email"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configFile, err)
	}

	if cfg.YouTube.APIKey == "" {
		cfg.YouTube.APIKey = os.Getenv("YOUTUBE_API_KEY")
	}
	if cfg.AI.GeminiAPIKey == "" {
		cfg.AI.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Email.Username == "" {
		cfg.Email.Username = os.Getenv("EMAIL_USERNAME")
	}
	if cfg.Email.Password == "" {
		cfg.Email.Password = os.Getenv("EMAIL_PASSWORD")
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Storage.Path == "" {
		c.Storage.Path = "data/album.db"
	}
	if c.YouTube.SnapshotStartHourUTC == 0 && c.YouTube.SnapshotEndHourUTC == 0 {
		c.YouTube.SnapshotStartHourUTC = 18
		c.YouTube.SnapshotEndHourUTC = 22
	}
	if c.YouTube.MinMatchSeconds == 0 {
		c.YouTube.MinMatchSeconds = 30
	}
	if c.AI.Model == "" {
		c.AI.Model = "gemini-2.5-flash"
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 30 19 * * *" // Daily at 19:30 UTC, inside the snapshot window
	}
}

func (c *Config) validate() error {
	if c.Album.Slug == "" {
		return fmt.Errorf("album slug is required (album.slug)")
	}
	if c.Album.Title == "" {
		return fmt.Errorf("album title is required (album.title)")
	}
	if c.YouTube.SnapshotStartHourUTC < 0 || c.YouTube.SnapshotStartHourUTC > 23 ||
		c.YouTube.SnapshotEndHourUTC < 0 || c.YouTube.SnapshotEndHourUTC > 24 {
		return fmt.Errorf("snapshot window hours must be within a UTC day")
	}
	if c.YouTube.SnapshotStartHourUTC >= c.YouTube.SnapshotEndHourUTC {
		return fmt.Errorf("snapshot window start hour must be before end hour")
	}
	if c.EmailConfigured() {
		if c.Email.SMTPServer == "" || c.Email.SMTPPort == 0 {
			return fmt.Errorf("smtp server and port are required when email is configured")
		}
		if c.Email.FromEmail == "" || c.Email.ToEmail == "" {
			return fmt.Errorf("from and to addresses are required when email is configured")
		}
	}
	return nil
}

// EmailConfigured reports whether digest emails should be sent at all.
// Leaving the username empty disables the email path entirely.
func (c *Config) EmailConfigured() bool {
	return c.Email.Username != ""
}

// AIConfigured reports whether digest commentary is enabled.
func (c *Config) AIConfigured() bool {
	return c.AI.GeminiAPIKey != ""
}
