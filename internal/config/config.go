package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config struct for environment variables.
type Config struct {
	SupabaseURL         string `envconfig:"SUPABASE_URL" required:"true"`
	SupabaseAPIKey      string `envconfig:"SUPABASE_API_KEY" required:"true"`
	SupabaseAccessToken string `envconfig:"SUPABASE_ACCESS_TOKEN"`

	ScratchDir   string `envconfig:"SCRATCH_DIR" default:"/tmp/resource_downloader"`
	DownloadsDir string `envconfig:"DOWNLOADS_DIR"`
	MediaRootDir string `envconfig:"MEDIA_ROOT_DIR"`
	ShareOutbox  string `envconfig:"SHARE_OUTBOX"`

	KeepScratchFor time.Duration `envconfig:"KEEP_SCRATCH_FOR" default:"24h"`
	SyncInterval   time.Duration `envconfig:"SYNC_INTERVAL" default:"10m"`
	InboxInterval  time.Duration `envconfig:"INBOX_INTERVAL" default:"1m"`

	LogLevel          string `envconfig:"LOG_LEVEL" default:"INFO"`
	DiscordWebhookURL string `envconfig:"DISCORD_WEBHOOK_URL"`
	DBPath            string `envconfig:"DB_PATH" default:"downloads.db"`
	MaxParallel       int    `envconfig:"MAX_PARALLEL" default:"3"`

	Telemetry struct {
		Enabled        bool   `split_words:"true" default:"true"`
		ServiceName    string `split_words:"true" default:"resource_downloader"`
		ServiceVersion string `split_words:"true" default:"dev"`
	}

	Web struct {
		BindAddress     string        `split_words:"true" default:"0.0.0.0:9095"`
		ReadTimeout     time.Duration `split_words:"true" default:"30s"`
		WriteTimeout    time.Duration `split_words:"true" default:"30s"`
		IdleTimeout     time.Duration `split_words:"true" default:"5s"`
		ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
	}
}

// LoadConfig reads environment variables and populates the Config struct.
// A .env file in the working directory is loaded first when present.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env: %w", err)
	}

	return &cfg, nil
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
