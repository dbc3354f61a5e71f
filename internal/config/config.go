package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Covers
		OpenLibrary
		LiveActivity
		Tasks
		StreakRefresh
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	Covers struct {
		Dir string // Directory for locally cached cover images
	}

	OpenLibrary struct {
		BaseURL string
	}

	LiveActivity struct {
		WebhookURL string // Ambient display endpoint; empty disables pushes
	}

	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}

	StreakRefresh struct {
		Enabled  bool
		Schedule string // Cron format: "5 0 * * *" = nightly at 00:05
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8178)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("covers_dir", "")
	v.SetDefault("openlibrary_base_url", "https://openlibrary.org")
	v.SetDefault("live_activity_webhook_url", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_workers", 2)
	v.SetDefault("tasks_max_retries", 3)
	v.SetDefault("tasks_retry_delay", "1m")
	v.SetDefault("tasks_timeout", "5m")
	v.SetDefault("tasks_release_after", "15m")
	v.SetDefault("tasks_cleanup_interval", "1h")
	v.SetDefault("tasks_retention_duration", "24h")

	// Streak refresh scheduler defaults
	v.SetDefault("streak_refresh_enabled", true)
	v.SetDefault("streak_refresh_schedule", "5 0 * * *") // Nightly at 00:05

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("port"),
			Host: v.GetString("host"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("shutdown_timeout_in_seconds"),
		},
		Database: Database{
			Path: v.GetString("database_path"),
		},
		Covers: Covers{
			Dir: v.GetString("covers_dir"),
		},
		OpenLibrary: OpenLibrary{
			BaseURL: v.GetString("openlibrary_base_url"),
		},
		LiveActivity: LiveActivity{
			WebhookURL: v.GetString("live_activity_webhook_url"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("tasks_enabled"),
			Workers:           v.GetInt("tasks_workers"),
			MaxRetries:        v.GetInt("tasks_max_retries"),
			RetryDelay:        v.GetDuration("tasks_retry_delay"),
			TaskTimeout:       v.GetDuration("tasks_timeout"),
			ReleaseAfter:      v.GetDuration("tasks_release_after"),
			CleanupInterval:   v.GetDuration("tasks_cleanup_interval"),
			RetentionDuration: v.GetDuration("tasks_retention_duration"),
		},
		StreakRefresh: StreakRefresh{
			Enabled:  v.GetBool("streak_refresh_enabled"),
			Schedule: v.GetString("streak_refresh_schedule"),
		},
	}
}
