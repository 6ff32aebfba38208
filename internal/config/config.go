package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all runtime settings for the application.
type Config struct {
	Env  string
	Mode string // "dev" or "prod", controls log output

	// Storage
	DBType      string // "sqlite" or "postgres"
	DatabaseURL string // postgres DSN; ignored for sqlite
	DataDir     string

	// Chat platforms
	TelegramToken      string
	SlackBotToken      string
	SlackSigningSecret string
	SlackAddr          string // listen address for the Slack webhook server
	AdminUserIDs       []int64

	// Web API
	HTTPAddr      string
	JWTSecret     string
	JWTExpiration time.Duration

	// Feedback cache
	RedisAddr    string
	CacheTimeout time.Duration

	// Scheduler
	SchedulerEnabled      bool
	NotificationStartHour int
	NotificationEndHour   int
}

// Load reads configuration from the environment, with an optional .env file
// and viper-managed defaults.
func Load() (*Config, error) {
	// Load .env if present; a missing file is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.SetTypeByDefaultValue(true)
	v.SetDefault("env", "dev")
	v.SetDefault("db_type", "sqlite")
	v.SetDefault("data_dir", "data")
	v.SetDefault("http_addr", ":8080")
	v.SetDefault("slack_addr", ":8081")
	v.SetDefault("jwt_expiration", 7*24*time.Hour)
	v.SetDefault("cache_timeout", 30*time.Minute)
	v.SetDefault("enable_scheduler", true)
	v.SetDefault("notification_start_hour", 8)
	v.SetDefault("notification_end_hour", 22)
	v.AutomaticEnv()

	cfg := &Config{
		Env:                   v.GetString("env"),
		Mode:                  v.GetString("env"),
		DBType:                v.GetString("db_type"),
		DatabaseURL:           v.GetString("database_url"),
		DataDir:               v.GetString("data_dir"),
		TelegramToken:         v.GetString("telegram_bot_token"),
		SlackBotToken:         v.GetString("slack_bot_token"),
		SlackSigningSecret:    v.GetString("slack_signing_secret"),
		SlackAddr:             v.GetString("slack_addr"),
		HTTPAddr:              v.GetString("http_addr"),
		JWTSecret:             v.GetString("jwt_secret"),
		JWTExpiration:         v.GetDuration("jwt_expiration"),
		RedisAddr:             v.GetString("redis_addr"),
		CacheTimeout:          v.GetDuration("cache_timeout"),
		SchedulerEnabled:      v.GetBool("enable_scheduler"),
		NotificationStartHour: v.GetInt("notification_start_hour"),
		NotificationEndHour:   v.GetInt("notification_end_hour"),
	}
	cfg.AdminUserIDs = parseAdminIDs(os.Getenv("ADMIN_USER_IDS"))
	return cfg, nil
}

// parseAdminIDs parses a comma-separated list of numeric user IDs. Invalid
// entries are skipped.
func parseAdminIDs(raw string) []int64 {
	if raw == "" {
		return nil
	}
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// IsAdmin reports whether the given platform user ID is configured as admin.
func (c *Config) IsAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
