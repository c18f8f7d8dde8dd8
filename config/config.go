// Package config loads service settings from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	DriverGorm   = "gorm"
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
)

// Config holds every setting of the rewards service.
type Config struct {
	// --- HTTP ---
	HTTPAddr          string `envconfig:"HTTP_ADDR" default:":5200"`
	ServiceToken      string `envconfig:"REWARDS_SERVICE_TOKEN"`
	AllowedOriginsRaw string `envconfig:"ALLOWED_ORIGINS"`

	// --- Application ---
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"info"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"UTC"`

	// --- Storage ---
	StoreDriver string `envconfig:"STORE_DRIVER" default:"gorm"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"rewards.db"`

	// --- Leaderboard ---
	LeaderboardDefaultLimit int `envconfig:"LEADERBOARD_DEFAULT_LIMIT" default:"10"`

	// --- R2 snapshots ---
	CloudflareAccountID string        `envconfig:"CLOUDFLARE_ACCOUNT_ID"`
	R2AccessKeyID       string        `envconfig:"R2_ACCESS_KEY_ID"`
	R2AccessKeySecret   string        `envconfig:"R2_ACCESS_KEY_SECRET"`
	R2BucketName        string        `envconfig:"R2_BUCKET_NAME"`
	CDNBaseURL          string        `envconfig:"CDN_BASE_URL"`
	SnapshotInterval    time.Duration `envconfig:"SNAPSHOT_INTERVAL" default:"1h"`
	SnapshotLimit       int           `envconfig:"SNAPSHOT_LIMIT" default:"100"`
}

// Load reads the environment into a validated Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg.StoreDriver = strings.ToLower(strings.TrimSpace(cfg.StoreDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverGorm:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for STORE_DRIVER=%s", DriverGorm)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for STORE_DRIVER=%s", DriverSQLite)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q (want gorm, sqlite or memory)", c.StoreDriver)
	}
	if c.LeaderboardDefaultLimit < 1 || c.LeaderboardDefaultLimit > 100 {
		return fmt.Errorf("LEADERBOARD_DEFAULT_LIMIT must be between 1 and 100")
	}
	if _, err := time.LoadLocation(c.AppTimezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE %q: %w", c.AppTimezone, err)
	}
	if c.R2Enabled() {
		if c.SnapshotInterval <= 0 {
			return fmt.Errorf("SNAPSHOT_INTERVAL must be > 0")
		}
		if c.SnapshotLimit < 1 || c.SnapshotLimit > 100 {
			return fmt.Errorf("SNAPSHOT_LIMIT must be between 1 and 100")
		}
	}
	return nil
}

// Location is the zone whose calendar day counts for streaks.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// AllowedOrigins returns the CORS origin list, "*" when unset.
func (c *Config) AllowedOrigins() string {
	parts := strings.Split(c.AllowedOriginsRaw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return "*"
	}
	return strings.Join(out, ",")
}

// R2Enabled reports whether leaderboard snapshots can be uploaded.
func (c *Config) R2Enabled() bool {
	return c.CloudflareAccountID != "" && c.R2AccessKeyID != "" &&
		c.R2AccessKeySecret != "" && c.R2BucketName != ""
}
