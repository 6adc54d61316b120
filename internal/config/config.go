package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig    `mapstructure:"server" validate:"required"`
	Database  DatabaseConfig  `mapstructure:"database" validate:"required"`
	Auth      AuthConfig      `mapstructure:"auth" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler" validate:"required"`
	Review    ReviewConfig    `mapstructure:"review" validate:"required"`
	Study     StudyConfig     `mapstructure:"study" validate:"required"`
	Economy   EconomyConfig   `mapstructure:"economy"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
	// TxTimeout bounds every unit of work run against the database.
	TxTimeout    time.Duration `mapstructure:"tx_timeout" validate:"required"`
	MaxOpenConns int           `mapstructure:"max_open_conns" validate:"gte=1"`
}

// AuthConfig contains the settings used to verify bearer tokens issued by
// the external auth service.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret" validate:"required,min=32"`
}

// SchedulerConfig controls the background review scheduler.
type SchedulerConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	AdvanceInterval time.Duration `mapstructure:"advance_interval" validate:"required"`
	// DecayAt is the local wall-clock time (HH:MM) of the daily streak decay.
	DecayAt  string `mapstructure:"decay_at" validate:"required,datetime=15:04"`
	Timezone string `mapstructure:"timezone" validate:"required"`
	// DailyCap is the global number of topics allowed in today.
	DailyCap int `mapstructure:"daily_cap" validate:"gte=0"`
}

// Location resolves the configured timezone.
func (c SchedulerConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid scheduler timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ReviewConfig holds the score to review interval table.
type ReviewConfig struct {
	// Intervals is a comma separated list of score:days pairs,
	// e.g. "1:1,2:2,3:4,4:7,5:14".
	Intervals string `mapstructure:"intervals" validate:"required"`
}

// IntervalDays parses Intervals into a score to days map.
func (c ReviewConfig) IntervalDays() (map[int]int, error) {
	out := make(map[int]int)
	for _, pair := range strings.Split(c.Intervals, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		score, days, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("review interval %q: expected score:days", pair)
		}
		s, err := strconv.Atoi(strings.TrimSpace(score))
		if err != nil {
			return nil, fmt.Errorf("review interval %q: invalid score: %w", pair, err)
		}
		d, err := strconv.Atoi(strings.TrimSpace(days))
		if err != nil {
			return nil, fmt.Errorf("review interval %q: invalid days: %w", pair, err)
		}
		if _, dup := out[s]; dup {
			return nil, fmt.Errorf("review interval for score %d given twice", s)
		}
		out[s] = d
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("review intervals are empty")
	}
	return out, nil
}

// StudyConfig sets the rewards for a completed study session.
type StudyConfig struct {
	XPPerSession   int `mapstructure:"xp_per_session" validate:"gte=0"`
	GemsPerSession int `mapstructure:"gems_per_session" validate:"gte=0"`
}

// EconomyConfig locates the economy catalog and optionally overrides its
// prestige rules. A nil override keeps the catalog's value.
type EconomyConfig struct {
	// CatalogPath is an optional YAML catalog replacing the embedded default.
	CatalogPath      string `mapstructure:"catalog_path"`
	PurchasePrestige *int   `mapstructure:"purchase_prestige" validate:"omitempty,gte=0"`
	HardBonus        *int   `mapstructure:"hard_bonus" validate:"omitempty,gte=0"`
}
