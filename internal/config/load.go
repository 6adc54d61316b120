package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. STUDY_SERVER_PORT.
const EnvPrefix = "STUDY"

// Load configuration from a .env file, an optional config.yaml and
// environment variables, in increasing order of precedence.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// The prestige overrides have no default, since the catalog supplies
	// one, so their environment keys are bound explicitly.
	_ = v.BindEnv("economy.purchase_prestige")
	_ = v.BindEnv("economy.hard_bonus")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks struct constraints and the values validator tags cannot express.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := cfg.Scheduler.Location(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if _, err := cfg.Review.IntervalDays(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// setDefaults registers every key so environment overrides are picked up
// by Unmarshal even when no config file mentions them.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.url", "")
	v.SetDefault("database.tx_timeout", "10s")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("auth.jwt_secret", "")

	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.advance_interval", "5m")
	v.SetDefault("scheduler.decay_at", "00:05")
	v.SetDefault("scheduler.timezone", "UTC")
	v.SetDefault("scheduler.daily_cap", 10)

	v.SetDefault("review.intervals", "1:1,2:2,3:4,4:7,5:14")

	v.SetDefault("study.xp_per_session", 10)
	v.SetDefault("study.gems_per_session", 1)

	v.SetDefault("economy.catalog_path", "")
}
