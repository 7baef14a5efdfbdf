// Package config defines the application configuration and its defaults,
// loaded through viper from file, environment and flags.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/planline/planline/internal/schedule"
)

// Config is the full application configuration.
type Config struct {
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Store     StoreConfig     `mapstructure:"store"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SchedulerConfig controls batch selection.
type SchedulerConfig struct {
	// MaxParallel caps the number of tasks dispatched per batch.
	// Zero or negative means unlimited.
	MaxParallel int `mapstructure:"max_parallel"`

	// Strategy names the dispatch strategy.
	Strategy string `mapstructure:"strategy"`
}

// StoreConfig controls status persistence.
type StoreConfig struct {
	// MaxRetries is the per-task retry ceiling.
	MaxRetries int `mapstructure:"max_retries"`

	// StaleAfterMinutes is how long a task may sit in_progress before a
	// sweep fails it.
	StaleAfterMinutes int `mapstructure:"stale_after_minutes"`

	// DirName is the state directory created next to the plan file.
	DirName string `mapstructure:"dir_name"`
}

// LoggingConfig controls the debug log.
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// SetDefaults registers default values on the given viper instance.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("scheduler.max_parallel", 4)
	v.SetDefault("scheduler.strategy", schedule.DefaultStrategy)
	v.SetDefault("store.max_retries", 3)
	v.SetDefault("store.stale_after_minutes", 30)
	v.SetDefault("store.dir_name", ".planline")
	v.SetDefault("logging.level", "INFO")
}

// Load unmarshals and validates the configuration.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if _, err := schedule.ForName(c.Scheduler.Strategy); err != nil {
		return err
	}
	if c.Store.MaxRetries < 0 {
		return fmt.Errorf("store.max_retries must be >= 0, got %d", c.Store.MaxRetries)
	}
	if c.Store.StaleAfterMinutes <= 0 {
		return fmt.Errorf("store.stale_after_minutes must be > 0, got %d", c.Store.StaleAfterMinutes)
	}
	if c.Store.DirName == "" {
		return fmt.Errorf("store.dir_name must not be empty")
	}
	return nil
}
