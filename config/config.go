// Package config loads server configuration from config.toml, MEALPLAN_*
// environment variables and built-in defaults (highest priority first:
// env, file, defaults).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Log       LogConfig
	Auth      AuthConfig
	Freeze    FreezeConfig
	Scheduler SchedulerConfig
	Templates TemplatesConfig
	HTTP      HTTPConfig
}

type AppConfig struct {
	Name string
	Env  string
	Port int
}

type DatabaseConfig struct {
	Path string // SQLite file path, ":memory:" for an in-memory database
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

type AuthConfig struct {
	JWTSecret string
	Issuer    string
	// DevBypass accepts X-User-ID / X-User-Role headers instead of a token.
	// Only honoured outside production.
	DevBypass bool
}

type FreezeConfig struct {
	Timezone string
}

type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

type TemplatesConfig struct {
	Path string // directory of *.json / *.yaml templates, empty for built-ins only
}

type HTTPConfig struct {
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	CORSOrigins     []string
}

// IsProduction reports whether the app runs in the production environment.
func (c *Config) IsProduction() bool { return c.App.Env == "production" }

// Location resolves the freeze time zone.
func (c *Config) Location() (*time.Location, error) {
	if c.Freeze.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Freeze.Timezone)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "mealplan-engine")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", 8080)
	v.SetDefault("database.path", "mealplans.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
	v.SetDefault("auth.issuer", "mealplan-engine")
	v.SetDefault("auth.dev_bypass", false)
	v.SetDefault("freeze.timezone", "UTC")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", time.Hour)
	v.SetDefault("templates.path", "")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 15*time.Second)
	v.SetDefault("http.idle_timeout", 60*time.Second)
	v.SetDefault("http.shutdown_timeout", 30*time.Second)
	v.SetDefault("http.cors_origins", []string{"http://localhost:5173", "http://localhost:8080"})
}

// Load reads configuration. configFile may be empty to search the default
// locations (".", "/etc/mealplan").
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/mealplan")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || configFile != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("MEALPLAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetInt("app.port"),
		},
		Database: DatabaseConfig{Path: v.GetString("database.path")},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			Issuer:    v.GetString("auth.issuer"),
			DevBypass: v.GetBool("auth.dev_bypass"),
		},
		Freeze: FreezeConfig{Timezone: v.GetString("freeze.timezone")},
		Scheduler: SchedulerConfig{
			Enabled:  v.GetBool("scheduler.enabled"),
			Interval: v.GetDuration("scheduler.interval"),
		},
		Templates: TemplatesConfig{Path: v.GetString("templates.path")},
		HTTP: HTTPConfig{
			ReadTimeout:     v.GetDuration("http.read_timeout"),
			WriteTimeout:    v.GetDuration("http.write_timeout"),
			IdleTimeout:     v.GetDuration("http.idle_timeout"),
			ShutdownTimeout: v.GetDuration("http.shutdown_timeout"),
			CORSOrigins:     v.GetStringSlice("http.cors_origins"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at first use.
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("app.port must be between 1 and 65535, got %d", c.App.Port)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.IsProduction() && c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required in production")
	}
	if c.IsProduction() && c.Auth.DevBypass {
		return fmt.Errorf("auth.dev_bypass cannot be enabled in production")
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("freeze.timezone: %w", err)
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive")
	}
	return nil
}
