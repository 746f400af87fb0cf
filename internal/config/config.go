package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Keys understood by New. Each key is also read from the upper-cased
// environment variable of the same name (PORT, SERVER_URL, ...).
const (
	KeyPort              = "port"
	KeyServerURL         = "server_url"
	KeyLogLevel          = "log_level"
	KeyLogPretty         = "log_pretty"
	KeySeedFile          = "seed_file"
	KeyCSSFile           = "css_file"
	KeyJSFile            = "js_file"
	KeyHeartbeatInterval = "heartbeat_interval"
)

// DefaultEnvFile is loaded by Load when no env files are given.
const DefaultEnvFile = ".env"

// Config is the process configuration shared by the serve and mcp commands.
type Config struct {
	Port              int           `mapstructure:"port"`
	ServerURL         string        `mapstructure:"server_url"`
	LogLevel          string        `mapstructure:"log_level"`
	LogPretty         bool          `mapstructure:"log_pretty"`
	SeedFile          string        `mapstructure:"seed_file"`
	CSSFile           string        `mapstructure:"css_file"`
	JSFile            string        `mapstructure:"js_file"`
	HeartbeatInterval time.Duration `mapstructure:"heartbeat_interval"`
}

// New returns a viper instance with defaults and environment binding.
// Commands bind their flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyPort, 3000)
	v.SetDefault(KeyServerURL, "http://localhost:3000")
	v.SetDefault(KeyLogLevel, "INFO")
	v.SetDefault(KeyLogPretty, false)
	v.SetDefault(KeySeedFile, "")
	v.SetDefault(KeyCSSFile, "")
	v.SetDefault(KeyJSFile, "")
	v.SetDefault(KeyHeartbeatInterval, 2*time.Second)
	v.AutomaticEnv()
	return v
}

// Load reads env files into the process environment (existing variables
// win), then resolves v into a Config. Missing env files are ignored.
// Priority, highest first: bound flags, environment, env files, defaults.
func Load(v *viper.Viper, envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{DefaultEnvFile}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	u, err := url.Parse(c.ServerURL)
	if err != nil {
		return fmt.Errorf("server url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server url %q must be an absolute http(s) URL", c.ServerURL)
	}
	if c.HeartbeatInterval < 0 {
		return fmt.Errorf("heartbeat interval %s must not be negative", c.HeartbeatInterval)
	}
	return nil
}

// BaseURL returns ServerURL without a trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.ServerURL, "/")
}
