package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the client configuration
type Config struct {
	// Backend root, e.g. http://localhost:8000
	APIURL string `yaml:"api_url" mapstructure:"api_url"`

	// Where the local database lives; empty means $XDG_DATA_HOME/coreterra
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// Log destination for the TUI. CLI commands log to stderr.
	LogFile  string `yaml:"log_file" mapstructure:"log_file"`
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`

	// Serve client metrics on this address when set, e.g. 127.0.0.1:9464
	MetricsAddr string `yaml:"metrics_addr" mapstructure:"metrics_addr"`

	// Per-request timeout; 0 waits indefinitely
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		APIURL:   "http://localhost:8000",
		LogLevel: "info",
	}
}

// Load builds the configuration from, in increasing priority: defaults, the
// YAML file at path (or DefaultPath() when path is empty), a .env file in the
// working directory, and the environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("api_url", cfg.APIURL)
	v.SetDefault("data_dir", cfg.DataDir)
	v.SetDefault("log_file", cfg.LogFile)
	v.SetDefault("log_level", cfg.LogLevel)
	v.SetDefault("metrics_addr", cfg.MetricsAddr)
	v.SetDefault("timeout", cfg.Timeout)

	// VITE_API_URL is what the web client reads; honour it too
	if err := v.BindEnv("api_url", "CORETERRA_API_URL", "VITE_API_URL"); err != nil {
		return nil, err
	}
	v.SetEnvPrefix("CORETERRA")
	v.AutomaticEnv()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config file: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would only fail later
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("api_url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("api_url %q must start with http:// or https://", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("api_url %q has no host", c.APIURL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	return nil
}

// YAML renders the effective configuration
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// DefaultPath returns $XDG_CONFIG_HOME/coreterra/config.yaml
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "coreterra", "config.yaml")
}
