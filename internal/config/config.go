// Package config loads rojifictl settings from an optional config file and
// ROJIFI_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Session store kinds.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

// Config holds all rojifictl configuration
type Config struct {
	API     APIConfig
	View    ViewConfig
	Session SessionConfig
	Log     LogConfig
	Metrics MetricsConfig
}

// APIConfig holds transport settings
type APIConfig struct {
	BaseURL   string
	Timeout   time.Duration
	Retries   int
	RateLimit float64 // requests per second, 0 disables
	RateBurst int
}

// ViewConfig holds list view defaults
type ViewConfig struct {
	Debounce time.Duration
	Limit    int
}

// SessionConfig selects where the session is persisted
type SessionConfig struct {
	Store string // file, sqlite, memory
	Path  string
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string
	Format string
	Output string
}

// MetricsConfig toggles client metrics
type MetricsConfig struct {
	Enabled bool
}

// Load reads configuration. path names an explicit config file; when empty,
// a file called "rojifi" (any format viper reads) is looked up in the working
// directory and in ~/.rojifi. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("rojifi")
		v.AddConfigPath(".")
		if dir, err := defaultDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("ROJIFI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		API: APIConfig{
			BaseURL:   v.GetString("api.base_url"),
			Timeout:   v.GetDuration("api.timeout"),
			Retries:   v.GetInt("api.retries"),
			RateLimit: v.GetFloat64("api.rate_limit"),
			RateBurst: v.GetInt("api.rate_burst"),
		},
		View: ViewConfig{
			Debounce: v.GetDuration("view.debounce"),
			Limit:    v.GetInt("view.limit"),
		},
		Session: SessionConfig{
			Store: strings.ToLower(v.GetString("session.store")),
			Path:  v.GetString("session.path"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Metrics: MetricsConfig{
			Enabled: v.GetBool("metrics.enabled"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".rojifi"), nil
}

func applyDefaults(cfg *Config) {
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = "https://api.rojifi.com"
	}
	if cfg.API.Timeout == 0 {
		cfg.API.Timeout = 30 * time.Second
	}
	if cfg.API.RateLimit > 0 && cfg.API.RateBurst == 0 {
		cfg.API.RateBurst = 1
	}
	if cfg.View.Debounce == 0 {
		cfg.View.Debounce = 500 * time.Millisecond
	}
	if cfg.View.Limit == 0 {
		cfg.View.Limit = 10
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = StoreFile
	}
	if cfg.Session.Path == "" {
		if dir, err := defaultDir(); err == nil {
			name := "session.json"
			if cfg.Session.Store == StoreSQLite {
				name = "session.db"
			}
			cfg.Session.Path = filepath.Join(dir, name)
		}
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stderr"
	}
}

func (c *Config) validate() error {
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api.base_url must be an absolute URL, got %q", c.API.BaseURL)
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout cannot be negative")
	}
	if c.API.Retries < 0 {
		return fmt.Errorf("api.retries cannot be negative")
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("api.rate_limit cannot be negative")
	}
	if c.View.Debounce < 0 {
		return fmt.Errorf("view.debounce cannot be negative")
	}
	if c.View.Limit < 1 {
		return fmt.Errorf("view.limit must be positive")
	}

	switch c.Session.Store {
	case StoreFile, StoreSQLite:
		if c.Session.Path == "" {
			return fmt.Errorf("session.path is required for the %s store", c.Session.Store)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("session.store must be one of file, sqlite, memory; got %q", c.Session.Store)
	}

	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format must be json or console; got %q", c.Log.Format)
	}
	return nil
}
