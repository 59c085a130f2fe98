// Package config loads server and client settings from the environment
// and an optional dininguru.yaml file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/neexbeast/dininguru/internal/dining"
)

// Server holds the backend's configuration.
type Server struct {
	Port            string   `mapstructure:"PORT"`
	DatabaseURL     string   `mapstructure:"DATABASE_URL"`
	RedisURL        string   `mapstructure:"REDIS_URL"`
	AdminToken      string   `mapstructure:"ADMIN_TOKEN"`
	VenuesURL       string   `mapstructure:"VENUES_URL"`
	BackupVenuesURL string   `mapstructure:"BACKUP_VENUES_URL"`
	RatePerMinute   int      `mapstructure:"RATE_PER_MINUTE"`
	AllowedOrigins  []string `mapstructure:"ALLOWED_ORIGINS"`
	LogLevel        string   `mapstructure:"LOG_LEVEL"`
}

// Client holds the CLI's configuration.
type Client struct {
	APIURL          string `mapstructure:"API_URL"`
	VenuesURL       string `mapstructure:"VENUES_URL"`
	BackupVenuesURL string `mapstructure:"BACKUP_VENUES_URL"`
	PrefsPath       string `mapstructure:"PREFS_PATH"`
	PrefsRedisURL   string `mapstructure:"PREFS_REDIS_URL"`
	Profile         string `mapstructure:"PROFILE"`
	ImageCacheSize  int    `mapstructure:"IMAGE_CACHE_SIZE"`
	LogLevel        string `mapstructure:"LOG_LEVEL"`
}

// newViper returns a viper instance reading dininguru.yaml from the
// working directory or ./config, with environment variables taking
// precedence.
func newViper(defaults map[string]any) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigName("dininguru")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()

	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

// LoadServer reads the server configuration. DATABASE_URL, REDIS_URL and
// ADMIN_TOKEN are required.
func LoadServer() (*Server, error) {
	v, err := newViper(map[string]any{
		"PORT":              "8080",
		"DATABASE_URL":      "",
		"REDIS_URL":         "",
		"ADMIN_TOKEN":       "",
		"VENUES_URL":        dining.DefaultVenuesURL,
		"BACKUP_VENUES_URL": dining.DefaultBackupVenuesURL,
		"RATE_PER_MINUTE":   300,
		"ALLOWED_ORIGINS":   []string{"*"},
		"LOG_LEVEL":         "info",
	})
	if err != nil {
		return nil, err
	}

	var cfg Server
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding server config: %w", err)
	}

	var missing []string
	for _, req := range []struct{ key, val string }{
		{"DATABASE_URL", cfg.DatabaseURL},
		{"REDIS_URL", cfg.RedisURL},
		{"ADMIN_TOKEN", cfg.AdminToken},
	} {
		if req.val == "" {
			missing = append(missing, req.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}

	return &cfg, nil
}

// LoadClient reads the CLI configuration. Everything has a default.
func LoadClient() (*Client, error) {
	v, err := newViper(map[string]any{
		"API_URL":           "http://localhost:8080",
		"VENUES_URL":        "",
		"BACKUP_VENUES_URL": dining.DefaultVenuesURL,
		"PREFS_PATH":        "",
		"PREFS_REDIS_URL":   "",
		"PROFILE":           "default",
		"IMAGE_CACHE_SIZE":  64,
		"LOG_LEVEL":         "warn",
	})
	if err != nil {
		return nil, err
	}

	var cfg Client
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding client config: %w", err)
	}
	return &cfg, nil
}

// ListingURL is VENUES_URL, or the backend's cached venue proxy when it is
// unset. By default the upstream dining API is only the backup.
func (c *Client) ListingURL() string {
	if c.VenuesURL != "" {
		return c.VenuesURL
	}
	return strings.TrimRight(c.APIURL, "/") + "/api/dining/venues/"
}

// Level parses a slog level name, falling back to info.
func Level(name string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(name)); err != nil {
		return slog.LevelInfo
	}
	return l
}
