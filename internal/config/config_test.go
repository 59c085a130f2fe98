package config_test

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/dininguru/internal/config"
	"github.com/neexbeast/dininguru/internal/dining"
)

func setServerEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost/dininguru")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("ADMIN_TOKEN", "s3cret")
}

func TestLoadServer_Defaults(t *testing.T) {
	setServerEnv(t)
	t.Setenv("PORT", "")
	t.Setenv("VENUES_URL", "")
	t.Setenv("RATE_PER_MINUTE", "")

	cfg, err := config.LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "postgres://localhost/dininguru", cfg.DatabaseURL)
	assert.Equal(t, "s3cret", cfg.AdminToken)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, dining.DefaultVenuesURL, cfg.VenuesURL)
	assert.Equal(t, 300, cfg.RatePerMinute)
}

func TestLoadServer_EnvOverrides(t *testing.T) {
	setServerEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("RATE_PER_MINUTE", "50")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")

	cfg, err := config.LoadServer()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 50, cfg.RatePerMinute)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadServer_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/dininguru")
	t.Setenv("REDIS_URL", "")
	t.Setenv("ADMIN_TOKEN", "")

	_, err := config.LoadServer()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL, ADMIN_TOKEN")
}

func TestLoadClient(t *testing.T) {
	t.Setenv("API_URL", "https://dininguru.example")
	t.Setenv("PROFILE", "")
	t.Setenv("PREFS_REDIS_URL", "")
	t.Setenv("VENUES_URL", "")

	cfg, err := config.LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "https://dininguru.example", cfg.APIURL)
	assert.Equal(t, "default", cfg.Profile)
	assert.Empty(t, cfg.PrefsRedisURL)
	assert.Equal(t, dining.DefaultVenuesURL, cfg.BackupVenuesURL)
	assert.Equal(t, "https://dininguru.example/api/dining/venues/", cfg.ListingURL(),
		"venues come from the backend proxy by default")
}

func TestClientListingURL(t *testing.T) {
	cfg := config.Client{APIURL: "http://localhost:8080/"}
	assert.Equal(t, "http://localhost:8080/api/dining/venues/", cfg.ListingURL())

	cfg.VenuesURL = "https://mirror.example/venues.json"
	assert.Equal(t, "https://mirror.example/venues.json", cfg.ListingURL())
}

func TestLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, config.Level("debug"))
	assert.Equal(t, slog.LevelWarn, config.Level("WARN"))
	assert.Equal(t, slog.LevelInfo, config.Level("nonsense"))
}
