package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", strings.Repeat("s", 32))

	cfg, err := load()
	require.NoError(t, err)
	require.NoError(t, cfg.validate())

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.True(t, cfg.Database.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 30*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, 0.03, cfg.Floorplan.SnapThreshold)
	assert.Equal(t, "Upstairs", cfg.Floorplan.UpstairsProxyName)
	assert.Equal(t, 4, cfg.Floorplan.CongestionWorkers)
	assert.Equal(t, int64(10<<20), cfg.Floorplan.MaxUploadBytes)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AUTH_ENABLED", "false")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("FLOORPLAN_SNAP_THRESHOLD", "0.05")
	t.Setenv("FLOORPLAN_UPSTAIRS_PROXY", "Stairwell B")
	t.Setenv("FLOORPLAN_CONGESTION_WORKERS", "8")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := load()
	require.NoError(t, err)
	require.NoError(t, cfg.validate())

	assert.False(t, cfg.Auth.Enabled)
	assert.False(t, cfg.Database.Enabled)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 0.05, cfg.Floorplan.SnapThreshold)
	assert.Equal(t, "Stairwell B", cfg.Floorplan.UpstairsProxyName)
	assert.Equal(t, 8, cfg.Floorplan.CongestionWorkers)
	assert.True(t, cfg.Logging.JSONFormat)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{Port: "8080"},
			Auth:      AuthConfig{Enabled: true, JWTSecret: strings.Repeat("s", 32)},
			Database:  DatabaseConfig{Enabled: true, Host: "localhost", Name: "floorplans"},
			Floorplan: FloorplanConfig{SnapThreshold: 0.03, CongestionWorkers: 1},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "missing secret", mutate: func(c *Config) { c.Auth.JWTSecret = "" }, wantErr: "JWT_SECRET is required"},
		{name: "short secret", mutate: func(c *Config) { c.Auth.JWTSecret = "short" }, wantErr: "at least 32"},
		{name: "auth disabled ignores secret", mutate: func(c *Config) { c.Auth = AuthConfig{} }},
		{name: "missing db host", mutate: func(c *Config) { c.Database.Host = "" }, wantErr: "DB_HOST"},
		{name: "db disabled ignores host", mutate: func(c *Config) { c.Database = DatabaseConfig{} }},
		{name: "zero threshold", mutate: func(c *Config) { c.Floorplan.SnapThreshold = 0 }, wantErr: "SNAP_THRESHOLD"},
		{name: "no workers", mutate: func(c *Config) { c.Floorplan.CongestionWorkers = 0 }, wantErr: "CONGESTION_WORKERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
