package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())

	require.NoError(t, err)
	assert.Equal(t, ":5001", cfg.Server.Address)
	assert.Equal(t, "on_pointe", cfg.Database.Name)
	assert.Equal(t, time.Hour, cfg.JWT.Expiration)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, []string{"localhost", "127.0.0.1"}, cfg.Backend.LocalHosts)
	assert.Equal(t, 1.5, cfg.Risk.ACWROrange)
	assert.Equal(t, 2.0, cfg.Risk.ACWRRed)
	assert.Equal(t, 7, cfg.Risk.MinChronicDays)
	assert.Equal(t, "orange", cfg.Risk.AlertSeverity)
	assert.Equal(t, "dev", cfg.Log.Env)
}

func TestLoadWithEnv_MergesOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", `
server:
  address: ":8080"
risk:
  acwr_red: 2.5
jwt:
  secret: base-secret
`)
	writeConfig(t, dir, "config.staging.yaml", `
server:
  address: ":9090"
log:
  level: debug
`)

	cfg, err := LoadWithEnv(dir, "staging")

	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Address)
	assert.Equal(t, 2.5, cfg.Risk.ACWRRed)
	assert.Equal(t, "base-secret", cfg.JWT.Secret)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "staging", cfg.Log.Env)
}

func TestLoadWithEnv_MissingOverlayIsFine(t *testing.T) {
	cfg, err := LoadWithEnv(t.TempDir(), "prod")

	require.NoError(t, err)
	assert.Equal(t, "prod", cfg.Log.Env)
}

func TestLoadConfig_EnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "server:\n  address: \":8080\"\n")
	t.Setenv("SERVER_ADDRESS", ":7000")
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)

	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.Address)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestLoadConfig_RejectsInvalidThresholds(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "risk:\n  acwr_orange: 1.5\n  acwr_red: 1.2\n")

	_, err := LoadConfig(dir)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "config validation failed")
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.yaml", "server: [unclosed\n")

	_, err := LoadConfig(dir)

	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Server:   ServerConfig{Address: ":5001"},
		Database: DatabaseConfig{URI: "mongodb://localhost:27017", Name: "on_pointe"},
		Backend: BackendConfig{
			EmulatorURL: "http://127.0.0.1:5001/on-pointe/us-central1",
			DeployedURL: "https://us-central1-on-pointe.cloudfunctions.net",
		},
		Risk: RiskConfig{
			ACWROrange:     1.5,
			ACWRRed:        2,
			FatigueHigh:    8,
			SoreHigh:       7,
			SleepLow:       3,
			MinChronicDays: 7,
			AlertSeverity:  "orange",
		},
		Log: LogConfig{Level: "info"},
	}
	require.NoError(t, Validate(&cfg))

	cfg.Risk.AlertSeverity = "green"
	assert.Error(t, Validate(&cfg))

	cfg.Risk.AlertSeverity = "red"
	cfg.Backend.DeployedURL = "not a url"
	assert.Error(t, Validate(&cfg))
}
