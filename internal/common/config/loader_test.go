package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTestConfig() *Config {
	cfg := &Config{}
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Postgres.Database = "i4ops"
	cfg.Database.Postgres.User = "i4ops"
	return cfg
}

func TestValidateConfig_EmailAddresses(t *testing.T) {
	cfg := validTestConfig()
	cfg.Notifications.Email.Enabled = true
	cfg.Notifications.Email.FromEmail = "alerts@i4ops.example"
	cfg.Notifications.Email.To = []string{"oncall@i4ops.example"}
	require.NoError(t, validateConfig(cfg))

	cfg.Notifications.Email.FromEmail = "not-an-address"
	err := validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not-an-address")

	cfg.Notifications.Email.FromEmail = "alerts@i4ops.example"
	cfg.Notifications.Email.To = []string{"oncall@i4ops.example", "pager"}
	err = validateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pager")
}

func TestValidateConfig_EmailSkippedWhenDisabled(t *testing.T) {
	cfg := validTestConfig()
	cfg.Notifications.Email.Enabled = false
	cfg.Notifications.Email.FromEmail = "garbage"
	assert.NoError(t, validateConfig(cfg))
}

func TestValidateConfig_RequiredPostgresFields(t *testing.T) {
	cfg := validTestConfig()
	cfg.Database.Postgres.Host = ""
	assert.Error(t, validateConfig(cfg))
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 50, cfg.Server.DefaultPageSize)
	assert.Equal(t, 30000, cfg.Cache.SnapshotTTL)
	assert.Equal(t, 60, cfg.Alerts.StaleMinutes)
	assert.Equal(t, "info", cfg.Logging.Level)
}
