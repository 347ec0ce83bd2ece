package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unet-io/unet/pkg/config"
	"github.com/unet-io/unet/pkg/errcode"
)

func TestDefaultMatchesDocumentedDefaults(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "sqlite::memory:", cfg.Database.URL)
	assert.Equal(t, 10, cfg.Database.MaxConnections)
	assert.Equal(t, 30, cfg.Database.TimeoutSeconds)

	assert.Equal(t, "public", cfg.SNMP.Community)
	assert.Equal(t, 5, cfg.SNMP.TimeoutSeconds)
	assert.Equal(t, 3, cfg.SNMP.Retries)

	assert.Equal(t, 300, cfg.Polling.DefaultIntervalS)
	assert.Equal(t, 10, cfg.Polling.MaxConcurrentPolls)
	assert.Equal(t, 30, cfg.Polling.PollTimeoutS)
	assert.Equal(t, 3, cfg.Polling.MaxRetries)
	assert.Equal(t, 2.0, cfg.Polling.RetryBackoffMultiplier)
	assert.Equal(t, 60, cfg.Polling.HealthCheckIntervalS)

	assert.Equal(t, "main", cfg.Git.Branch)
	assert.Equal(t, 300, cfg.Git.SyncIntervalS)
}

func TestLoadWithMissingPathFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"), "UNET")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestLoadOverlaysYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
snmp:
  community: private
  retries: 5
polling:
  max_concurrent_polls: 25
`), 0o644))

	cfg, err := config.Load(path, "UNET")
	require.NoError(t, err)

	assert.Equal(t, "private", cfg.SNMP.Community)
	assert.Equal(t, 5, cfg.SNMP.Retries)
	assert.Equal(t, 25, cfg.Polling.MaxConcurrentPolls)
	// Untouched fields keep their defaults.
	assert.Equal(t, 5, cfg.SNMP.TimeoutSeconds)
	assert.Equal(t, "sqlite::memory:", cfg.Database.URL)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snmp: [this is not a mapping"), 0o644))

	_, err := config.Load(path, "UNET")
	require.Error(t, err)
	var verr errcode.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestEnvOverrideTakesPrecedenceOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "unet.yaml")
	require.NoError(t, os.WriteFile(path, []byte("snmp:\n  community: from-yaml\n"), 0o644))

	t.Setenv("UNET_SNMP__COMMUNITY", "from-env")
	t.Setenv("UNET_POLLING__MAX_CONCURRENT_POLLS", "42")
	t.Setenv("UNET_POLLING__RETRY_BACKOFF_MULTIPLIER", "1.5")

	cfg, err := config.Load(path, "UNET")
	require.NoError(t, err)

	assert.Equal(t, "from-env", cfg.SNMP.Community)
	assert.Equal(t, 42, cfg.Polling.MaxConcurrentPolls)
	assert.Equal(t, 1.5, cfg.Polling.RetryBackoffMultiplier)
}

func TestEnvOverrideWithInvalidNumberFailsInitialization(t *testing.T) {
	t.Setenv("UNET_SNMP__RETRIES", "not-a-number")

	_, err := config.Load("", "UNET")
	require.Error(t, err)

	var verr errcode.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "UNET_SNMP__RETRIES", verr.Field)
}

func TestEnvOverrideUnsetFieldLeavesDefault(t *testing.T) {
	cfg, err := config.Load("", "UNET")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}
