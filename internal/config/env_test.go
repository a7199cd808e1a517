package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.RetryAttempts)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 10*time.Second, cfg.RetryMaxDelay)
	assert.Equal(t, 30, cfg.PollMaxAttempts)
	assert.Equal(t, 32768, cfg.ScryptN)
	assert.False(t, cfg.AllowZeroFee)
}

func TestLoadFromEnvironment(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("CANOPY_API_URL", "https://wallet.example/api")
	t.Setenv("RETRY_ATTEMPTS", "5")
	t.Setenv("RETRY_BASE_DELAY", "100ms")
	t.Setenv("POLL_INTERVAL", "500ms")
	t.Setenv("CHAIN_ID", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "https://wallet.example/api", cfg.APIURL)
	assert.Equal(t, 5, cfg.RetryAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, uint64(7), cfg.ChainID)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	chdir(t, t.TempDir())

	t.Setenv("SCRYPT_N", "1000")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SCRYPT_N", "1024")
	t.Setenv("RETRY_ATTEMPTS", "0")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("RETRY_ATTEMPTS", "2")
	t.Setenv("RETRY_BASE_DELAY", "20s")
	_, err = Load()
	assert.Error(t, err)
}
