package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fakeyou/internal/fakeyou"
)

func TestLoadDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	SetDefaults()

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, fakeyou.DefaultBaseURL, s.API.BaseURL)
	assert.Equal(t, fakeyou.DefaultStorageURL, s.API.StorageURL)
	assert.Equal(t, 2*time.Second, s.Poll.Interval)
	assert.Zero(t, s.Poll.MaxAttempts)
	assert.Equal(t, 24*time.Hour, s.Cache.MaxAge)
	assert.Equal(t, "warn", s.Log.Level)
	assert.Len(t, s.ClientOptions(), 5)
}

func TestInitReadsEnvironment(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Chdir(t.TempDir())
	t.Setenv("FAKEYOU_USERNAME", "someone")
	t.Setenv("FAKEYOU_PASSWORD", "secret")
	t.Setenv("FAKEYOU_POLL_INTERVAL", "500ms")
	t.Setenv("FAKEYOU_POLL_MAX_ATTEMPTS", "30")

	require.NoError(t, Init())

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "someone", s.Auth.Username)
	assert.Equal(t, "secret", s.Auth.Password)
	assert.Equal(t, 500*time.Millisecond, s.Poll.Interval)
	assert.Equal(t, 30, s.Poll.MaxAttempts)
}
