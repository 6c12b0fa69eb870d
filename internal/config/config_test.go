package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 10*time.Second, cfg.Replay.ImplicitWait)
	assert.Equal(t, 15*time.Second, cfg.Replay.ExplicitWait)
	assert.Equal(t, "screenshots", cfg.Replay.ScreenshotsDir)
	assert.Equal(t, 500*time.Millisecond, cfg.Recorder.FlushInterval)
	assert.Equal(t, 2*time.Second, cfg.Recorder.RetryInterval)
	assert.Equal(t, "memory", cfg.Database.Driver)
	assert.False(t, cfg.JWT.Enabled)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("REPLAY_EXPLICIT_WAIT", "3")
	t.Setenv("REPLAY_IMPLICIT_WAIT", "750ms")
	t.Setenv("CHROME_HEADLESS", "false")
	t.Setenv("CHROME_MAX_INSTANCES", "not-a-number")
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_NAME", "recorder")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, cfg.Replay.ExplicitWait)
	assert.Equal(t, 750*time.Millisecond, cfg.Replay.ImplicitWait)
	assert.False(t, cfg.Chrome.HeadlessMode)
	assert.Equal(t, 4, cfg.Chrome.MaxInstances)
	assert.Contains(t, cfg.GetDSN(), "/recorder?charset=utf8mb4")
}

func TestLoadConfigRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DB_DRIVER", "sqlite")

	_, err := LoadConfig()
	assert.Error(t, err)
}
