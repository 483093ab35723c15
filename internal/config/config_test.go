package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tutorbot/internal/level"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func TestDefaultsWhenUnset(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, 500*time.Millisecond, cfg.SendDelay)
	assert.Equal(t, 24, cfg.DefaultIntervalHours)
	assert.Equal(t, level.DefaultDeltas(), cfg.PointDeltas)
	assert.Empty(t, cfg.Admins)
	assert.Error(t, cfg.Validate())
}

func TestOverrides(t *testing.T) {
	cfg, err := fromLookup(lookupFrom(map[string]string{
		"TUTORBOT_BOT_TOKEN":              "123:abc",
		"TUTORBOT_ADMINS":                 "5859780703, 42",
		"TUTORBOT_POINT_DELTAS":           "advanced=5",
		"TUTORBOT_DEFAULT_INTERVAL_HOURS": "6",
		"TUTORBOT_SWEEP_INTERVAL":         "30s",
		"TUTORBOT_GRADE_TIMEOUT":          "5s",
	}))
	require.NoError(t, err)

	assert.NoError(t, cfg.Validate())
	assert.True(t, cfg.Admins[5859780703])
	assert.True(t, cfg.Admins[42])
	assert.Equal(t, 5, cfg.PointDeltas.For(level.Advanced))
	assert.Equal(t, 1, cfg.PointDeltas.For(level.Beginner))
	assert.Equal(t, 6, cfg.DefaultIntervalHours)
	assert.Equal(t, 30*time.Second, cfg.SweepInterval)
	assert.Equal(t, 5*time.Second, cfg.GradeTimeout)
}

func TestInvalidValues(t *testing.T) {
	bad := []map[string]string{
		{"TUTORBOT_ADMINS": "abc"},
		{"TUTORBOT_POINT_DELTAS": "wizard=2"},
		{"TUTORBOT_DEFAULT_INTERVAL_HOURS": "0"},
		{"TUTORBOT_SWEEP_INTERVAL": "soon"},
		{"TUTORBOT_SWEEP_INTERVAL": "0s"},
	}
	for _, env := range bad {
		_, err := fromLookup(lookupFrom(env))
		assert.Error(t, err, "%v", env)
	}
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"), false))
	assert.Error(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env"), true))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("TUTORBOT_TEST_ONLY_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("TUTORBOT_TEST_ONLY_VALUE") })

	require.NoError(t, LoadEnvFile(path, true))
	assert.Equal(t, "from-file", os.Getenv("TUTORBOT_TEST_ONLY_VALUE"))
}
