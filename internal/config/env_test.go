package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetters(t *testing.T) {
	t.Setenv("CFG_STR", "hello")
	t.Setenv("CFG_INT", " 42 ")
	t.Setenv("CFG_BAD_INT", "x")
	t.Setenv("CFG_FLOAT", "2.5")
	t.Setenv("CFG_BOOL", "Yes")
	t.Setenv("CFG_LIST", "a, ,b,")

	assert.Equal(t, "hello", GetEnv("CFG_STR", "d"))
	assert.Equal(t, "d", GetEnv("CFG_MISSING", "d"))
	assert.Equal(t, 42, GetEnvInt("CFG_INT", 1))
	assert.Equal(t, 1, GetEnvInt("CFG_BAD_INT", 1))
	assert.Equal(t, 2.5, GetEnvFloat("CFG_FLOAT", 1))
	assert.True(t, GetEnvBool("CFG_BOOL", false))
	assert.True(t, GetEnvBool("CFG_MISSING", true))
	assert.Equal(t, []string{"a", "b"}, GetEnvList("CFG_LIST", nil))
	assert.Equal(t, []string{"*"}, GetEnvList("CFG_MISSING", []string{"*"}))
}

func TestLoadDefaults(t *testing.T) {
	s := Load()
	assert.Equal(t, DefaultLimits(), s.Limits)
	assert.Equal(t, 8000, s.Port)
	assert.Equal(t, "sqlite", s.Driver)
	assert.Equal(t, 10000, s.CacheSize)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv(Prefix+"DB_DRIVER", "csv")
	t.Setenv(Prefix+"MAX_RADIUS_KM", "25")
	t.Setenv(Prefix+"CACHE_SIZE", "0")

	s := Load()
	assert.Equal(t, "csv", s.Driver)
	assert.Equal(t, 25.0, s.Limits.MaxRadiusKm)
	assert.Equal(t, 0, s.CacheSize)
}

func TestLoadEnvKeepsExistingValues(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CFG_FROM_FILE=file\nCFG_PRESET=file\n"), 0o644))

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	t.Setenv("CFG_PRESET", "env")
	t.Setenv("CFG_FROM_FILE", "")
	require.NoError(t, os.Unsetenv("CFG_FROM_FILE"))

	require.NoError(t, LoadEnv())
	assert.Equal(t, "file", os.Getenv("CFG_FROM_FILE"))
	assert.Equal(t, "env", os.Getenv("CFG_PRESET"))
	require.NoError(t, os.Unsetenv("CFG_FROM_FILE"))
}
