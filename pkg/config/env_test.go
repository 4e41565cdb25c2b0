package config_test

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/accountkit/pkg/config"
)

type customEnvConfig struct {
	String    string   `env:"TEST_CUSTOM_STRING"`
	Int       int      `env:"TEST_CUSTOM_INT"`
	Bool      bool     `env:"TEST_CUSTOM_BOOL"`
	Array     []string `env:"TEST_CUSTOM_ARRAY" envSeparator:","`
	WithQuote string   `env:"TEST_CUSTOM_WITH_QUOTES"`
	Empty     string   `env:"TEST_CUSTOM_EMPTY"`
	Priority  string   `env:"TEST_PRIORITY"`
}

var customKeys = []string{
	"TEST_CUSTOM_STRING", "TEST_CUSTOM_INT", "TEST_CUSTOM_BOOL", "TEST_CUSTOM_ARRAY",
	"TEST_CUSTOM_WITH_QUOTES", "TEST_CUSTOM_EMPTY", "TEST_PRIORITY",
	"TEST_OVERRIDE_UNIQUE", "TEST_MULTIENV_FEATURE",
}

func clearCustomEnv(t *testing.T) {
	t.Helper()
	for _, k := range customKeys {
		os.Unsetenv(k)
	}
	t.Cleanup(func() {
		for _, k := range customKeys {
			os.Unsetenv(k)
		}
	})
	config.ResetCache()
}

func TestLoadEnv_CustomPath(t *testing.T) {
	clearCustomEnv(t)

	require.NoError(t, config.LoadEnv("testdata/.env.custom"))

	var cfg customEnvConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "custom_value", cfg.String)
	assert.Equal(t, 1234, cfg.Int)
	assert.True(t, cfg.Bool)
	assert.Equal(t, []string{"item1", "item2", "item3"}, cfg.Array)
	assert.Equal(t, "quoted value", cfg.WithQuote)
	assert.Empty(t, cfg.Empty)
	assert.Equal(t, "custom_file_value", cfg.Priority)
}

func TestLoadEnv_LaterFileWins(t *testing.T) {
	clearCustomEnv(t)

	require.NoError(t, config.LoadEnv("testdata/.env.custom", "testdata/.env.override"))

	var cfg customEnvConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "override_value", cfg.String)
	assert.Equal(t, 9999, cfg.Int)
	assert.Equal(t, "override_value", cfg.Priority)
	assert.Equal(t, []string{"item1", "item2", "item3"}, cfg.Array)
	assert.Equal(t, "unique_to_override", os.Getenv("TEST_OVERRIDE_UNIQUE"))
	assert.Equal(t, "enabled", os.Getenv("TEST_MULTIENV_FEATURE"))
}

func TestLoadEnv_ProcessEnvWins(t *testing.T) {
	clearCustomEnv(t)
	os.Setenv("TEST_PRIORITY", "from_process")

	require.NoError(t, config.LoadEnv("testdata/.env.custom"))
	assert.Equal(t, "from_process", os.Getenv("TEST_PRIORITY"))
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv("testdata/non_existent_file.env")
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestMustLoadEnv(t *testing.T) {
	clearCustomEnv(t)

	assert.NotPanics(t, func() { config.MustLoadEnv("testdata/.env.custom") })
	assert.Panics(t, func() { config.MustLoadEnv("testdata/non_existent_file.env") })
}
