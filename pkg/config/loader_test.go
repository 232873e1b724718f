package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vemx1/vemx1/pkg/config"
	"github.com/vemx1/vemx1/pkg/validator"
)

type defaultsConfig struct {
	Addr    string `env:"CFGTEST_DEFAULT_ADDR" envDefault:":8080"`
	Retries int    `env:"CFGTEST_DEFAULT_RETRIES" envDefault:"3"`
	Debug   bool   `env:"CFGTEST_DEFAULT_DEBUG" envDefault:"true"`
}

type successConfig struct {
	Addr    string `env:"CFGTEST_SUCCESS_ADDR"`
	Retries int    `env:"CFGTEST_SUCCESS_RETRIES"`
}

type cachedConfig struct {
	Value string `env:"CFGTEST_CACHED"`
}

type requiredConfig struct {
	Token string `env:"CFGTEST_REQUIRED,required"`
}

type backendConfig struct {
	Backend   string `env:"CFGTEST_BACKEND" envDefault:"mongo" validate:"oneof=mongo firestore memory"`
	ProjectID string `env:"CFGTEST_PROJECT_ID" validate:"required_if=Backend firestore"`
}

type fileConfig struct {
	Secret string   `env:"CFGTEST_FILE_SECRET"`
	Plans  []string `env:"CFGTEST_FILE_PLANS" envSeparator:","`
}

func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("CFGTEST_DEFAULT_ADDR")

	var cfg defaultsConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 3, cfg.Retries)
	assert.True(t, cfg.Debug)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("CFGTEST_SUCCESS_ADDR", ":9090")
	t.Setenv("CFGTEST_SUCCESS_RETRIES", "5")

	var cfg successConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, 5, cfg.Retries)
}

func TestLoad_Cached(t *testing.T) {
	t.Setenv("CFGTEST_CACHED", "first")

	var first cachedConfig
	require.NoError(t, config.Load(&first))

	t.Setenv("CFGTEST_CACHED", "second")

	var second cachedConfig
	require.NoError(t, config.Load(&second))
	assert.Equal(t, "first", second.Value)

	config.ResetCache()
	var third cachedConfig
	require.NoError(t, config.Load(&third))
	assert.Equal(t, "second", third.Value)
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("CFGTEST_REQUIRED")

	var cfg requiredConfig
	err := config.Load(&cfg)
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	// Failures are not cached.
	t.Setenv("CFGTEST_REQUIRED", "tok")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "tok", cfg.Token)
}

func TestLoad_Validation(t *testing.T) {
	t.Setenv("CFGTEST_BACKEND", "firestore")
	os.Unsetenv("CFGTEST_PROJECT_ID")

	var cfg backendConfig
	err := config.Load(&cfg)
	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.True(t, validator.ExtractValidationErrors(err).Has("CFGTEST_PROJECT_ID"))

	t.Setenv("CFGTEST_PROJECT_ID", "vemx1-prod")
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "vemx1-prod", cfg.ProjectID)
}

func TestLoad_NilPointer(t *testing.T) {
	var cfg *successConfig
	assert.ErrorIs(t, config.Load(cfg), config.ErrNilPointer)
}

func TestLoadEnv(t *testing.T) {
	os.Unsetenv("CFGTEST_FILE_SECRET")
	os.Unsetenv("CFGTEST_FILE_PLANS")
	t.Cleanup(func() {
		os.Unsetenv("CFGTEST_FILE_SECRET")
		os.Unsetenv("CFGTEST_FILE_PLANS")
	})

	dir := t.TempDir()
	primary := filepath.Join(dir, ".env")
	override := filepath.Join(dir, ".env.local")
	require.NoError(t, os.WriteFile(primary, []byte("CFGTEST_FILE_SECRET=\"from primary\"\nCFGTEST_FILE_PLANS=basico,premium\n"), 0o600))
	require.NoError(t, os.WriteFile(override, []byte("CFGTEST_FILE_SECRET=from-override\n"), 0o600))

	require.NoError(t, config.LoadEnv(primary, override))

	var cfg fileConfig
	require.NoError(t, config.Load(&cfg))
	assert.Equal(t, "from primary", cfg.Secret)
	assert.Equal(t, []string{"basico", "premium"}, cfg.Plans)
}

func TestLoadEnv_MissingFile(t *testing.T) {
	err := config.LoadEnv(filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
	assert.Panics(t, func() { config.MustLoadEnv(filepath.Join(t.TempDir(), "missing.env")) })
}
