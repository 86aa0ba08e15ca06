package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nested struct {
	Level string `env:"LEVEL" envDefault:"info"`
}

type testConfig struct {
	Addr    string        `env:"WSMUX_TEST_ADDR" envDefault:":8080"`
	Timeout time.Duration `env:"WSMUX_TEST_TIMEOUT" envDefault:"1s"`
	Origins []string      `env:"WSMUX_TEST_ORIGINS" envSeparator:","`
	Log     nested        `envPrefix:"WSMUX_TEST_LOG_"`
}

func TestLoadDefaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg, filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, time.Second, cfg.Timeout)
	assert.Empty(t, cfg.Origins)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("WSMUX_TEST_ADDR", "127.0.0.1:9000")
	t.Setenv("WSMUX_TEST_TIMEOUT", "250ms")
	t.Setenv("WSMUX_TEST_ORIGINS", "http://a,http://b")
	t.Setenv("WSMUX_TEST_LOG_LEVEL", "debug")

	var cfg testConfig
	require.NoError(t, Load(&cfg, filepath.Join(t.TempDir(), "missing.env")))

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Timeout)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.Origins)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadFromEnvFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(file, []byte("WSMUX_TEST_ADDR=:7000\nWSMUX_TEST_LOG_LEVEL=warn\n"), 0o600))
	// Values already in the environment win over the file.
	t.Setenv("WSMUX_TEST_LOG_LEVEL", "error")
	// godotenv sets variables for the whole process; register them so they
	// are restored after the test.
	t.Setenv("WSMUX_TEST_ADDR", "")
	require.NoError(t, os.Unsetenv("WSMUX_TEST_ADDR"))

	var cfg testConfig
	require.NoError(t, Load(&cfg, file))

	assert.Equal(t, ":7000", cfg.Addr)
	assert.Equal(t, "error", cfg.Log.Level)
}

func TestLoadInvalidValue(t *testing.T) {
	t.Setenv("WSMUX_TEST_TIMEOUT", "soon")

	var cfg testConfig
	assert.Error(t, Load(&cfg, filepath.Join(t.TempDir(), "missing.env")))
	assert.Panics(t, func() { MustLoad(&cfg, filepath.Join(t.TempDir(), "missing.env")) })
}
