package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("DSADMIN_CONFIG", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8088/api", cfg.Backend.BaseURL)
	require.Equal(t, "DSADMIN_TOKEN", cfg.Backend.TokenEnv)
	require.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	require.Equal(t, 5, cfg.Backend.Burst)
	require.Equal(t, "₱", cfg.UI.CurrencySymbol)
	require.Equal(t, ":8088", cfg.Devserver.Addr)
	require.False(t, cfg.Devserver.FailProcess)
}

func TestLoadFileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[backend]
base_url = "https://admin.example.test/api/"
timeout = "3s"

[ui]
timezone = "UTC"
`), 0o644))
	t.Setenv("DSADMIN_CONFIG", path)
	t.Setenv("DSADMIN_LOG_LEVEL", "debug")
	t.Setenv("DSADMIN_DEVSERVER_FAIL_PROCESS", "true")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://admin.example.test/api", cfg.Backend.BaseURL)
	require.Equal(t, 3*time.Second, cfg.Backend.Timeout)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Devserver.FailProcess)
	require.Equal(t, time.UTC, cfg.UI.Location())
}

func TestSaveRoundTripOmitsToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	t.Setenv("DSADMIN_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	cfg.Backend.BaseURL = "https://staging.example.test/api"
	cfg.Backend.Token = "secret"
	require.NoError(t, Save(cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(data), "secret")

	again, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://staging.example.test/api", again.Backend.BaseURL)
}

func TestResolveToken(t *testing.T) {
	t.Setenv("ADMIN_TOKEN_TEST", " from-env ")
	b := BackendConfig{TokenEnv: "ADMIN_TOKEN_TEST", Token: "from-file"}
	require.Equal(t, "from-env", b.ResolveToken())

	t.Setenv("ADMIN_TOKEN_TEST", "")
	require.Equal(t, "from-file", b.ResolveToken())
}
