package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewFiltersBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "warn")
	log.Info().Msg("hidden")
	log.Warn().Str("screen", "refunds").Msg("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"screen":"refunds"`)
}

func TestNewDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, "bogus")
	log.Debug().Msg("debug")
	log.Info().Msg("info")
	require.NotContains(t, buf.String(), `"message":"debug"`)
	require.Contains(t, buf.String(), `"message":"info"`)
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dsadmin.log")
	f, err := Open(path, "info")
	require.NoError(t, err)
	f.Logger.Info().Msg("first")
	require.NoError(t, f.Close())

	f, err = Open(path, "info")
	require.NoError(t, err)
	f.Logger.Info().Msg("second")
	require.NoError(t, f.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "first")
	require.Contains(t, string(data), "second")
}

func TestOpenWithoutPathIsNop(t *testing.T) {
	f, err := Open("", "info")
	require.NoError(t, err)
	require.NoError(t, f.Close())
}
