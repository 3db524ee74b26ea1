package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/isle/internal/config"
)

func TestWritable(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "missing.toml")
	ok, err := writable(missing, false)
	require.NoError(t, err)
	assert.True(t, ok)

	existing := filepath.Join(dir, "isled.toml")
	require.NoError(t, os.WriteFile(existing, nil, 0o600))
	ok, err = writable(existing, false)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = writable(existing, true)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCheckDaemonConfig(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer

	path := filepath.Join(dir, "isled.toml")
	require.NoError(t, checkDaemonConfig(&out, path))
	assert.Contains(t, out.String(), "uses the defaults")

	require.NoError(t, config.SaveDaemonConfig(path, config.DefaultDaemonConfig()))
	out.Reset()
	require.NoError(t, checkDaemonConfig(&out, path))
	assert.Contains(t, out.String(), "ok (layout carousel, theme default")

	require.NoError(t, os.WriteFile(path, []byte("[audio]\nvolume = 400\n"), 0o600))
	err := checkDaemonConfig(&out, path)
	assert.ErrorContains(t, err, "volume must be between 0 and 100")
}
