package daemon

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/isle/internal/config"
)

func TestFileWatcher_DebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "watched.toml")

	var calls atomic.Int32
	w := NewFileWatcher(path, nil)
	w.SetDebounce(50 * time.Millisecond)
	w.SetChangeCallback(func() { calls.Add(1) })
	require.NoError(t, w.Start())
	defer w.Stop()
	assert.True(t, w.IsRunning())

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte(i)}, 0600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.toml"), nil, 0600))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFileWatcher_StopIsIdempotent(t *testing.T) {
	w := NewFileWatcher(filepath.Join(t.TempDir(), "f"), nil)
	require.NoError(t, w.Start())
	require.NoError(t, w.Start())
	w.Stop()
	w.Stop()
	assert.False(t, w.IsRunning())
}

func TestFileWatcher_MissingDir(t *testing.T) {
	w := NewFileWatcher(filepath.Join(t.TempDir(), "nope", "f"), nil)
	assert.Error(t, w.Start())
}

func TestConfigWatcher_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isled.toml")
	w, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)

	initial := config.DefaultDaemonConfig()
	var reloaded *config.DaemonConfig
	var failures int
	w.SetReloadCallback(func(c *config.DaemonConfig) { reloaded = c })
	w.SetErrorCallback(func(error) { failures++ })
	require.NoError(t, w.Start(initial))
	defer w.Stop()
	w.files.SetDebounce(time.Hour)

	require.NoError(t, os.WriteFile(path, []byte("[island]\nminimal_height = 24\n"), 0600))
	cfg, err := w.Reload()
	require.NoError(t, err)
	assert.Equal(t, 24, cfg.Island.MinimalHeight)
	assert.Same(t, cfg, reloaded)
	assert.Same(t, cfg, w.Current())

	require.NoError(t, os.WriteFile(path, []byte("[island]\nposition = \"nowhere\"\n"), 0600))
	_, err = w.Reload()
	assert.Error(t, err)
	assert.Equal(t, 1, failures)
	assert.Same(t, cfg, w.Current(), "invalid config keeps the previous one")
}

func TestConfigWatcher_PicksUpFileChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "isled.toml")
	w, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)
	w.files.SetDebounce(20 * time.Millisecond)

	got := make(chan *config.DaemonConfig, 1)
	w.SetReloadCallback(func(c *config.DaemonConfig) {
		select {
		case got <- c:
		default:
		}
	})
	require.NoError(t, w.Start(config.DefaultDaemonConfig()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("[audio]\nvolume = 10\n"), 0600))

	select {
	case c := <-got:
		assert.Equal(t, 10, c.Audio.Volume)
	case <-time.After(3 * time.Second):
		t.Fatal("config change not detected")
	}
}

func TestConfigWatcher_UnchangedSaveIsIgnored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "isled.toml")
	w, err := NewConfigWatcher(path, nil)
	require.NoError(t, err)

	var reloads int
	w.SetReloadCallback(func(*config.DaemonConfig) { reloads++ })
	require.NoError(t, w.Start(config.DefaultDaemonConfig()))
	defer w.Stop()
	w.files.SetDebounce(time.Hour)

	// No file behaves like the defaults, which is the current config.
	w.fileChanged()
	assert.Zero(t, reloads)

	require.NoError(t, os.WriteFile(path, []byte("[audio]\nvolume = 10\n"), 0o600))
	w.fileChanged()
	w.fileChanged()
	assert.Equal(t, 1, reloads)

	_, err = w.Reload()
	require.NoError(t, err)
	assert.Equal(t, 2, reloads, "explicit reloads always apply")
}
