package audio

import (
	"log/slog"
	"os"
	"sync"

	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/daemon"
)

// Manager plays the attention chime according to the audio config.
type Manager struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	out     *output
	watcher *daemon.FileWatcher
	config  config.AudioConfig

	// Resolved sound file; empty means the built-in chime.
	sound string

	// play is swapped out in tests to avoid opening the audio device.
	playFile  func(path string) error
	playChime func() error
}

// NewManager creates a new audio manager.
func NewManager(cfg config.AudioConfig, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}

	out := newOutput(logger)
	m := &Manager{
		logger:   logger,
		out:      out,
		playFile: out.playFile,
		playChime: func() error {
			return out.play(Chime(ChimeSampleRate), ChimeSampleRate)
		},
	}
	m.applyConfig(cfg)
	return m
}

// applyConfig resolves the sound file and volume from cfg.
func (m *Manager) applyConfig(cfg config.AudioConfig) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.config = cfg
	m.out.setVolume(float64(cfg.Volume) / 100.0)

	m.sound = ""
	if cfg.Sound == "" {
		return
	}
	path := config.ExpandPath(cfg.Sound)
	if _, err := os.Stat(path); err != nil {
		m.logger.Warn("sound file not found, using built-in chime", "path", path)
		return
	}
	m.sound = path
	m.logger.Debug("loaded sound", "path", path)
}

// Start preloads the configured sound and watches it for changes.
func (m *Manager) Start() error {
	m.mu.RLock()
	sound := m.sound
	m.mu.RUnlock()

	if sound == "" {
		m.logger.Info("audio manager started", "sound", "built-in")
		return nil
	}

	if err := m.out.load(sound); err != nil {
		m.logger.Warn("failed to preload sound", "path", sound, "error", err)
	}
	m.watch(sound)

	m.logger.Info("audio manager started", "sound", sound)
	return nil
}

func (m *Manager) watch(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watcher != nil {
		m.watcher.Stop()
		m.watcher = nil
	}
	w := daemon.NewFileWatcher(path, m.logger)
	w.SetChangeCallback(func() {
		m.logger.Debug("sound file changed, reloading on next chime", "path", path)
		m.out.forget()
	})
	if err := w.Start(); err != nil {
		m.logger.Warn("failed to watch sound file", "path", path, "error", err)
		return
	}
	m.watcher = w
}

// Stop shuts down the audio manager.
func (m *Manager) Stop() {
	m.mu.Lock()
	w := m.watcher
	m.watcher = nil
	m.mu.Unlock()

	if w != nil {
		w.Stop()
	}
	m.out.close()
	m.logger.Debug("audio manager stopped")
}

// Enabled reports whether the chime is enabled.
func (m *Manager) Enabled() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config.Enabled
}

// PlayChime plays the configured sound, or the built-in chime.
func (m *Manager) PlayChime() error {
	m.mu.RLock()
	enabled := m.config.Enabled
	sound := m.sound
	m.mu.RUnlock()

	if !enabled {
		return nil
	}
	if sound == "" {
		return m.playChime()
	}
	if err := m.playFile(sound); err != nil {
		m.logger.Warn("failed to play sound, falling back to chime", "path", sound, "error", err)
		return m.playChime()
	}
	return nil
}

// Sound returns the resolved sound file, or "" for the built-in chime.
func (m *Manager) Sound() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sound
}

// UpdateConfig updates the configuration and reloads sounds.
// This is called when the config file is hot-reloaded.
func (m *Manager) UpdateConfig(cfg config.AudioConfig) {
	m.out.forget()
	m.applyConfig(cfg)

	if sound := m.Sound(); sound != "" {
		if err := m.out.load(sound); err != nil {
			m.logger.Warn("failed to preload sound on reload", "path", sound, "error", err)
		}
		m.watch(sound)
	}
	m.logger.Debug("audio manager config updated")
}
