package daemon

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"sync"

	"github.com/jmylchreest/isle/internal/config"
)

// ConfigWatcher reloads the isled config file when it changes. A file that
// fails to parse or validate never replaces the current config.
type ConfigWatcher struct {
	mu     sync.RWMutex
	logger *slog.Logger
	path   string
	files  *FileWatcher

	current  *config.DaemonConfig
	onReload func(cfg *config.DaemonConfig)
	onError  func(err error)
}

// NewConfigWatcher watches path, or config.DaemonConfigPath when path is
// empty.
func NewConfigWatcher(path string, logger *slog.Logger) (*ConfigWatcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if path == "" {
		p, err := config.DaemonConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	w := &ConfigWatcher{
		logger: logger,
		path:   path,
		files:  NewFileWatcher(path, logger),
	}
	w.files.SetChangeCallback(w.fileChanged)
	return w, nil
}

// Path returns the watched config file.
func (w *ConfigWatcher) Path() string {
	return w.path
}

// SetReloadCallback sets the function called with each accepted config.
func (w *ConfigWatcher) SetReloadCallback(cb func(cfg *config.DaemonConfig)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onReload = cb
}

// SetErrorCallback sets the function called when a reload is rejected.
func (w *ConfigWatcher) SetErrorCallback(cb func(err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = cb
}

// Start records cfg as the current config and begins watching. The config
// directory is created so a file written later is still seen.
func (w *ConfigWatcher) Start(cfg *config.DaemonConfig) error {
	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(w.path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return w.files.Start()
}

// Stop stops watching.
func (w *ConfigWatcher) Stop() {
	w.files.Stop()
}

// Current returns the last accepted config.
func (w *ConfigWatcher) Current() *config.DaemonConfig {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Reload loads the file now and applies it even when nothing changed, so an
// explicit reload always restarts producers.
func (w *ConfigWatcher) Reload() (*config.DaemonConfig, error) {
	return w.load(true)
}

// fileChanged skips saves that leave the parsed config as it was.
func (w *ConfigWatcher) fileChanged() {
	_, _ = w.load(false)
}

func (w *ConfigWatcher) load(force bool) (*config.DaemonConfig, error) {
	cfg, err := config.LoadDaemonConfig(w.path)

	w.mu.Lock()
	onReload, onError := w.onReload, w.onError
	if err == nil {
		if !force && reflect.DeepEqual(cfg, w.current) {
			w.mu.Unlock()
			w.logger.Debug("config file saved without changes", "path", w.path)
			return cfg, nil
		}
		w.current = cfg
	}
	w.mu.Unlock()

	if err != nil {
		w.logger.Warn("config rejected, keeping previous config", "path", w.path, "error", err)
		if onError != nil {
			onError(err)
		}
		return nil, err
	}

	w.logger.Info("config reloaded", "path", w.path)
	if onReload != nil {
		onReload(cfg)
	}
	return cfg, nil
}
