package abi

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"sort"
)

// RegisterSymbol is the symbol every plugin object must export.
const RegisterSymbol = "Register"

// RegisterFunc is the type of the exported Register symbol.
type RegisterFunc = func(*Registry) error

// PluginError describes a plugin that could not be loaded.
type PluginError struct {
	Path string
	Err  error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s: %v", e.Path, e.Err)
}

func (e *PluginError) Unwrap() error {
	return e.Err
}

// opener abstracts plugin.Open for tests.
type opener func(path string) (symbolLookup, error)

type symbolLookup interface {
	Lookup(name string) (plugin.Symbol, error)
}

func openPlugin(path string) (symbolLookup, error) {
	return plugin.Open(path)
}

// LoadPlugins opens every *.so file in dir in name order and calls its
// Register function. A missing dir is not an error. Plugins that fail are
// skipped; their errors are joined into the returned error.
func LoadPlugins(dir string, reg *Registry, logger *slog.Logger) ([]string, error) {
	return loadPlugins(dir, reg, logger, openPlugin)
}

func loadPlugins(dir string, reg *Registry, logger *slog.Logger, open opener) ([]string, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read plugin dir: %w", err)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".so" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	var loaded []string
	var errs []error
	for _, path := range paths {
		if err := loadOne(path, reg, open); err != nil {
			logger.Warn("failed to load plugin", "path", path, "error", err)
			errs = append(errs, &PluginError{Path: path, Err: err})
			continue
		}
		logger.Info("loaded plugin", "path", path)
		loaded = append(loaded, path)
	}
	return loaded, errors.Join(errs...)
}

func loadOne(path string, reg *Registry, open opener) error {
	p, err := open(path)
	if err != nil {
		return err
	}
	sym, err := p.Lookup(RegisterSymbol)
	if err != nil {
		return err
	}
	// Exported functions are looked up as func values; variables as pointers.
	switch fn := sym.(type) {
	case RegisterFunc:
		return fn(reg)
	case *RegisterFunc:
		return (*fn)(reg)
	default:
		return fmt.Errorf("symbol %s has type %T, want func(*abi.Registry) error", RegisterSymbol, sym)
	}
}
