package abi

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"plugin"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/isle/internal/model"
)

func nopModule(Endpoint) (Module, error) { return nil, nil }

func nopLayout(Handle, *Handles, *slog.Logger) (LayoutManager, error) { return nil, nil }

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterModule("clock", nopModule))
	require.NoError(t, r.RegisterModule("audio", nopModule))
	require.NoError(t, r.RegisterLayoutManager("carousel", nopLayout))

	assert.ErrorIs(t, r.RegisterModule("clock", nopModule), model.ErrAlreadyExists)
	assert.ErrorIs(t, r.RegisterLayoutManager("carousel", nopLayout), model.ErrAlreadyExists)
	assert.Error(t, r.RegisterModule("", nopModule))
	assert.Error(t, r.RegisterModule("x", nil))

	assert.Equal(t, []string{"audio", "clock"}, r.ModuleNames())
	assert.Equal(t, []string{"carousel"}, r.LayoutManagerNames())

	_, ok := r.Module("clock")
	assert.True(t, ok)
	_, ok = r.LayoutManager("missing")
	assert.False(t, ok)
}

type fakePlugin map[string]plugin.Symbol

func (p fakePlugin) Lookup(name string) (plugin.Symbol, error) {
	s, ok := p[name]
	if !ok {
		return nil, errors.New("symbol not found")
	}
	return s, nil
}

func TestLoadPlugins(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.so", "a.so", "bad.so", "wrongtype.so", "readme.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), nil, 0o644))
	}

	var fnVar RegisterFunc = func(r *Registry) error { return r.RegisterModule("from-var", nopModule) }
	plugins := map[string]symbolLookup{
		"a.so": fakePlugin{RegisterSymbol: RegisterFunc(func(r *Registry) error {
			return r.RegisterModule("from-a", nopModule)
		})},
		"b.so":         fakePlugin{RegisterSymbol: &fnVar},
		"wrongtype.so": fakePlugin{RegisterSymbol: 42},
	}
	open := func(path string) (symbolLookup, error) {
		p, ok := plugins[filepath.Base(path)]
		if !ok {
			return nil, errors.New("not a plugin")
		}
		return p, nil
	}

	reg := NewRegistry()
	loaded, err := loadPlugins(dir, reg, nil, open)

	assert.Equal(t, []string{filepath.Join(dir, "a.so"), filepath.Join(dir, "b.so")}, loaded)
	require.Error(t, err)
	var perr *PluginError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, filepath.Join(dir, "bad.so"), perr.Path)
	assert.Contains(t, err.Error(), "wrongtype.so")
	assert.Equal(t, []string{"from-a", "from-var"}, reg.ModuleNames())
}

func TestLoadPlugins_MissingDir(t *testing.T) {
	loaded, err := LoadPlugins(filepath.Join(t.TempDir(), "nope"), NewRegistry(), nil)
	assert.NoError(t, err)
	assert.Empty(t, loaded)
}
