package abi

import (
	"fmt"
	"sort"

	"github.com/jmylchreest/isle/internal/model"
)

// Registry holds the module and layout manager constructors known to the
// host. It is filled once at startup.
type Registry struct {
	modules map[string]ModuleConstructor
	layouts map[string]LayoutManagerConstructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		modules: make(map[string]ModuleConstructor),
		layouts: make(map[string]LayoutManagerConstructor),
	}
}

// RegisterModule adds a module constructor under name.
func (r *Registry) RegisterModule(name string, ctor ModuleConstructor) error {
	if name == "" || ctor == nil {
		return fmt.Errorf("invalid module registration %q", name)
	}
	if _, ok := r.modules[name]; ok {
		return fmt.Errorf("%w: module %q", model.ErrAlreadyExists, name)
	}
	r.modules[name] = ctor
	return nil
}

// RegisterLayoutManager adds a layout manager constructor under name.
func (r *Registry) RegisterLayoutManager(name string, ctor LayoutManagerConstructor) error {
	if name == "" || ctor == nil {
		return fmt.Errorf("invalid layout manager registration %q", name)
	}
	if _, ok := r.layouts[name]; ok {
		return fmt.Errorf("%w: layout manager %q", model.ErrAlreadyExists, name)
	}
	r.layouts[name] = ctor
	return nil
}

// Module returns the constructor registered under name.
func (r *Registry) Module(name string) (ModuleConstructor, bool) {
	ctor, ok := r.modules[name]
	return ctor, ok
}

// LayoutManager returns the constructor registered under name.
func (r *Registry) LayoutManager(name string) (LayoutManagerConstructor, bool) {
	ctor, ok := r.layouts[name]
	return ctor, ok
}

// ModuleNames returns the registered module names, sorted.
func (r *Registry) ModuleNames() []string {
	return sortedKeys(r.modules)
}

// LayoutManagerNames returns the registered layout manager names, sorted.
func (r *Registry) LayoutManagerNames() []string {
	return sortedKeys(r.layouts)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
