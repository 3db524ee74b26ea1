package host

import (
	"fmt"

	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/ipc"
)

// Status is a module's lifecycle state.
type Status string

const (
	StatusRunning Status = "running"
	StatusFailed  Status = "failed"
	StatusStopped Status = "stopped"
)

type moduleState struct {
	name   string
	module abi.Module
	status Status
	err    error
}

func (h *Host) startModule(name string) {
	st, ok := h.modules[name]
	if !ok {
		st = &moduleState{name: name}
		h.modules[name] = st
		h.names = append(h.names, name)
	}
	st.err = nil

	logger := h.logger.With("module", name)
	fail := func(err error) {
		st.status = StatusFailed
		st.err = err
		logger.Error("module failed to start", "error", err)
		if h.onFailed != nil {
			h.onFailed(name, err)
		}
	}

	if st.module == nil {
		ctor, _ := h.registry.Module(name)
		var m abi.Module
		err := guard(func() error {
			var err error
			m, err = ctor(abi.Endpoint{
				Commands: h.commands,
				Updates:  h.updates,
				Handles:  h.handles,
				App:      h.appHandle,
				Logger:   logger,
			})
			return err
		})
		if err != nil {
			fail(fmt.Errorf("failed to construct: %w", err))
			return
		}
		if m.Name() != name {
			logger.Warn("module reports a different name", "reported", m.Name())
		}
		if err := guard(m.Init); err != nil {
			fail(fmt.Errorf("failed to initialize: %w", err))
			return
		}
		st.module = m
	} else {
		h.readdActivities(st)
	}

	h.configureModule(st)
	if err := guard(func() error { st.module.RestartProducers(); return nil }); err != nil {
		fail(err)
		return
	}
	st.status = StatusRunning
	logger.Info("module started", "activities", st.module.Activities().Len())
}

// configureModule passes the module its config section. A rejected section
// leaves the module on its previous config.
func (h *Host) configureModule(st *moduleState) {
	blob, err := h.config.ModuleBlob(st.name)
	if err == nil {
		err = guard(func() error { return st.module.UpdateConfig(blob) })
	}
	st.err = err
	if err != nil {
		h.logger.Warn("invalid module config, keeping previous", "module", st.name, "error", err)
	}
}

func (h *Host) stopModule(st *moduleState) {
	if st == nil || st.module == nil || st.status != StatusRunning {
		return
	}
	if err := guard(func() error { st.module.Stop(); return nil }); err != nil {
		h.logger.Warn("module stop failed", "module", st.name, "error", err)
	}
	for _, a := range st.module.Activities().All() {
		h.removeActivity(a.ID())
	}
	st.status = StatusStopped
	h.logger.Info("module stopped", "module", st.name)
}

// readdActivities hands a restarted module's activities back to the layout.
func (h *Host) readdActivities(st *moduleState) {
	for _, a := range st.module.Activities().All() {
		if a.Widget() == nil {
			continue
		}
		wh := h.handles.Register(abi.KindWidget, a.Widget())
		h.HandleCommand(abi.AddActivity{ID: a.ID(), Widget: wh})
	}
}

// Modules returns the status of every module that was started.
func (h *Host) Modules() []ipc.ModuleInfo {
	infos := make([]ipc.ModuleInfo, 0, len(h.names))
	for _, name := range h.names {
		st := h.modules[name]
		info := ipc.ModuleInfo{Name: name, Status: string(st.status)}
		if st.module != nil && st.status == StatusRunning {
			info.Activities = st.module.Activities().Len()
		}
		if st.err != nil {
			info.Error = st.err.Error()
		}
		infos = append(infos, info)
	}
	return infos
}

// guard runs fn and converts a panic into an error.
func guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
