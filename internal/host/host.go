package host

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/activity"
	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/queue"
	"github.com/jmylchreest/isle/internal/widget"
)

// Chimer plays the attention sound.
type Chimer interface {
	PlayChime() error
}

// Options configures a Host.
type Options struct {
	Config   *config.DaemonConfig
	Registry *abi.Registry
	App      abi.Application
	// Schedule runs fn on the UI thread, in call order.
	Schedule func(fn func())
	Chime    Chimer
	Logger   *slog.Logger

	// Daemon controls reachable over IPC. Reload is called off the UI
	// thread; Inspector on it.
	Reload    func() error
	Inspector func()

	// ModuleFailed is called on the UI thread when a module cannot start.
	ModuleFailed func(name string, err error)
}

// Host runs modules and routes their commands and updates.
type Host struct {
	config   *config.DaemonConfig
	registry *abi.Registry
	app      abi.Application
	schedule func(func())
	chime    Chimer
	logger   *slog.Logger

	reloadFn    func() error
	inspectorFn func()
	onFailed    func(name string, err error)

	handles    *abi.Handles
	appHandle  abi.Handle
	commands   *queue.Unbounded[abi.Command]
	updates    *queue.Unbounded[model.Update]
	dispatcher *activity.Dispatcher

	layout     abi.LayoutManager
	layoutName string

	modules map[string]*moduleState
	names   []string
	widgets map[model.Identifier]abi.Handle

	started time.Time
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// New creates a host. Call Start on the UI thread to run it.
func New(opts Options) (*Host, error) {
	if opts.Registry == nil {
		return nil, errors.New("host requires a registry")
	}
	if opts.App == nil {
		return nil, errors.New("host requires an application")
	}
	if opts.Schedule == nil {
		return nil, errors.New("host requires a UI scheduler")
	}
	if opts.Config == nil {
		opts.Config = config.DefaultDaemonConfig()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	h := &Host{
		config:      opts.Config,
		registry:    opts.Registry,
		app:         opts.App,
		schedule:    opts.Schedule,
		chime:       opts.Chime,
		logger:      opts.Logger,
		reloadFn:    opts.Reload,
		inspectorFn: opts.Inspector,
		onFailed:    opts.ModuleFailed,
		handles:     abi.NewHandles(),
		commands:    queue.NewUnbounded[abi.Command](),
		updates:     queue.NewUnbounded[model.Update](),
		modules:     make(map[string]*moduleState),
		widgets:     make(map[model.Identifier]abi.Handle),
	}
	h.dispatcher = activity.NewDispatcher(h.updates, h.lookup, h.logger)
	return h, nil
}

// Handles returns the handle table shared with plugins.
func (h *Host) Handles() *abi.Handles {
	return h.handles
}

// Start creates the layout manager and every enabled module, then begins
// consuming commands and property updates. A module that fails to start is
// recorded as failed and does not stop the others.
func (h *Host) Start(ctx context.Context) error {
	h.appHandle = h.handles.Register(abi.KindApplication, h.app)

	if err := h.startLayout(); err != nil {
		return err
	}

	for _, name := range h.config.Plugins.Enabled {
		if _, ok := h.registry.Module(name); !ok {
			h.logger.Warn("enabled module is not registered", "module", name)
		}
	}
	for _, name := range h.registry.ModuleNames() {
		if h.config.ModuleEnabled(name) {
			h.startModule(name)
		}
	}

	ctx, h.cancel = context.WithCancel(ctx)
	h.wg.Add(2)
	go func() {
		defer h.wg.Done()
		if err := h.dispatcher.Run(ctx, h.schedule); err != nil && !errors.Is(err, context.Canceled) {
			h.logger.Warn("property dispatcher stopped", "error", err)
		}
	}()
	go func() {
		defer h.wg.Done()
		h.pumpCommands(ctx)
	}()

	h.started = time.Now()
	h.logger.Info("host started", "layout", h.layoutName, "modules", len(h.names))
	return nil
}

func (h *Host) startLayout() error {
	name := h.config.Island.LayoutManager
	ctor, ok := h.registry.LayoutManager(name)
	if !ok {
		return fmt.Errorf("%w: layout manager %q", model.ErrNotFound, name)
	}

	lm, err := ctor(h.appHandle, h.handles, h.logger)
	if err != nil {
		return fmt.Errorf("failed to create layout manager %q: %w", name, err)
	}
	if err := lm.Init(); err != nil {
		return fmt.Errorf("failed to initialize layout manager %q: %w", name, err)
	}
	h.layout = lm
	h.layoutName = name
	h.configureLayout()
	return nil
}

func (h *Host) configureLayout() {
	blob, err := h.config.LayoutBlob(h.layoutName)
	if err == nil {
		err = h.layout.UpdateConfig(blob)
	}
	if err != nil {
		h.logger.Warn("invalid layout config, keeping previous", "layout", h.layoutName, "error", err)
	}
}

// Stop stops every module and the background goroutines.
func (h *Host) Stop() {
	for i := len(h.names) - 1; i >= 0; i-- {
		h.stopModule(h.modules[h.names[i]])
	}
	h.commands.Close()
	h.updates.Close()
	if h.cancel != nil {
		h.cancel()
	}
	h.wg.Wait()
	h.logger.Info("host stopped")
}

// Layout returns the active layout manager.
func (h *Host) Layout() abi.LayoutManager {
	return h.layout
}

// Uptime returns the time since Start.
func (h *Host) Uptime() time.Duration {
	if h.started.IsZero() {
		return 0
	}
	return time.Since(h.started)
}

// Reload applies a new configuration: modules are started or stopped to
// match the enabled list, and every running plugin gets its new section.
func (h *Host) Reload(cfg *config.DaemonConfig) {
	if cfg.Island.LayoutManager != h.layoutName {
		h.logger.Warn("layout manager change requires a restart",
			"current", h.layoutName, "configured", cfg.Island.LayoutManager)
	}
	h.config = cfg
	h.configureLayout()

	for _, name := range h.names {
		st := h.modules[name]
		enabled := cfg.ModuleEnabled(name)
		switch {
		case !enabled && st.status == StatusRunning:
			h.stopModule(st)
		case enabled && st.status != StatusRunning:
			h.startModule(name)
		case enabled:
			h.configureModule(st)
			if err := guard(func() error { st.module.RestartProducers(); return nil }); err != nil {
				h.logger.Error("module failed to restart producers", "module", name, "error", err)
			}
		}
	}
	for _, name := range h.registry.ModuleNames() {
		if _, known := h.modules[name]; !known && cfg.ModuleEnabled(name) {
			h.startModule(name)
		}
	}

	h.logger.Info("configuration reloaded")
}

// HandleCommand applies one module command.
func (h *Host) HandleCommand(cmd abi.Command) {
	switch c := cmd.(type) {
	case abi.AddActivity:
		if st, ok := h.modules[c.ID.Module]; !ok || st.module == nil {
			h.logger.Warn("rejecting activity from unknown module", "activity", c.ID)
			return
		}
		if err := h.layout.AddActivity(c.ID, c.Widget); err != nil {
			h.logger.Warn("failed to add activity", "activity", c.ID, "error", err)
			return
		}
		h.widgets[c.ID] = c.Widget
		h.logger.Debug("activity added", "activity", c.ID)

	case abi.RemoveActivity:
		h.removeActivity(c.ID)

	case abi.RequestMode:
		if err := h.Notify(c.ID, c.Mode, c.Duration); err != nil {
			h.logger.Warn("mode request failed", "activity", c.ID, "error", err)
		}

	default:
		h.logger.Warn("unknown command", "type", fmt.Sprintf("%T", cmd))
	}
}

// Notify shows id in mode. A non-positive duration uses the configured
// auto-minimize delay. Modes above compact play the attention chime.
func (h *Host) Notify(id model.Identifier, mode widget.Mode, duration time.Duration) error {
	if duration <= 0 {
		duration = h.config.Island.AutoMinimize.Duration()
	}
	if err := h.layout.ActivityNotification(id, mode, duration); err != nil {
		return err
	}
	if mode >= widget.ModeExpanded && h.chime != nil {
		go func() {
			if err := h.chime.PlayChime(); err != nil {
				h.logger.Debug("failed to play chime", "error", err)
			}
		}()
	}
	return nil
}

func (h *Host) removeActivity(id model.Identifier) {
	if err := h.layout.RemoveActivity(id); err != nil {
		h.logger.Debug("failed to remove activity", "activity", id, "error", err)
	}
	if wh, ok := h.widgets[id]; ok {
		h.handles.Release(wh)
		delete(h.widgets, id)
	}
}

// pumpCommands hands module commands to the UI thread in order.
func (h *Host) pumpCommands(ctx context.Context) {
	for {
		cmd, err := h.commands.Recv(ctx)
		if err != nil {
			return
		}
		h.schedule(func() { h.HandleCommand(cmd) })
	}
}

// Flush synchronously processes pending commands and property updates.
func (h *Host) Flush() {
	for {
		cmd, ok := h.commands.TryRecv()
		if !ok {
			break
		}
		h.HandleCommand(cmd)
	}
	h.dispatcher.Drain()
}

func (h *Host) lookup(id model.Identifier) (*activity.Activity, bool) {
	st, ok := h.modules[id.Module]
	if !ok || st.module == nil || st.status != StatusRunning {
		return nil, false
	}
	a, err := st.module.Activities().Get(id.Activity)
	if err != nil {
		return nil, false
	}
	return a, true
}
