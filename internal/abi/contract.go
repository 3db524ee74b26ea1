package abi

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/jmylchreest/isle/internal/activity"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/queue"
	"github.com/jmylchreest/isle/internal/widget"
)

// Module is a plugin that publishes activities.
//
// Init, UpdateConfig, RestartProducers and Stop are called on the UI thread.
type Module interface {
	Name() string
	// Init creates the module's activities and registers them with the host.
	Init() error
	// UpdateConfig applies a TOML configuration fragment. A malformed blob
	// fails with ErrConfigParse and leaves the previous config in place.
	UpdateConfig(blob []byte) error
	// RestartProducers stops and restarts background producers. Calling it
	// repeatedly leaves exactly one set of producers running.
	RestartProducers()
	Activities() *activity.Map
	Stop()
}

// LayoutManager arranges activity widgets in the island.
type LayoutManager interface {
	Init() error
	UpdateConfig(blob []byte) error
	AddActivity(id model.Identifier, w Handle) error
	RemoveActivity(id model.Identifier) error
	ListActivities() []model.Identifier
	GetActivity(id model.Identifier) (Handle, bool)
	// ActivityNotification asks for id to be shown in mode. With a positive
	// duration the activity falls back to its resting mode afterwards.
	ActivityNotification(id model.Identifier, mode widget.Mode, duration time.Duration) error
	// CycleFocus moves the focus by direction (+1 next, -1 previous).
	CycleFocus(direction int)
	Focused() (model.Identifier, bool)
}

// Application is the host-side UI object behind the application handle.
type Application interface {
	Island() Island
	Factory() widget.Factory
	// AddTick calls fn on the UI thread every frame until it returns false.
	AddTick(fn func() bool)
}

// Island is the container activity widgets are placed in.
type Island interface {
	Add(w *widget.ActivityWidget)
	Remove(w *widget.ActivityWidget)
	SetOrder(ws []*widget.ActivityWidget)
	// SetFocused highlights w, or nothing when w is nil.
	SetFocused(w *widget.ActivityWidget)
}

// Command is a request from a module to the host.
type Command interface {
	command()
}

// AddActivity asks the host to hand an activity widget to the layout
// manager.
type AddActivity struct {
	ID     model.Identifier
	Widget Handle
}

// RemoveActivity asks the host to remove an activity from the layout.
type RemoveActivity struct {
	ID model.Identifier
}

// RequestMode asks the layout manager to show an activity in Mode for
// Duration.
type RequestMode struct {
	ID       model.Identifier
	Mode     widget.Mode
	Duration time.Duration
}

func (AddActivity) command()    {}
func (RemoveActivity) command() {}
func (RequestMode) command()    {}

// Endpoint is what the host gives every module constructor.
type Endpoint struct {
	Commands *queue.Unbounded[Command]
	Updates  *queue.Unbounded[model.Update]
	Handles  *Handles
	App      Handle
	Logger   *slog.Logger
}

// Send pushes cmd to the host.
func (e Endpoint) Send(cmd Command) error {
	return e.Commands.Send(cmd)
}

// Publish registers a's widget under a fresh handle and asks the host to
// lay it out.
func (e Endpoint) Publish(a *activity.Activity) error {
	w := a.Widget()
	if w == nil {
		return fmt.Errorf("%w: activity %s has no widget", model.ErrNotFound, a.ID())
	}
	h := e.Handles.Register(KindWidget, w)
	if err := e.Send(AddActivity{ID: a.ID(), Widget: h}); err != nil {
		e.Handles.Release(h)
		return err
	}
	return nil
}

// Application resolves the application handle.
func (e Endpoint) Application() (Application, error) {
	return Resolve[Application](e.Handles, e.App, KindApplication)
}

// ModuleConstructor builds a module bound to an endpoint.
type ModuleConstructor func(ep Endpoint) (Module, error)

// LayoutManagerConstructor builds a layout manager.
type LayoutManagerConstructor func(app Handle, handles *Handles, logger *slog.Logger) (LayoutManager, error)
