// Package activity implements activities (a widget plus named reactive
// properties), the per-module activity map and the dispatcher that delivers
// property updates to subscribers on the UI thread.
package activity

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/property"
	"github.com/jmylchreest/isle/internal/queue"
	"github.com/jmylchreest/isle/internal/widget"
)

// Activity is one visual unit published by a module.
//
// Properties may be read and set from any goroutine. Subscribe, SetWidget
// and Deliver belong to the UI thread.
type Activity struct {
	lock ctxLock

	id         model.Identifier
	widget     *widget.ActivityWidget
	properties map[string]*property.Subscribable
	updates    *queue.Unbounded[model.Update]
}

// New creates an activity with no widget and no properties. Property
// updates are published on updates.
func New(id model.Identifier, updates *queue.Unbounded[model.Update]) *Activity {
	return &Activity{
		lock:       newCtxLock(),
		id:         id,
		properties: make(map[string]*property.Subscribable),
		updates:    updates,
	}
}

// ID returns the activity identifier.
func (a *Activity) ID() model.Identifier {
	return a.id
}

// AddProperty declares a property. The type of initial is fixed for the
// property's lifetime.
func (a *Activity) AddProperty(name string, initial model.Value) error {
	a.lock.mustLock()
	defer a.lock.unlock()

	if _, ok := a.properties[name]; ok {
		return fmt.Errorf("%w: property %q on %s", model.ErrAlreadyExists, name, a.id)
	}
	p, err := property.New(a.id, name, initial, a.updates)
	if err != nil {
		return err
	}
	a.properties[name] = property.NewSubscribable(p)
	return nil
}

// Subscribe appends fn to the subscribers of the named property.
func (a *Activity) Subscribe(name string, fn property.Subscriber) error {
	s, err := a.subscribable(context.Background(), name)
	if err != nil {
		return err
	}
	s.Subscribe(fn)
	return nil
}

// Subscribers returns the subscribers of the named property in call order.
func (a *Activity) Subscribers(name string) ([]property.Subscriber, error) {
	s, err := a.subscribable(context.Background(), name)
	if err != nil {
		return nil, err
	}
	return s.Subscribers(), nil
}

// Property returns the shared handle of the named property.
func (a *Activity) Property(name string) (*property.Property, error) {
	return a.PropertyContext(context.Background(), name)
}

// PropertyContext is Property but gives up waiting for the activity lock
// when ctx is done.
func (a *Activity) PropertyContext(ctx context.Context, name string) (*property.Property, error) {
	s, err := a.subscribable(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.Property(), nil
}

// PropertyNames returns the declared property names, sorted.
func (a *Activity) PropertyNames() []string {
	a.lock.mustLock()
	defer a.lock.unlock()

	names := make([]string, 0, len(a.properties))
	for name := range a.properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetWidget replaces the widget. The previous widget is not detached from
// its container; callers remove it first if needed.
func (a *Activity) SetWidget(w *widget.ActivityWidget) {
	a.lock.mustLock()
	defer a.lock.unlock()
	a.widget = w
}

// Widget returns the activity widget, or nil if none has been set.
func (a *Activity) Widget() *widget.ActivityWidget {
	a.lock.mustLock()
	defer a.lock.unlock()
	return a.widget
}

// Deliver notifies the subscribers of u.Property with u.Value.
func (a *Activity) Deliver(u model.Update) error {
	s, err := a.subscribable(context.Background(), u.Property)
	if err != nil {
		return err
	}
	s.Notify(u.Value)
	return nil
}

// Snapshot returns a copy of every property's current value.
func (a *Activity) Snapshot() map[string]model.Value {
	a.lock.mustLock()
	defer a.lock.unlock()

	out := make(map[string]model.Value, len(a.properties))
	for name, s := range a.properties {
		out[name] = s.Property().Get()
	}
	return out
}

func (a *Activity) subscribable(ctx context.Context, name string) (*property.Subscribable, error) {
	if err := a.lock.lock(ctx); err != nil {
		return nil, err
	}
	defer a.lock.unlock()

	s, ok := a.properties[name]
	if !ok {
		return nil, fmt.Errorf("%w: property %q on %s", model.ErrNotFound, name, a.id)
	}
	return s, nil
}
