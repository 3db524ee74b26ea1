// Package property implements named, type-locked activity state that is
// published to the UI through the update queue.
package property

import (
	"errors"
	"fmt"
	"sync"

	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/queue"
)

// Property holds the current value of a named piece of activity state.
// The type of the initial value becomes the permanent type contract.
type Property struct {
	mu      sync.Mutex
	name    string
	owner   model.Identifier
	value   model.Value
	updates *queue.Unbounded[model.Update]
}

// New creates a property seeded with initial. updates may be nil for a
// detached property that is never observed by the UI.
func New(owner model.Identifier, name string, initial model.Value, updates *queue.Unbounded[model.Update]) (*Property, error) {
	if !initial.IsValid() {
		return nil, fmt.Errorf("%w: property %q has no initial value", model.ErrWrongType, name)
	}
	return &Property{
		name:    name,
		owner:   owner,
		value:   initial,
		updates: updates,
	}, nil
}

// Name returns the property key.
func (p *Property) Name() string {
	return p.name
}

// Owner returns the identifier of the activity the property belongs to.
func (p *Property) Owner() model.Identifier {
	return p.owner
}

// Get returns a copy of the current value.
func (p *Property) Get() model.Value {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value.Clone()
}

// Set replaces the value and publishes an update.
//
// A value of a different declared type is rejected with ErrWrongType and not
// applied. If the update queue is closed the new value stays applied locally
// and ErrChannelClosed is returned: the UI simply never hears about it.
func (p *Property) Set(v model.Value) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.value.SameType(v) {
		return fmt.Errorf("%w: property %q of %s expects %s, got %s",
			model.ErrWrongType, p.name, p.owner, p.value.Type(), v.Type())
	}

	p.value = v
	if p.updates == nil {
		return nil
	}

	update := model.Update{ID: p.owner, Property: p.name, Value: v.Clone()}
	if err := p.updates.Send(update); err != nil {
		if errors.Is(err, queue.ErrClosed) {
			return fmt.Errorf("%w: property %q of %s", model.ErrChannelClosed, p.name, p.owner)
		}
		return err
	}
	return nil
}

// SetValue boxes v as T and sets it on p.
func SetValue[T any](p *Property, v T) error {
	return p.Set(model.ValueOf(v))
}

// Value returns the current value downcast to T.
func Value[T any](p *Property) (T, bool) {
	return model.Get[T](p.Get())
}
