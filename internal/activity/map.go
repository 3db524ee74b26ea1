package activity

import (
	"context"
	"fmt"
	"sort"

	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/property"
)

// Map holds the activities of one module, keyed by activity name.
type Map struct {
	lock       ctxLock
	activities map[string]*Activity
}

// NewMap returns an empty map.
func NewMap() *Map {
	return &Map{
		lock:       newCtxLock(),
		activities: make(map[string]*Activity),
	}
}

// Insert adds a. If an activity with the same name exists the original is
// kept and ErrAlreadyExists is returned.
func (m *Map) Insert(a *Activity) error {
	m.lock.mustLock()
	defer m.lock.unlock()

	name := a.ID().Activity
	if _, ok := m.activities[name]; ok {
		return fmt.Errorf("%w: activity %s", model.ErrAlreadyExists, a.ID())
	}
	m.activities[name] = a
	return nil
}

// Get returns the activity called name.
func (m *Map) Get(name string) (*Activity, error) {
	return m.GetContext(context.Background(), name)
}

// GetContext is Get but gives up waiting for the map lock when ctx is done.
func (m *Map) GetContext(ctx context.Context, name string) (*Activity, error) {
	if err := m.lock.lock(ctx); err != nil {
		return nil, err
	}
	defer m.lock.unlock()

	a, ok := m.activities[name]
	if !ok {
		return nil, fmt.Errorf("%w: activity %q", model.ErrNotFound, name)
	}
	return a, nil
}

// Remove deletes the activity called name and returns it.
func (m *Map) Remove(name string) (*Activity, error) {
	m.lock.mustLock()
	defer m.lock.unlock()

	a, ok := m.activities[name]
	if !ok {
		return nil, fmt.Errorf("%w: activity %q", model.ErrNotFound, name)
	}
	delete(m.activities, name)
	return a, nil
}

// List returns the activity names, sorted.
func (m *Map) List() []string {
	m.lock.mustLock()
	defer m.lock.unlock()

	names := make([]string, 0, len(m.activities))
	for name := range m.activities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns the activities ordered by name.
func (m *Map) All() []*Activity {
	m.lock.mustLock()
	defer m.lock.unlock()

	out := make([]*Activity, 0, len(m.activities))
	for _, a := range m.activities {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID().Activity < out[j].ID().Activity })
	return out
}

// Len returns the number of activities.
func (m *Map) Len() int {
	m.lock.mustLock()
	defer m.lock.unlock()
	return len(m.activities)
}

// GetProperty looks up a property of a named activity, waiting on the map
// and activity locks only as long as ctx allows.
func (m *Map) GetProperty(ctx context.Context, activity, prop string) (*property.Property, error) {
	a, err := m.GetContext(ctx, activity)
	if err != nil {
		return nil, err
	}
	return a.PropertyContext(ctx, prop)
}

// GetPropertyBlocking is GetProperty without a deadline, for producer code
// that is not context aware. It must not be called on the UI thread.
func (m *Map) GetPropertyBlocking(activity, prop string) (*property.Property, error) {
	return m.GetProperty(context.Background(), activity, prop)
}
