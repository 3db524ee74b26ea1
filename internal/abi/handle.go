package abi

import (
	"fmt"
	"sync"

	"github.com/jmylchreest/isle/internal/model"
)

// Handle is an opaque reference to an object in a Handles table.
// The zero Handle is null.
type Handle uintptr

// IsNull reports whether h is the null handle.
func (h Handle) IsNull() bool {
	return h == 0
}

// Kind tags what a handle refers to.
type Kind int

const (
	KindWidget Kind = iota + 1
	KindApplication
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindWidget:
		return "widget"
	case KindApplication:
		return "application"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type handleEntry struct {
	kind  Kind
	value any
}

// Handles maps live handles to objects. Handle values are never reused, so a
// released handle stays invalid.
type Handles struct {
	mu      sync.RWMutex
	next    Handle
	entries map[Handle]handleEntry
}

// NewHandles returns an empty table.
func NewHandles() *Handles {
	return &Handles{entries: make(map[Handle]handleEntry)}
}

// Register stores v under a fresh handle.
func (t *Handles) Register(kind Kind, v any) Handle {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.entries[t.next] = handleEntry{kind: kind, value: v}
	return t.next
}

// Release invalidates h. It reports whether h was live.
func (t *Handles) Release(h Handle) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.entries[h]; !ok {
		return false
	}
	delete(t.entries, h)
	return true
}

// Len returns the number of live handles.
func (t *Handles) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Handles) lookup(h Handle) (handleEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[h]
	return e, ok
}

// Resolve converts h back into a T. It fails with ErrInvalidHandle if h is
// null, released or unknown, registered with another kind, or holds a value
// that is not a T.
func Resolve[T any](t *Handles, h Handle, kind Kind) (T, error) {
	var zero T
	if h.IsNull() {
		return zero, fmt.Errorf("%w: null %s handle", model.ErrInvalidHandle, kind)
	}
	if t == nil {
		return zero, fmt.Errorf("%w: no handle table", model.ErrInvalidHandle)
	}
	e, ok := t.lookup(h)
	if !ok {
		return zero, fmt.Errorf("%w: stale %s handle %d", model.ErrInvalidHandle, kind, h)
	}
	if e.kind != kind {
		return zero, fmt.Errorf("%w: handle %d is a %s, want %s", model.ErrInvalidHandle, h, e.kind, kind)
	}
	v, ok := e.value.(T)
	if !ok {
		return zero, fmt.Errorf("%w: handle %d holds %T, want %T", model.ErrInvalidHandle, h, e.value, zero)
	}
	return v, nil
}
