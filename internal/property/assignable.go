package property

// Source identifies who is assigning a value.
type Source int

const (
	// SourceModule is a default supplied by module code.
	SourceModule Source = iota
	// SourceUser is an explicit user setting (config file, CLI).
	SourceUser
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case SourceModule:
		return "module"
	case SourceUser:
		return "user"
	default:
		return "unknown"
	}
}

// Assignable is a setting that modules may default and users may override.
// Once a user has assigned it, module assignments are ignored.
type Assignable[T any] struct {
	value        T
	lockedByUser bool
}

// NewAssignable returns an unlocked setting holding initial.
func NewAssignable[T any](initial T) Assignable[T] {
	return Assignable[T]{value: initial}
}

// Assign sets v if src is allowed to. It reports whether v was applied.
func (a *Assignable[T]) Assign(v T, src Source) bool {
	if src == SourceModule && a.lockedByUser {
		return false
	}
	a.value = v
	if src == SourceUser {
		a.lockedByUser = true
	}
	return true
}

// Unlock clears the user lock so modules may assign again.
func (a *Assignable[T]) Unlock() {
	a.lockedByUser = false
}

// Get returns the current value.
func (a Assignable[T]) Get() T {
	return a.value
}

// LockedByUser reports whether a user assignment is sticky.
func (a Assignable[T]) LockedByUser() bool {
	return a.lockedByUser
}
