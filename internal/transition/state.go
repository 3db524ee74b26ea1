// Package transition provides timer-driven state helpers and value
// interpolation used by widgets to animate between display modes.
//
// Nothing here owns an OS timer. Callers advance time by calling UpdateState
// from their periodic UI tick, so all use is single-threaded.
package transition

import "time"

// StateTransition is a finite timer carrying a state value. When a running
// timer elapses, the timer-ended callback gets a chance to move the state
// (typically back to idle).
type StateTransition[S any] struct {
	state    S
	idle     S
	duration time.Duration
	start    time.Time
	enabled  bool
	running  bool

	onTimerEnd func(state *S)
	now        func() time.Time
}

// NewStateTransition creates a disabled transition in the idle state.
// onTimerEnd may be nil.
func NewStateTransition[S any](idle S, duration time.Duration, onTimerEnd func(state *S)) *StateTransition[S] {
	return &StateTransition[S]{
		state:      idle,
		idle:       idle,
		duration:   duration,
		onTimerEnd: onTimerEnd,
		now:        time.Now,
	}
}

// SetClock replaces the time source.
func (t *StateTransition[S]) SetClock(now func() time.Time) {
	t.now = now
}

// Enable enables the transition. If no timer is running the timer-ended
// callback is invoked immediately to seed the idle state.
func (t *StateTransition[S]) Enable() {
	t.enabled = true
	if !t.running {
		t.timerEnded()
	}
}

// Disable disables the transition. The state is forced to idle on the next
// UpdateState.
func (t *StateTransition[S]) Disable() {
	t.enabled = false
}

// Enabled reports whether the transition is enabled.
func (t *StateTransition[S]) Enabled() bool {
	return t.enabled
}

// StartTimer starts the timer with the configured duration.
func (t *StateTransition[S]) StartTimer() bool {
	return t.StartTimerDuration(t.duration)
}

// StartTimerDuration starts the timer for d. A running timer keeps its start
// time and only has its end rescheduled. It reports false when disabled.
func (t *StateTransition[S]) StartTimerDuration(d time.Duration) bool {
	if !t.enabled {
		return false
	}
	if !t.running {
		t.start = t.now()
		t.running = true
	}
	t.duration = d
	return true
}

// Stop halts a running timer without invoking the timer-ended callback.
func (t *StateTransition[S]) Stop() {
	t.running = false
}

// UpdateState advances the timer and returns the current state. It must be
// called before reading State after time has passed.
func (t *StateTransition[S]) UpdateState() S {
	if !t.enabled {
		t.running = false
		t.state = t.idle
		return t.state
	}
	if t.running && !t.now().Before(t.start.Add(t.duration)) {
		t.running = false
		t.timerEnded()
	}
	return t.state
}

// State returns the state as of the last UpdateState.
func (t *StateTransition[S]) State() S {
	return t.state
}

// SetState sets the current state without touching the timer.
func (t *StateTransition[S]) SetState(s S) {
	t.state = s
}

// Idle returns the idle state.
func (t *StateTransition[S]) Idle() S {
	return t.idle
}

// Running reports whether the timer is running.
func (t *StateTransition[S]) Running() bool {
	return t.running
}

// Duration returns the current timer duration.
func (t *StateTransition[S]) Duration() time.Duration {
	return t.duration
}

// SetDuration changes the duration used by StartTimer.
func (t *StateTransition[S]) SetDuration(d time.Duration) {
	t.duration = d
}

// Progress returns elapsed/duration clamped to [0,1]. A stopped timer is
// complete and reports 1.
func (t *StateTransition[S]) Progress() float64 {
	if !t.running || t.duration <= 0 {
		return 1
	}
	elapsed := t.now().Sub(t.start)
	return clamp(float64(elapsed)/float64(t.duration), 0, 1)
}

func (t *StateTransition[S]) timerEnded() {
	if t.onTimerEnd != nil {
		t.onTimerEnd(&t.state)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
