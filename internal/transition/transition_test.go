package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransition_At(t *testing.T) {
	tr := Transition{From: 0, To: 10, Easing: EaseLinear}

	assert.InDelta(t, 0, tr.At(0), 1e-9)
	assert.InDelta(t, 5, tr.At(0.5), 1e-9)
	assert.InDelta(t, 10, tr.At(1), 1e-9)
	assert.InDelta(t, 10, tr.At(2), 1e-9, "progress is clamped")
	assert.InDelta(t, 0, tr.At(-1), 1e-9, "progress is clamped")
}

func TestTransition_NilEasingIsLinear(t *testing.T) {
	tr := Transition{From: 1, To: 3}
	assert.InDelta(t, 2, tr.At(0.5), 1e-9)
}

func TestTransition_Done(t *testing.T) {
	assert.True(t, Transition{From: 1, To: 1}.Done())
	assert.False(t, Transition{From: 1, To: 2}.Done())
}

func TestEasingEndpoints(t *testing.T) {
	for _, name := range []string{"linear", "ease-in", "ease-out", "ease-in-out", "ease-in-out-cubic", "ease-out-back", "unknown"} {
		t.Run(name, func(t *testing.T) {
			fn := EasingByName(name)
			assert.InDelta(t, 0, fn(0), 1e-9)
			assert.InDelta(t, 1, fn(1), 1e-9)
		})
	}
}

func TestEaseOutBackOvershoots(t *testing.T) {
	peak := 0.0
	for i := range 101 {
		if v := EaseOutBack(float64(i) / 100); v > peak {
			peak = v
		}
	}
	assert.Greater(t, peak, 1.0)
}
