package transition

import "math"

// EasingFunc maps time progress in [0,1] to value progress.
type EasingFunc func(t float64) float64

// Common easing functions.
var (
	EaseLinear EasingFunc = func(t float64) float64 { return t }

	EaseInQuad EasingFunc = func(t float64) float64 { return t * t }

	EaseOutQuad EasingFunc = func(t float64) float64 { return t * (2 - t) }

	EaseInOutQuad EasingFunc = func(t float64) float64 {
		if t < 0.5 {
			return 2 * t * t
		}
		return -1 + (4-2*t)*t
	}

	EaseOutCubic EasingFunc = func(t float64) float64 {
		t--
		return t*t*t + 1
	}

	EaseInOutCubic EasingFunc = func(t float64) float64 {
		if t < 0.5 {
			return 4 * t * t * t
		}
		return (t-1)*(2*t-2)*(2*t-2) + 1
	}

	// EaseOutBack overshoots slightly before settling.
	EaseOutBack EasingFunc = func(t float64) float64 {
		c1 := 1.70158
		c3 := c1 + 1
		return 1 + c3*math.Pow(t-1, 3) + c1*math.Pow(t-1, 2)
	}
)

// EasingByName returns the easing function for a config name. Unknown names
// fall back to EaseOutCubic.
func EasingByName(name string) EasingFunc {
	switch name {
	case "linear":
		return EaseLinear
	case "ease-in", "ease-in-quad":
		return EaseInQuad
	case "ease-out", "ease-out-quad":
		return EaseOutQuad
	case "ease-in-out", "ease-in-out-quad":
		return EaseInOutQuad
	case "ease-in-out-cubic":
		return EaseInOutCubic
	case "ease-out-back", "spring":
		return EaseOutBack
	default:
		return EaseOutCubic
	}
}
