package transition

// Transition interpolates a float value between two endpoints.
type Transition struct {
	From   float64
	To     float64
	Easing EasingFunc
}

// At returns the interpolated value at progress p, clamped to [0,1].
func (t Transition) At(p float64) float64 {
	p = clamp(p, 0, 1)
	eased := p
	if t.Easing != nil {
		eased = t.Easing(p)
	}
	return Lerp(t.From, t.To, eased)
}

// Done reports whether both endpoints are equal, i.e. there is nothing to animate.
func (t Transition) Done() bool {
	return t.From == t.To
}

// Lerp linearly interpolates between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
