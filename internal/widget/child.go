package widget

import (
	"fmt"
	"strings"
)

// Orientation selects the axis being measured.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// Rect is an allocation in widget-local pixels.
type Rect struct {
	X, Y          int
	Width, Height int
}

// Style is the set of animated visual properties applied to a slot.
type Style struct {
	Opacity  float64
	Blur     float64
	StretchX float64
	StretchY float64
}

// CSS renders the style as GTK CSS declarations.
func (s Style) CSS() string {
	var b strings.Builder
	fmt.Fprintf(&b, "opacity: %.3f;", s.Opacity)
	if s.Blur > 0.01 {
		fmt.Fprintf(&b, " filter: blur(%.1fpx);", s.Blur)
	}
	if s.StretchX != 1 || s.StretchY != 1 {
		fmt.Fprintf(&b, " transform: scale(%.3f, %.3f);", s.StretchX, s.StretchY)
	}
	return b.String()
}

// Child is a widget occupying one mode slot. The GTK adapter implements it
// for real widgets; tests use fakes.
type Child interface {
	// Measure returns the minimum and natural size along orientation.
	// forSize is the size in the other orientation, or -1 if unknown.
	Measure(orientation Orientation, forSize int) (minimum, natural int)
	// Allocate positions the child inside the activity widget.
	Allocate(rect Rect)
	// ApplyStyle applies the interpolated style for the current frame.
	ApplyStyle(style Style)
}

// Label is a Child that displays text. Modules build their mode content
// from labels obtained through a Factory.
type Label interface {
	Child
	SetText(text string)
	Text() string
}

// Factory creates toolkit widgets for modules. It is implemented by the GTK
// adapter and must only be called on the UI thread.
type Factory interface {
	NewLabel(text string, classes ...string) Label
	// Realize creates the toolkit-side container for w and returns the
	// surface that w attaches its children to.
	Realize(w *ActivityWidget) Surface
}

// Surface is the toolkit container that hosts slot children.
type Surface interface {
	Attach(child Child)
	Detach(child Child)
	QueueResize()
	SetLocalCSS(css string)
}
