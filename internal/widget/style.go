package widget

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmylchreest/isle/internal/property"
)

// Defaults applied when neither a module nor the user configures a value.
const (
	DefaultMinimalWidth       = 40
	DefaultMinimalHeight      = 40
	DefaultBlurRadius         = 6.0
	DefaultTransitionDuration = 500 * time.Millisecond
	DefaultBorderRadius       = 100
	DefaultEasing             = "ease-out-cubic"
)

// LocalStyle is the per-activity style context. Every field may be set by
// the owning module or by the user; user values stick.
type LocalStyle struct {
	MinimalWidth       property.Assignable[int]
	MinimalHeight      property.Assignable[int]
	BlurRadius         property.Assignable[float64]
	TransitionDuration property.Assignable[time.Duration]
	BorderRadius       property.Assignable[int]
	Easing             property.Assignable[string]
}

// DefaultLocalStyle returns an unlocked style with default values.
func DefaultLocalStyle() LocalStyle {
	return LocalStyle{
		MinimalWidth:       property.NewAssignable(DefaultMinimalWidth),
		MinimalHeight:      property.NewAssignable(DefaultMinimalHeight),
		BlurRadius:         property.NewAssignable(DefaultBlurRadius),
		TransitionDuration: property.NewAssignable(DefaultTransitionDuration),
		BorderRadius:       property.NewAssignable(DefaultBorderRadius),
		Easing:             property.NewAssignable(DefaultEasing),
	}
}

// ClassName returns the CSS class used for an activity named name.
func ClassName(name string) string {
	var b strings.Builder
	b.WriteString("activity-")
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

// CSS renders the local CSS context for the activity named name.
func (s LocalStyle) CSS(name string) string {
	return fmt.Sprintf(".activity-widget.%s { min-width: %dpx; min-height: %dpx; border-radius: %dpx; }\n",
		ClassName(name), s.MinimalWidth.Get(), s.MinimalHeight.Get(), s.BorderRadius.Get())
}
