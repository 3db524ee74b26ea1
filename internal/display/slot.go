package display

import (
	"fmt"

	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/isle/internal/widget"
)

// gtkChild is a widget.Child backed by a GTK widget. Surfaces only host
// children implementing it.
type gtkChild interface {
	widget.Child
	gtkWidget() gtk.Widgetter
	setParent(fixed *gtk.Fixed)
}

// Slot adapts any GTK widget to widget.Child. The widget is positioned
// inside the activity surface with gtk.Fixed and styled through a
// provider local to the widget.
type Slot struct {
	widget   gtk.Widgetter
	base     *gtk.Widget
	parent   *gtk.Fixed
	provider *gtk.CSSProvider
	css      string
}

// NewSlot wraps w.
func NewSlot(w gtk.Widgetter) *Slot {
	s := &Slot{
		widget:   w,
		base:     gtk.BaseWidget(w),
		provider: gtk.NewCSSProvider(),
	}
	s.base.AddCSSClass("activity-slot")
	s.base.StyleContext().AddProvider(s.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION+1)
	return s
}

// Widget returns the wrapped GTK widget.
func (s *Slot) Widget() gtk.Widgetter {
	return s.widget
}

// Measure implements widget.Child.
func (s *Slot) Measure(orientation widget.Orientation, forSize int) (int, int) {
	minimum, natural, _, _ := s.base.Measure(toGTK(orientation), forSize)
	return minimum, natural
}

// Allocate implements widget.Child.
func (s *Slot) Allocate(rect widget.Rect) {
	s.base.SetSizeRequest(rect.Width, rect.Height)
	if s.parent != nil {
		s.parent.Move(s.widget, float64(rect.X), float64(rect.Y))
	}
}

// ApplyStyle implements widget.Child.
func (s *Slot) ApplyStyle(style widget.Style) {
	s.base.SetOpacity(style.Opacity)
	s.base.SetCanTarget(style.Opacity > 0.5)

	css := fmt.Sprintf("* { %s }", style.CSS())
	if css == s.css {
		return
	}
	s.css = css
	s.provider.LoadFromString(css)
}

func (s *Slot) gtkWidget() gtk.Widgetter {
	return s.widget
}

func (s *Slot) setParent(fixed *gtk.Fixed) {
	s.parent = fixed
}

// Label is a text slot.
type Label struct {
	*Slot
	label *gtk.Label
}

// NewLabel creates a label slot with the given CSS classes.
func NewLabel(text string, classes ...string) *Label {
	lbl := gtk.NewLabel(text)
	for _, c := range classes {
		lbl.AddCSSClass(c)
	}
	return &Label{Slot: NewSlot(lbl), label: lbl}
}

// SetText implements widget.Label.
func (l *Label) SetText(text string) {
	if l.label.Text() == text {
		return
	}
	l.label.SetText(text)
}

// Text implements widget.Label.
func (l *Label) Text() string {
	return l.label.Text()
}

func toGTK(o widget.Orientation) gtk.Orientation {
	if o == widget.Vertical {
		return gtk.OrientationVertical
	}
	return gtk.OrientationHorizontal
}

var (
	_ gtkChild     = (*Slot)(nil)
	_ widget.Label = (*Label)(nil)
)
