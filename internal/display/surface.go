package display

import (
	"log/slog"

	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/isle/internal/widget"
)

// Surface is the GTK container of one activity widget. It sizes itself to
// the widget's current frame and lets the widget lay out its slots.
type Surface struct {
	aw       *widget.ActivityWidget
	fixed    *gtk.Fixed
	provider *gtk.CSSProvider
	logger   *slog.Logger

	onClick  func(w *widget.ActivityWidget, button uint)
	stopMode func()
}

func newSurface(aw *widget.ActivityWidget, logger *slog.Logger) *Surface {
	s := &Surface{
		aw:       aw,
		fixed:    gtk.NewFixed(),
		provider: gtk.NewCSSProvider(),
		logger:   logger,
	}
	s.fixed.AddCSSClass("activity-widget")
	s.fixed.AddCSSClass(widget.ClassName(aw.Name()))
	s.fixed.SetOverflow(gtk.OverflowHidden)
	s.fixed.StyleContext().AddProvider(s.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION+1)

	click := gtk.NewGestureClick()
	click.SetButton(0)
	click.ConnectReleased(func(nPress int, x, y float64) {
		if s.onClick != nil {
			s.onClick(s.aw, click.CurrentButton())
		}
	})
	s.fixed.AddController(click)

	s.stopMode = aw.OnModeChanged(func(m widget.Mode) {
		for _, mode := range widget.Modes() {
			s.fixed.RemoveCSSClass("mode-" + mode.String())
		}
		s.fixed.AddCSSClass("mode-" + m.String())
	})
	s.fixed.AddCSSClass("mode-" + aw.Mode().String())

	return s
}

// Widget returns the container to place in the island.
func (s *Surface) Widget() gtk.Widgetter {
	return s.fixed
}

// Attach implements widget.Surface.
func (s *Surface) Attach(child widget.Child) {
	c, ok := child.(gtkChild)
	if !ok {
		s.logger.Warn("ignoring non-GTK child", "activity", s.aw.Name())
		return
	}
	c.setParent(s.fixed)
	s.fixed.Put(c.gtkWidget(), 0, 0)
}

// Detach implements widget.Surface.
func (s *Surface) Detach(child widget.Child) {
	c, ok := child.(gtkChild)
	if !ok {
		return
	}
	s.fixed.Remove(c.gtkWidget())
	c.setParent(nil)
}

// QueueResize implements widget.Surface.
func (s *Surface) QueueResize() {
	width, height := s.aw.FrameSize()
	s.fixed.SetSizeRequest(width, height)
	s.aw.Allocate(width, height)
	s.fixed.QueueResize()
}

// SetLocalCSS implements widget.Surface.
func (s *Surface) SetLocalCSS(css string) {
	s.provider.LoadFromString(css)
}

// SetFocused toggles the focused style class.
func (s *Surface) SetFocused(focused bool) {
	if focused {
		s.fixed.AddCSSClass("focused")
	} else {
		s.fixed.RemoveCSSClass("focused")
	}
}

// release unbinds the surface from its widget. The surface is unusable
// afterwards.
func (s *Surface) release() {
	if s.aw.Surface() == widget.Surface(s) {
		s.aw.SetSurface(nil)
	}
	s.stopMode()
	s.onClick = nil
}

var _ widget.Surface = (*Surface)(nil)
