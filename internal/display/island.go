package display

import (
	"errors"
	"log/slog"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/widget"
)

var (
	// ErrNoDisplay is returned when GTK has no default display.
	ErrNoDisplay = errors.New("no display available")
	// ErrNoLayerShell is returned when the compositor lacks wlr-layer-shell.
	ErrNoLayerShell = errors.New("compositor does not support wlr-layer-shell")
)

// ClickCallback is called when an activity widget is clicked.
type ClickCallback func(w *widget.ActivityWidget, button uint)

// ScrollCallback is called with +1 or -1 when the island is scrolled.
type ScrollCallback func(direction int)

// Island is the layer-shell window hosting activity widgets. It is the
// application object handed to modules and layout managers.
type Island struct {
	app    *gtk.Application
	window *gtk.Window
	box    *gtk.Box
	config config.IslandConfig
	theme  config.ThemeConfig
	logger *slog.Logger

	surfaces map[*widget.ActivityWidget]*Surface
	order    []*widget.ActivityWidget

	onClick  ClickCallback
	onScroll ScrollCallback
}

// NewIsland creates the island window. Call Present to show it.
func NewIsland(app *gtk.Application, cfg *config.DaemonConfig, logger *slog.Logger) (*Island, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg == nil {
		cfg = config.DefaultDaemonConfig()
	}
	if gdk.DisplayGetDefault() == nil {
		return nil, ErrNoDisplay
	}
	if !layershell.IsSupported() {
		return nil, ErrNoLayerShell
	}

	i := &Island{
		app:      app,
		config:   cfg.Island,
		theme:    cfg.Theme,
		logger:   logger,
		surfaces: make(map[*widget.ActivityWidget]*Surface),
	}

	i.window = gtk.NewWindow()
	i.window.SetApplication(app)
	i.window.SetDecorated(false)
	i.window.SetResizable(false)
	i.window.AddCSSClass("island-window")

	layershell.InitForWindow(i.window)
	layershell.SetLayer(i.window, layershell.LayerShellLayerTop)
	layershell.SetExclusiveZone(i.window, 0)
	layershell.SetKeyboardMode(i.window, layershell.LayerShellKeyboardModeNone)
	layershell.SetNamespace(i.window, "isle")

	i.box = gtk.NewBox(gtk.OrientationHorizontal, 6)
	i.box.AddCSSClass("island")
	i.box.SetHAlign(gtk.AlignCenter)
	i.window.SetChild(i.box)

	scroll := gtk.NewEventControllerScroll(gtk.EventControllerScrollVertical | gtk.EventControllerScrollDiscrete)
	scroll.ConnectScroll(func(dx, dy float64) bool {
		if i.onScroll == nil || dy == 0 {
			return false
		}
		if dy > 0 {
			i.onScroll(1)
		} else {
			i.onScroll(-1)
		}
		return true
	})
	i.window.AddController(scroll)

	i.applyConfig()
	return i, nil
}

// Present shows the window.
func (i *Island) Present() {
	i.window.Present()
}

// Close closes the window.
func (i *Island) Close() {
	i.window.Close()
}

// UpdateConfig re-anchors the window after a config reload.
func (i *Island) UpdateConfig(cfg *config.DaemonConfig) {
	i.config = cfg.Island
	i.theme = cfg.Theme
	i.applyConfig()
}

func (i *Island) applyConfig() {
	p := placementFor(config.Position(i.config.Position), i.config.OffsetX, i.config.OffsetY)
	p.apply(i.window)
	if p.isBottom() {
		i.box.SetVAlign(gtk.AlignEnd)
	} else {
		i.box.SetVAlign(gtk.AlignStart)
	}

	pinToMonitor(i.window, gdk.DisplayGetDefault(), i.config.Monitor, i.logger)

	i.window.RemoveCSSClass("light")
	i.window.RemoveCSSClass("dark")
	i.window.AddCSSClass(colorSchemeClass(config.ColorScheme(i.theme.ColorScheme)))
}

// colorSchemeClass returns "light" or "dark" based on config or the system
// preference.
func colorSchemeClass(scheme config.ColorScheme) string {
	switch scheme {
	case config.ColorSchemeLight:
		return "light"
	case config.ColorSchemeDark:
		return "dark"
	default:
		if adw.StyleManagerGetDefault().Dark() {
			return "dark"
		}
		return "light"
	}
}

// SetClickCallback sets the callback for clicks on activity widgets.
func (i *Island) SetClickCallback(cb ClickCallback) {
	i.onClick = cb
}

// SetScrollCallback sets the callback for scrolling over the island.
func (i *Island) SetScrollCallback(cb ScrollCallback) {
	i.onScroll = cb
}

// SetInspector opens or closes the GTK inspector.
func (i *Island) SetInspector(enabled bool) {
	gtk.WindowSetInteractiveDebugging(enabled)
}

// Island implements abi.Application.
func (i *Island) Island() abi.Island {
	return i
}

// Factory implements abi.Application.
func (i *Island) Factory() widget.Factory {
	return i
}

// AddTick implements abi.Application. fn runs once per frame of the
// island's frame clock until it returns false.
func (i *Island) AddTick(fn func() bool) {
	i.box.AddTickCallback(func(gtk.Widgetter, gdk.FrameClocker) bool {
		return fn()
	})
}

// NewLabel implements widget.Factory.
func (i *Island) NewLabel(text string, classes ...string) widget.Label {
	return NewLabel(text, classes...)
}

// Realize implements widget.Factory.
func (i *Island) Realize(w *widget.ActivityWidget) widget.Surface {
	if s, ok := i.surfaces[w]; ok {
		return s
	}
	s := newSurface(w, i.logger)
	s.onClick = func(w *widget.ActivityWidget, button uint) {
		if i.onClick != nil {
			i.onClick(w, button)
		}
	}
	i.surfaces[w] = s
	return s
}

// Add implements abi.Island.
func (i *Island) Add(w *widget.ActivityWidget) {
	for _, existing := range i.order {
		if existing == w {
			return
		}
	}
	s, ok := i.surfaces[w]
	if !ok {
		s = i.Realize(w).(*Surface)
		w.SetSurface(s)
	}
	i.box.Append(s.Widget())
	i.order = append(i.order, w)
	s.QueueResize()
	i.logger.Debug("added activity widget", "activity", w.Name())
}

// Remove implements abi.Island. The widget's surface is released; adding
// the widget again realizes a new one.
func (i *Island) Remove(w *widget.ActivityWidget) {
	for idx, existing := range i.order {
		if existing != w {
			continue
		}
		i.order = append(i.order[:idx], i.order[idx+1:]...)
		if s, ok := i.surfaces[w]; ok {
			i.box.Remove(s.Widget())
			s.release()
			delete(i.surfaces, w)
		}
		i.logger.Debug("removed activity widget", "activity", w.Name())
		return
	}
}

// SetOrder implements abi.Island. Widgets not in the island are ignored.
func (i *Island) SetOrder(ws []*widget.ActivityWidget) {
	var prev gtk.Widgetter
	order := make([]*widget.ActivityWidget, 0, len(i.order))
	for _, w := range ws {
		s, ok := i.surfaces[w]
		if !ok || !i.contains(w) {
			continue
		}
		i.box.ReorderChildAfter(s.Widget(), prev)
		prev = s.Widget()
		order = append(order, w)
	}
	i.order = order
}

// SetFocused marks w as the focused widget.
func (i *Island) SetFocused(w *widget.ActivityWidget) {
	for aw, s := range i.surfaces {
		s.SetFocused(aw == w)
	}
}

func (i *Island) contains(w *widget.ActivityWidget) bool {
	for _, existing := range i.order {
		if existing == w {
			return true
		}
	}
	return false
}

var (
	_ abi.Application = (*Island)(nil)
	_ abi.Island      = (*Island)(nil)
	_ widget.Factory  = (*Island)(nil)
)
