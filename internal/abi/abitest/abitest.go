// Package abitest provides in-memory stand-ins for the UI side of the
// module ABI, for tests of modules, layout managers and the host.
package abitest

import (
	"sync"
	"testing"

	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/queue"
	"github.com/jmylchreest/isle/internal/widget"
)

// Label is a widget.Label that records its text.
type Label struct {
	mu      sync.Mutex
	text    string
	Classes []string
	Rect    widget.Rect
	Style   widget.Style
}

func (l *Label) Measure(o widget.Orientation, _ int) (int, int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if o == widget.Horizontal {
		return 8 * len(l.text), 8 * len(l.text)
	}
	return 16, 16
}

func (l *Label) Allocate(r widget.Rect)    { l.Rect = r }
func (l *Label) ApplyStyle(s widget.Style) { l.Style = s }

func (l *Label) SetText(text string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.text = text
}

func (l *Label) Text() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.text
}

// Surface records attached children.
type Surface struct {
	Children []widget.Child
	Resizes  int
	CSS      string
}

func (s *Surface) Attach(c widget.Child) { s.Children = append(s.Children, c) }

func (s *Surface) Detach(c widget.Child) {
	for i, x := range s.Children {
		if x == c {
			s.Children = append(s.Children[:i], s.Children[i+1:]...)
			return
		}
	}
}

func (s *Surface) QueueResize()           { s.Resizes++ }
func (s *Surface) SetLocalCSS(css string) { s.CSS = css }

// Factory creates Labels and Surfaces.
type Factory struct {
	Labels   []*Label
	Surfaces map[*widget.ActivityWidget]*Surface
}

func (f *Factory) NewLabel(text string, classes ...string) widget.Label {
	l := &Label{text: text, Classes: classes}
	f.Labels = append(f.Labels, l)
	return l
}

func (f *Factory) Realize(w *widget.ActivityWidget) widget.Surface {
	if f.Surfaces == nil {
		f.Surfaces = make(map[*widget.ActivityWidget]*Surface)
	}
	s, ok := f.Surfaces[w]
	if !ok {
		s = &Surface{}
		f.Surfaces[w] = s
	}
	return s
}

// Island keeps widgets in insertion or SetOrder order.
type Island struct {
	Widgets []*widget.ActivityWidget
	Focused *widget.ActivityWidget
}

func (i *Island) Add(w *widget.ActivityWidget) { i.Widgets = append(i.Widgets, w) }

func (i *Island) Remove(w *widget.ActivityWidget) {
	for n, x := range i.Widgets {
		if x == w {
			i.Widgets = append(i.Widgets[:n], i.Widgets[n+1:]...)
			return
		}
	}
}

func (i *Island) SetOrder(ws []*widget.ActivityWidget) {
	i.Widgets = append([]*widget.ActivityWidget(nil), ws...)
}

func (i *Island) SetFocused(w *widget.ActivityWidget) { i.Focused = w }

// App is an abi.Application backed by an Island and a Factory. Tick
// callbacks are collected and run by RunTicks.
type App struct {
	island  *Island
	factory *Factory
	ticks   []func() bool
}

// NewApp returns an empty App.
func NewApp() *App {
	return &App{island: &Island{}, factory: &Factory{}}
}

func (a *App) Island() abi.Island      { return a.island }
func (a *App) Factory() widget.Factory { return a.factory }
func (a *App) AddTick(fn func() bool)  { a.ticks = append(a.ticks, fn) }
func (a *App) FakeIsland() *Island     { return a.island }
func (a *App) FakeFactory() *Factory   { return a.factory }
func (a *App) TickCallbacks() int      { return len(a.ticks) }

// RunTicks calls every tick callback once and drops those that return false.
func (a *App) RunTicks() {
	kept := a.ticks[:0]
	for _, fn := range a.ticks {
		if fn() {
			kept = append(kept, fn)
		}
	}
	a.ticks = kept
}

// Endpoint returns a module endpoint wired to app with fresh queues. The
// queues are closed when the test ends.
func Endpoint(t testing.TB, app abi.Application) abi.Endpoint {
	t.Helper()
	handles := abi.NewHandles()
	ep := abi.Endpoint{
		Commands: queue.NewUnbounded[abi.Command](),
		Updates:  queue.NewUnbounded[model.Update](),
		Handles:  handles,
		App:      handles.Register(abi.KindApplication, app),
	}
	t.Cleanup(func() {
		ep.Commands.Close()
		ep.Updates.Close()
	})
	return ep
}

// Commands drains every pending command from ep.
func Commands(ep abi.Endpoint) []abi.Command {
	var out []abi.Command
	for {
		cmd, ok := ep.Commands.TryRecv()
		if !ok {
			return out
		}
		out = append(out, cmd)
	}
}

// Updates drains every pending property update from ep.
func Updates(ep abi.Endpoint) []model.Update {
	var out []model.Update
	for {
		u, ok := ep.Updates.TryRecv()
		if !ok {
			return out
		}
		out = append(out, u)
	}
}

var (
	_ abi.Application = (*App)(nil)
	_ widget.Factory  = (*Factory)(nil)
	_ widget.Label    = (*Label)(nil)
	_ widget.Surface  = (*Surface)(nil)
)
