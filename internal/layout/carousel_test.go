package layout

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/widget"
)

type fakeIsland struct {
	widgets []*widget.ActivityWidget
	focused *widget.ActivityWidget
}

func (f *fakeIsland) Add(w *widget.ActivityWidget) { f.widgets = append(f.widgets, w) }
func (f *fakeIsland) Remove(w *widget.ActivityWidget) {
	for i, x := range f.widgets {
		if x == w {
			f.widgets = append(f.widgets[:i], f.widgets[i+1:]...)
			return
		}
	}
}
func (f *fakeIsland) SetOrder(ws []*widget.ActivityWidget) {
	f.widgets = append([]*widget.ActivityWidget(nil), ws...)
}
func (f *fakeIsland) SetFocused(w *widget.ActivityWidget) { f.focused = w }

type fakeApp struct {
	island *fakeIsland
	ticks  int
}

func (a *fakeApp) Island() abi.Island      { return a.island }
func (a *fakeApp) Factory() widget.Factory { return nil }
func (a *fakeApp) AddTick(fn func() bool)  { a.ticks++ }

type harness struct {
	c       *Carousel
	app     *fakeApp
	handles *abi.Handles
	now     time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		app:     &fakeApp{island: &fakeIsland{}},
		handles: abi.NewHandles(),
		now:     time.Unix(1000, 0),
	}
	c, err := newCarousel(h.handles.Register(abi.KindApplication, h.app), h.handles, nil)
	require.NoError(t, err)
	c.SetClock(func() time.Time { return h.now })
	require.NoError(t, c.Init())
	h.c = c
	return h
}

func (h *harness) add(t *testing.T, name string) (model.Identifier, *widget.ActivityWidget) {
	t.Helper()
	id := model.Identifier{Module: "test", Activity: name}
	w := widget.New(id.String())
	require.NoError(t, h.c.AddActivity(id, h.handles.Register(abi.KindWidget, w)))
	return id, w
}

func (h *harness) advance(d time.Duration) {
	h.now = h.now.Add(d)
	h.c.Tick()
}

func TestNewCarousel_InvalidApplicationHandle(t *testing.T) {
	handles := abi.NewHandles()
	_, err := NewCarousel(0, handles, nil)
	assert.ErrorIs(t, err, model.ErrInvalidHandle)

	wh := handles.Register(abi.KindWidget, widget.New("x"))
	_, err = NewCarousel(wh, handles, nil)
	assert.ErrorIs(t, err, model.ErrInvalidHandle)
}

func TestCarousel_AddFocusesFirst(t *testing.T) {
	h := newHarness(t)
	a, wa := h.add(t, "a")
	_, wb := h.add(t, "b")

	focused, ok := h.c.Focused()
	require.True(t, ok)
	assert.Equal(t, a, focused)
	assert.Equal(t, widget.ModeCompact, wa.Mode())
	assert.Equal(t, widget.ModeMinimal, wb.Mode())
	assert.Equal(t, wa, h.app.island.focused)
	assert.Len(t, h.app.island.widgets, 2)
}

func TestCarousel_AddDuplicate(t *testing.T) {
	h := newHarness(t)
	a, _ := h.add(t, "a")
	err := h.c.AddActivity(a, h.handles.Register(abi.KindWidget, widget.New("dup")))
	assert.ErrorIs(t, err, model.ErrAlreadyExists)
	assert.Len(t, h.c.ListActivities(), 1)
}

func TestCarousel_AddStaleHandle(t *testing.T) {
	h := newHarness(t)
	wh := h.handles.Register(abi.KindWidget, widget.New("gone"))
	h.handles.Release(wh)

	err := h.c.AddActivity(model.Identifier{Module: "m", Activity: "gone"}, wh)
	assert.ErrorIs(t, err, model.ErrInvalidHandle)
	assert.Empty(t, h.c.ListActivities())
}

func TestCarousel_GetAndList(t *testing.T) {
	h := newHarness(t)
	a, _ := h.add(t, "a")
	b, _ := h.add(t, "b")

	assert.Equal(t, []model.Identifier{a, b}, h.c.ListActivities())

	handle, ok := h.c.GetActivity(b)
	require.True(t, ok)
	w, err := abi.Resolve[*widget.ActivityWidget](h.handles, handle, abi.KindWidget)
	require.NoError(t, err)
	assert.Equal(t, b.String(), w.Name())

	_, ok = h.c.GetActivity(model.Identifier{Module: "x", Activity: "y"})
	assert.False(t, ok)
}

func TestCarousel_CycleFocus(t *testing.T) {
	tests := []struct {
		name  string
		wrap  bool
		steps []int
		want  string
	}{
		{"next", true, []int{1}, "b"},
		{"prev wraps", true, []int{-1}, "c"},
		{"next wraps", true, []int{1, 1, 1}, "a"},
		{"prev clamps", false, []int{-1}, "a"},
		{"next clamps", false, []int{1, 1, 1, 1}, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.c.config.Wrap = tt.wrap
			h.add(t, "a")
			h.add(t, "b")
			h.add(t, "c")

			for _, s := range tt.steps {
				h.c.CycleFocus(s)
			}
			focused, ok := h.c.Focused()
			require.True(t, ok)
			assert.Equal(t, tt.want, focused.Activity)

			for _, id := range h.c.ListActivities() {
				handle, _ := h.c.GetActivity(id)
				w, err := abi.Resolve[*widget.ActivityWidget](h.handles, handle, abi.KindWidget)
				require.NoError(t, err)
				if id == focused {
					assert.Equal(t, widget.ModeCompact, w.Mode(), id.String())
				} else {
					assert.Equal(t, widget.ModeMinimal, w.Mode(), id.String())
				}
			}
		})
	}
}

func TestCarousel_CycleFocusEmpty(t *testing.T) {
	h := newHarness(t)
	h.c.CycleFocus(1)
	_, ok := h.c.Focused()
	assert.False(t, ok)
}

func TestCarousel_RemoveMovesFocus(t *testing.T) {
	h := newHarness(t)
	a, _ := h.add(t, "a")
	_, wb := h.add(t, "b")

	require.NoError(t, h.c.RemoveActivity(a))
	focused, ok := h.c.Focused()
	require.True(t, ok)
	assert.Equal(t, "b", focused.Activity)
	assert.Equal(t, widget.ModeCompact, wb.Mode())
	assert.Equal(t, []*widget.ActivityWidget{wb}, h.app.island.widgets)

	assert.ErrorIs(t, h.c.RemoveActivity(a), model.ErrNotFound)
}

func TestCarousel_RemoveLast(t *testing.T) {
	h := newHarness(t)
	a, _ := h.add(t, "a")
	require.NoError(t, h.c.RemoveActivity(a))

	_, ok := h.c.Focused()
	assert.False(t, ok)
	assert.Nil(t, h.app.island.focused)
}

func TestCarousel_ActivityNotificationAutoMinimizes(t *testing.T) {
	h := newHarness(t)
	h.add(t, "a")
	b, wb := h.add(t, "b")

	require.NoError(t, h.c.ActivityNotification(b, widget.ModeExpanded, time.Second))
	assert.Equal(t, widget.ModeExpanded, wb.Mode())

	h.advance(500 * time.Millisecond)
	assert.Equal(t, widget.ModeExpanded, wb.Mode())

	h.advance(600 * time.Millisecond)
	assert.Equal(t, widget.ModeMinimal, wb.Mode())
}

func TestCarousel_ActivityNotificationRestartsHold(t *testing.T) {
	h := newHarness(t)
	a, wa := h.add(t, "a")

	require.NoError(t, h.c.ActivityNotification(a, widget.ModeExpanded, time.Second))
	h.advance(800 * time.Millisecond)
	require.NoError(t, h.c.ActivityNotification(a, widget.ModeOverlay, time.Second))
	h.advance(800 * time.Millisecond)
	assert.Equal(t, widget.ModeOverlay, wa.Mode())

	h.advance(300 * time.Millisecond)
	assert.Equal(t, widget.ModeCompact, wa.Mode(), "focused activity returns to its focused mode")
}

func TestCarousel_ActivityNotificationHoldsWithoutDuration(t *testing.T) {
	h := newHarness(t)
	h.add(t, "a")
	b, wb := h.add(t, "b")

	require.NoError(t, h.c.ActivityNotification(b, widget.ModeExpanded, 0))
	h.advance(time.Hour)
	assert.Equal(t, widget.ModeExpanded, wb.Mode())

	h.c.CycleFocus(1)
	assert.Equal(t, widget.ModeCompact, wb.Mode())
}

func TestCarousel_ActivityNotificationErrors(t *testing.T) {
	h := newHarness(t)
	a, _ := h.add(t, "a")

	err := h.c.ActivityNotification(a, widget.Mode(9), time.Second)
	assert.ErrorIs(t, err, model.ErrInvalidMode)

	err = h.c.ActivityNotification(model.Identifier{Module: "x", Activity: "y"}, widget.ModeCompact, 0)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestCarousel_TickSchedulesOnce(t *testing.T) {
	h := newHarness(t)
	a, _ := h.add(t, "a")
	ticks := h.app.ticks

	require.NoError(t, h.c.ActivityNotification(a, widget.ModeExpanded, time.Second))
	require.NoError(t, h.c.ActivityNotification(a, widget.ModeOverlay, time.Second))
	assert.LessOrEqual(t, h.app.ticks, ticks+1)

	h.advance(2 * time.Second)
	assert.True(t, h.c.Tick(), "returning to the focused mode animates")

	h.advance(time.Second)
	assert.False(t, h.c.Tick())
}

func TestCarousel_UpdateConfig(t *testing.T) {
	h := newHarness(t)
	_, wa := h.add(t, "a")
	_, wb := h.add(t, "b")

	require.NoError(t, h.c.UpdateConfig([]byte("focused_mode = \"expanded\"\nresting_mode = \"compact\"\n")))
	assert.Equal(t, widget.ModeExpanded, wa.Mode())
	assert.Equal(t, widget.ModeCompact, wb.Mode())
}

func TestCarousel_UpdateConfigRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"syntax", "focused_mode = "},
		{"unknown key", "speed = 3"},
		{"bad mode", "resting_mode = \"huge\""},
		{"wrong type", "wrap = \"yes\""},
		{"bad order", "order = [\"clock\"]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			before := h.c.config
			err := h.c.UpdateConfig([]byte(tt.blob))
			assert.ErrorIs(t, err, model.ErrConfigParse)
			assert.Equal(t, before, h.c.config)
		})
	}
}

func TestCarousel_RejectedConfigKeepsOrder(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.UpdateConfig([]byte(`order = ["a@x", "b@y"]`)))

	err := h.c.UpdateConfig([]byte("order = [\"c@z\"]\nfocused_mode = \"bogus\"\n"))
	assert.ErrorIs(t, err, model.ErrConfigParse)
	assert.Equal(t, []string{"a@x", "b@y"}, h.c.config.Order)

	err = h.c.UpdateConfig([]byte(`order = ["c@z", "broken"]`))
	assert.ErrorIs(t, err, model.ErrConfigParse)
	assert.Equal(t, []string{"a@x", "b@y"}, h.c.config.Order)
}

func TestCarousel_Move(t *testing.T) {
	h := newHarness(t)
	a, wa := h.add(t, "a")
	b, wb := h.add(t, "b")
	c, wc := h.add(t, "c")

	require.NoError(t, h.c.Move(c, 0))
	assert.Equal(t, []model.Identifier{c, a, b}, h.c.ListActivities())
	assert.Equal(t, []*widget.ActivityWidget{wc, wa, wb}, h.app.island.widgets)

	focused, _ := h.c.Focused()
	assert.Equal(t, a, focused)

	assert.ErrorIs(t, h.c.Move(model.Identifier{Module: "x", Activity: "y"}, 0), model.ErrNotFound)
}

func TestCarousel_ConfiguredOrder(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.UpdateConfig([]byte(`order = ["c@test", "b@test", "c@test"]`)))

	a, wa := h.add(t, "a")
	b, wb := h.add(t, "b")
	assert.Equal(t, []model.Identifier{b, a}, h.c.ListActivities())

	c, wc := h.add(t, "c")
	assert.Equal(t, []model.Identifier{c, b, a}, h.c.ListActivities())
	assert.Equal(t, []*widget.ActivityWidget{wc, wb, wa}, h.app.island.widgets)

	focused, _ := h.c.Focused()
	assert.Equal(t, a, focused)

	require.NoError(t, h.c.UpdateConfig([]byte(`order = ["a@test"]`)))
	assert.Equal(t, []model.Identifier{a, c, b}, h.c.ListActivities())
	focused, _ = h.c.Focused()
	assert.Equal(t, a, focused)
}
