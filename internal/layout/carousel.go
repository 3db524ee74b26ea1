package layout

import (
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/transition"
	"github.com/jmylchreest/isle/internal/widget"
)

// entry is one activity in the carousel. hold carries the mode the widget
// should be in; its timer ends an attention request and drops the widget
// back to its resting mode.
type entry struct {
	id     model.Identifier
	handle abi.Handle
	widget *widget.ActivityWidget
	hold   *transition.StateTransition[widget.Mode]
}

// Carousel is the built-in layout manager. All methods run on the UI thread.
type Carousel struct {
	app     abi.Application
	handles *abi.Handles
	logger  *slog.Logger

	config  Config
	focused widget.Mode
	resting widget.Mode

	order   []*entry
	focus   int // index into order, -1 when empty
	ticking bool
	now     func() time.Time
}

// NewCarousel implements abi.LayoutManagerConstructor.
func NewCarousel(app abi.Handle, handles *abi.Handles, logger *slog.Logger) (abi.LayoutManager, error) {
	return newCarousel(app, handles, logger)
}

func newCarousel(app abi.Handle, handles *abi.Handles, logger *slog.Logger) (*Carousel, error) {
	if logger == nil {
		logger = slog.Default()
	}
	application, err := abi.Resolve[abi.Application](handles, app, abi.KindApplication)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve application: %w", err)
	}

	cfg := DefaultConfig()
	focused, resting, _ := cfg.modes()
	return &Carousel{
		app:     application,
		handles: handles,
		logger:  logger.With("layout", CarouselName),
		config:  cfg,
		focused: focused,
		resting: resting,
		focus:   -1,
		now:     time.Now,
	}, nil
}

// SetClock replaces the time source of the carousel and its timers.
func (c *Carousel) SetClock(now func() time.Time) {
	c.now = now
	for _, e := range c.order {
		e.hold.SetClock(now)
		e.widget.SetClock(now)
	}
}

// Init implements abi.LayoutManager.
func (c *Carousel) Init() error {
	c.logger.Debug("layout manager initialized")
	return nil
}

// UpdateConfig implements abi.LayoutManager.
func (c *Carousel) UpdateConfig(blob []byte) error {
	next, err := parseConfig(c.config, blob)
	if err != nil {
		return err
	}
	c.config = next
	c.focused, c.resting, _ = next.modes()
	c.arrange()

	for i, e := range c.order {
		if !e.hold.Running() {
			c.settle(i)
		}
	}
	c.ensureTicking()
	c.logger.Debug("layout config updated", "focused_mode", c.focused, "resting_mode", c.resting)
	return nil
}

// AddActivity implements abi.LayoutManager.
func (c *Carousel) AddActivity(id model.Identifier, h abi.Handle) error {
	if c.index(id) >= 0 {
		return fmt.Errorf("%w: activity %s", model.ErrAlreadyExists, id)
	}
	w, err := abi.Resolve[*widget.ActivityWidget](c.handles, h, abi.KindWidget)
	if err != nil {
		return fmt.Errorf("failed to add activity %s: %w", id, err)
	}

	e := &entry{id: id, handle: h, widget: w}
	e.hold = transition.NewStateTransition(c.resting, 0, func(state *widget.Mode) {
		*state = c.restingModeOf(e)
	})
	e.hold.SetClock(c.now)
	w.SetClock(c.now)

	c.order = append(c.order, e)
	if c.focus < 0 {
		c.focus = 0
	}
	c.app.Island().Add(w)
	e.hold.Enable()
	c.settle(len(c.order) - 1)
	c.arrange()
	c.markFocus()
	c.ensureTicking()

	c.logger.Debug("activity added", "activity", id, "position", c.index(id))
	return nil
}

// RemoveActivity implements abi.LayoutManager.
func (c *Carousel) RemoveActivity(id model.Identifier) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("%w: activity %s", model.ErrNotFound, id)
	}
	e := c.order[i]
	e.hold.Disable()
	c.app.Island().Remove(e.widget)
	c.order = slices.Delete(c.order, i, i+1)

	switch {
	case len(c.order) == 0:
		c.focus = -1
	case i < c.focus || c.focus >= len(c.order):
		c.focus--
	}
	if c.focus >= 0 {
		c.settle(c.focus)
	}
	c.markFocus()
	c.ensureTicking()

	c.logger.Debug("activity removed", "activity", id)
	return nil
}

// ListActivities implements abi.LayoutManager. The result is in display
// order.
func (c *Carousel) ListActivities() []model.Identifier {
	ids := make([]model.Identifier, len(c.order))
	for i, e := range c.order {
		ids[i] = e.id
	}
	return ids
}

// GetActivity implements abi.LayoutManager.
func (c *Carousel) GetActivity(id model.Identifier) (abi.Handle, bool) {
	if i := c.index(id); i >= 0 {
		return c.order[i].handle, true
	}
	return 0, false
}

// ActivityNotification implements abi.LayoutManager. A non-positive
// duration holds the mode until the next request, or until the activity
// gains or loses focus.
func (c *Carousel) ActivityNotification(id model.Identifier, mode widget.Mode, duration time.Duration) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %d", model.ErrInvalidMode, int(mode))
	}
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("%w: activity %s", model.ErrNotFound, id)
	}
	e := c.order[i]

	e.hold.Stop()
	e.hold.SetState(mode)
	if duration > 0 {
		e.hold.StartTimerDuration(duration)
	}
	if err := e.widget.SetMode(mode); err != nil {
		return err
	}
	c.ensureTicking()

	c.logger.Debug("activity notification", "activity", id, "mode", mode, "duration", duration)
	return nil
}

// CycleFocus implements abi.LayoutManager.
func (c *Carousel) CycleFocus(direction int) {
	n := len(c.order)
	if n == 0 || direction == 0 {
		return
	}
	prev := c.focus
	next := prev + direction
	if c.config.Wrap {
		next = ((next % n) + n) % n
	} else {
		next = max(0, min(n-1, next))
	}
	if next == prev {
		return
	}

	c.focus = next
	c.release(prev)
	c.release(next)
	c.markFocus()
	c.ensureTicking()

	c.logger.Debug("focus changed", "activity", c.order[next].id)
}

// Focused implements abi.LayoutManager.
func (c *Carousel) Focused() (model.Identifier, bool) {
	if c.focus < 0 {
		return model.Identifier{}, false
	}
	return c.order[c.focus].id, true
}

// Move repositions id to index pos in the display order.
func (c *Carousel) Move(id model.Identifier, pos int) error {
	i := c.index(id)
	if i < 0 {
		return fmt.Errorf("%w: activity %s", model.ErrNotFound, id)
	}
	pos = max(0, min(len(c.order)-1, pos))
	if i == pos {
		return nil
	}
	focusedID, _ := c.Focused()

	e := c.order[i]
	c.order = slices.Delete(c.order, i, i+1)
	c.order = slices.Insert(c.order, pos, e)
	c.focus = c.index(focusedID)

	ws := make([]*widget.ActivityWidget, len(c.order))
	for j, e := range c.order {
		ws[j] = e.widget
	}
	c.app.Island().SetOrder(ws)
	return nil
}

// arrange moves the activities named in the order setting to the front, in
// that order. Unlisted activities keep their relative order behind them.
func (c *Carousel) arrange() {
	ids, _ := c.config.order()
	pos := 0
	for _, id := range ids {
		if i := c.index(id); i < pos {
			continue
		}
		_ = c.Move(id, pos)
		pos++
	}
}

// restingModeOf is the mode an entry settles in without an attention request.
func (c *Carousel) restingModeOf(e *entry) widget.Mode {
	if c.focus >= 0 && c.focus < len(c.order) && c.order[c.focus] == e {
		return c.focused
	}
	return c.resting
}

// release ends any indefinite hold on entry i and settles it.
func (c *Carousel) release(i int) {
	if i < 0 || i >= len(c.order) {
		return
	}
	if c.order[i].hold.Running() {
		return
	}
	c.settle(i)
}

// settle moves entry i to its resting mode.
func (c *Carousel) settle(i int) {
	e := c.order[i]
	mode := c.restingModeOf(e)
	e.hold.SetState(mode)
	if err := e.widget.SetMode(mode); err != nil {
		c.logger.Warn("failed to set mode", "activity", e.id, "error", err)
	}
}

func (c *Carousel) markFocus() {
	var w *widget.ActivityWidget
	if c.focus >= 0 {
		w = c.order[c.focus].widget
	}
	c.app.Island().SetFocused(w)
}

func (c *Carousel) index(id model.Identifier) int {
	return slices.IndexFunc(c.order, func(e *entry) bool { return e.id == id })
}

// ensureTicking schedules the frame callback while timers or animations
// are active.
func (c *Carousel) ensureTicking() {
	if c.ticking || !c.busy() {
		return
	}
	c.ticking = true
	c.app.AddTick(func() bool {
		more := c.Tick()
		if !more {
			c.ticking = false
		}
		return more
	})
}

// Tick advances hold timers and widget animations. It reports whether
// another frame is needed.
func (c *Carousel) Tick() bool {
	for _, e := range c.order {
		mode := e.hold.UpdateState()
		if mode != e.widget.Mode() {
			if err := e.widget.SetMode(mode); err != nil {
				c.logger.Warn("failed to set mode", "activity", e.id, "error", err)
			}
		}
		e.widget.Tick()
	}
	return c.busy()
}

func (c *Carousel) busy() bool {
	for _, e := range c.order {
		if e.hold.Running() || e.widget.Animating() {
			return true
		}
	}
	return false
}

var _ abi.LayoutManager = (*Carousel)(nil)
