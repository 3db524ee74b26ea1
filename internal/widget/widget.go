package widget

import (
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/property"
	"github.com/jmylchreest/isle/internal/transition"
)

// ActivityWidget hosts up to four children, one per Mode, and animates
// between them when the mode changes. All methods must be called on the UI
// thread.
type ActivityWidget struct {
	name    string
	mode    Mode
	slots   [modeCount]Child
	style   LocalStyle
	surface Surface

	anim *transition.StateTransition[Mode]
	from [modeCount]Style
	cur  [modeCount]Style

	width, height int
	fromW, fromH  int

	modeListeners []modeListener
	nextListener  int
}

type modeListener struct {
	id int
	fn func(Mode)
}

// New creates a widget in minimal mode with the default style.
func New(name string) *ActivityWidget {
	w := &ActivityWidget{
		name:  name,
		mode:  ModeMinimal,
		style: DefaultLocalStyle(),
	}
	// The transition's state is unused beyond its timer; a finished run
	// leaves every slot settled on its target style.
	w.anim = transition.NewStateTransition(ModeMinimal, w.style.TransitionDuration.Get(), nil)
	w.anim.Enable()
	for i := range w.cur {
		w.cur[i] = w.targetStyle(Mode(i), 0, 0)
		w.from[i] = w.cur[i]
	}
	return w
}

// Name returns the activity name the widget was created for.
func (w *ActivityWidget) Name() string {
	return w.name
}

// SetClock overrides the animation clock.
func (w *ActivityWidget) SetClock(now func() time.Time) {
	w.anim.SetClock(now)
}

// SetSurface binds the widget to its toolkit container, attaching any
// children set so far.
func (w *ActivityWidget) SetSurface(s Surface) {
	if w.surface != nil {
		for _, c := range w.slots {
			if c != nil {
				w.surface.Detach(c)
			}
		}
	}
	w.surface = s
	if s == nil {
		return
	}
	for _, c := range w.slots {
		if c != nil {
			s.Attach(c)
		}
	}
	s.SetLocalCSS(w.style.CSS(w.name))
	s.QueueResize()
}

// Surface returns the bound toolkit container, if any.
func (w *ActivityWidget) Surface() Surface {
	return w.surface
}

// SetChild places c in the slot for mode, replacing any previous child.
// A nil child empties the slot.
func (w *ActivityWidget) SetChild(mode Mode, c Child) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %d", model.ErrInvalidMode, int(mode))
	}
	if old := w.slots[mode]; old != nil && w.surface != nil {
		w.surface.Detach(old)
	}
	w.slots[mode] = c
	if c != nil {
		w.cur[mode] = w.targetStyle(mode, 0, 0)
		w.from[mode] = w.cur[mode]
		if w.surface != nil {
			w.surface.Attach(c)
		}
	}
	w.queueResize()
	return nil
}

// Child returns the child in the slot for mode, or nil.
func (w *ActivityWidget) Child(mode Mode) Child {
	if !mode.Valid() {
		return nil
	}
	return w.slots[mode]
}

// Mode returns the active mode.
func (w *ActivityWidget) Mode() Mode {
	return w.mode
}

// OnModeChanged registers fn to be called after every mode change. The
// returned function unregisters it.
func (w *ActivityWidget) OnModeChanged(fn func(Mode)) (cancel func()) {
	w.nextListener++
	id := w.nextListener
	w.modeListeners = append(w.modeListeners, modeListener{id: id, fn: fn})
	return func() {
		w.modeListeners = slices.DeleteFunc(w.modeListeners, func(l modeListener) bool {
			return l.id == id
		})
	}
}

// SetMode switches the active mode and starts the cross-fade. Setting the
// current mode is a no-op.
func (w *ActivityWidget) SetMode(mode Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("%w: %d", model.ErrInvalidMode, int(mode))
	}
	if mode == w.mode {
		return nil
	}

	w.from = w.cur
	w.fromW, w.fromH = w.width, w.height
	w.mode = mode

	w.anim.Stop()
	w.anim.SetState(mode)
	w.anim.StartTimerDuration(w.style.TransitionDuration.Get())

	for _, l := range slices.Clone(w.modeListeners) {
		l.fn(mode)
	}
	w.queueResize()
	return nil
}

// Style returns the local style context.
func (w *ActivityWidget) Style() LocalStyle {
	return w.style
}

// UpdateStyle applies fn to the local style and re-renders the local CSS.
func (w *ActivityWidget) UpdateStyle(fn func(s *LocalStyle)) {
	fn(&w.style)
	w.anim.SetDuration(w.style.TransitionDuration.Get())
	if w.surface != nil {
		w.surface.SetLocalCSS(w.style.CSS(w.name))
	}
	w.queueResize()
}

// SetMinimalHeight sets the fallback height used when the active slot is
// empty.
func (w *ActivityWidget) SetMinimalHeight(h int, src property.Source) {
	w.UpdateStyle(func(s *LocalStyle) { s.MinimalHeight.Assign(h, src) })
}

// SetMinimalWidth sets the fallback width used when the active slot is
// empty.
func (w *ActivityWidget) SetMinimalWidth(width int, src property.Source) {
	w.UpdateStyle(func(s *LocalStyle) { s.MinimalWidth.Assign(width, src) })
}

// SetTransitionDuration sets how long mode changes animate.
func (w *ActivityWidget) SetTransitionDuration(d time.Duration, src property.Source) {
	w.UpdateStyle(func(s *LocalStyle) { s.TransitionDuration.Assign(d, src) })
}

// Measure reports the size of the active mode's child. An empty active slot
// falls back to the configured minimal size.
func (w *ActivityWidget) Measure(orientation Orientation, forSize int) (minimum, natural int) {
	c := w.slots[w.mode]
	if c == nil {
		if orientation == Vertical {
			h := w.style.MinimalHeight.Get()
			return h, h
		}
		mw := w.style.MinimalWidth.Get()
		return mw, mw
	}
	return c.Measure(orientation, forSize)
}

// FrameSize returns the size the container should have for the current
// animation frame, interpolating from the size held when the mode changed.
func (w *ActivityWidget) FrameSize() (width, height int) {
	_, natW := w.Measure(Horizontal, -1)
	_, natH := w.Measure(Vertical, natW)
	if !w.anim.Running() || (w.fromW == 0 && w.fromH == 0) {
		return natW, natH
	}
	p := w.eased()
	width = int(math.Round(transition.Lerp(float64(w.fromW), float64(natW), p)))
	height = int(math.Round(transition.Lerp(float64(w.fromH), float64(natH), p)))
	return width, height
}

// Allocate lays out every populated slot centred in a width x height box and
// applies the interpolated style of the current frame.
func (w *ActivityWidget) Allocate(width, height int) {
	w.width, w.height = width, height
	p := w.eased()
	for i, c := range w.slots {
		if c == nil {
			continue
		}
		mode := Mode(i)
		_, cw := c.Measure(Horizontal, -1)
		_, ch := c.Measure(Vertical, cw)
		c.Allocate(Rect{
			X:      (width - cw) / 2,
			Y:      (height - ch) / 2,
			Width:  cw,
			Height: ch,
		})

		target := w.targetStyle(mode, cw, ch)
		w.cur[i] = lerpStyle(w.from[i], target, p)
		c.ApplyStyle(w.cur[i])
	}
}

// Tick advances the mode transition and re-applies styles. It reports
// whether another frame is needed.
func (w *ActivityWidget) Tick() bool {
	running := w.anim.Running()
	w.anim.UpdateState()
	if running || w.anim.Running() {
		w.Allocate(w.width, w.height)
		w.queueResize()
	}
	return w.anim.Running()
}

// Animating reports whether a mode transition is in progress.
func (w *ActivityWidget) Animating() bool {
	return w.anim.Running()
}

// SlotStyle returns the style most recently applied to the slot for mode.
func (w *ActivityWidget) SlotStyle(mode Mode) Style {
	if !mode.Valid() {
		return Style{}
	}
	return w.cur[mode]
}

func (w *ActivityWidget) eased() float64 {
	if !w.anim.Running() {
		return 1
	}
	return transition.EasingByName(w.style.Easing.Get())(w.anim.Progress())
}

// targetStyle is the settled style of a slot: the active slot is fully
// visible, inactive ones are transparent, blurred and stretched to the
// active child's size so the cross-fade reads as a morph.
func (w *ActivityWidget) targetStyle(mode Mode, childW, childH int) Style {
	if mode == w.mode {
		return Style{Opacity: 1, Blur: 0, StretchX: 1, StretchY: 1}
	}
	s := Style{Opacity: 0, Blur: w.style.BlurRadius.Get(), StretchX: 1, StretchY: 1}
	if active := w.slots[w.mode]; active != nil && childW > 0 && childH > 0 {
		_, aw := active.Measure(Horizontal, -1)
		_, ah := active.Measure(Vertical, aw)
		s.StretchX = float64(aw) / float64(childW)
		s.StretchY = float64(ah) / float64(childH)
	}
	return s
}

func (w *ActivityWidget) queueResize() {
	if w.surface != nil {
		w.surface.QueueResize()
	}
}

func lerpStyle(a, b Style, p float64) Style {
	if p >= 1 {
		return b
	}
	return Style{
		Opacity:  math.Min(1, math.Max(0, transition.Lerp(a.Opacity, b.Opacity, p))),
		Blur:     math.Max(0, transition.Lerp(a.Blur, b.Blur, p)),
		StretchX: transition.Lerp(a.StretchX, b.StretchX, p),
		StretchY: transition.Lerp(a.StretchY, b.StretchY, p),
	}
}
