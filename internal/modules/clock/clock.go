// Package clock is the built-in clock module. It publishes one activity,
// clock@clock, whose time property is refreshed by a ticker goroutine.
package clock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/activity"
	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/property"
	"github.com/jmylchreest/isle/internal/widget"
)

// Name is the module name and its config section.
const Name = "clock"

// Activity and property names.
const (
	ActivityName   = "clock"
	PropTime       = "time"
	PropFormat     = "format"
	PropLongFormat = "long_format"
)

// Config is the [modules.clock] section.
type Config struct {
	Format     string          `toml:"format"`
	LongFormat string          `toml:"long_format"`
	Interval   config.Duration `toml:"interval"`
}

// DefaultConfig returns the clock defaults.
func DefaultConfig() Config {
	return Config{
		Format:     "15:04",
		LongFormat: "Mon 2 Jan 15:04:05",
		Interval:   config.Duration(time.Second),
	}
}

func (c Config) validate() error {
	if c.Format == "" || c.LongFormat == "" {
		return fmt.Errorf("%w: clock formats must not be empty", model.ErrConfigParse)
	}
	if c.Interval.Duration() < 10*time.Millisecond {
		return fmt.Errorf("%w: clock interval %s is too short", model.ErrConfigParse, c.Interval.Duration())
	}
	return nil
}

// Module is the clock module.
type Module struct {
	ep         abi.Endpoint
	logger     *slog.Logger
	activities *activity.Map
	now        func() time.Time

	mu     sync.Mutex
	config Config
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// UI thread only.
	shown       time.Time
	labels      [3]widget.Label
	formats     [2]string
	formatProps [2]*property.Property
}

// New is the abi.ModuleConstructor for the clock.
func New(ep abi.Endpoint) (abi.Module, error) {
	return newModule(ep), nil
}

func newModule(ep abi.Endpoint) *Module {
	logger := ep.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Module{
		ep:         ep,
		logger:     logger,
		activities: activity.NewMap(),
		now:        time.Now,
		config:     DefaultConfig(),
	}
}

// Name returns "clock".
func (m *Module) Name() string {
	return Name
}

// Activities returns the module's activity map.
func (m *Module) Activities() *activity.Map {
	return m.activities
}

// Init builds clock@clock and hands it to the host.
func (m *Module) Init() error {
	app, err := m.ep.Application()
	if err != nil {
		return err
	}
	factory := app.Factory()
	if factory == nil {
		return fmt.Errorf("application has no widget factory")
	}

	cfg := m.currentConfig()
	id := model.NewIdentifier(Name, ActivityName)
	a := activity.New(id, m.ep.Updates)
	m.shown = m.now()
	m.formats = [2]string{cfg.Format, cfg.LongFormat}

	for name, v := range map[string]model.Value{
		PropTime:       model.ValueOf(m.shown),
		PropFormat:     model.ValueOf(cfg.Format),
		PropLongFormat: model.ValueOf(cfg.LongFormat),
	} {
		if err := a.AddProperty(name, v); err != nil {
			return err
		}
	}
	for i, name := range []string{PropFormat, PropLongFormat} {
		p, err := a.Property(name)
		if err != nil {
			return err
		}
		m.formatProps[i] = p
	}

	w := widget.New(id.String())
	m.labels = [3]widget.Label{
		factory.NewLabel("", "clock", "clock-hour"),
		factory.NewLabel("", "clock", "clock-time"),
		factory.NewLabel("", "clock", "clock-long"),
	}
	for i, mode := range []widget.Mode{widget.ModeMinimal, widget.ModeCompact, widget.ModeExpanded} {
		if err := w.SetChild(mode, m.labels[i]); err != nil {
			return err
		}
	}
	a.SetWidget(w)
	m.render()

	subs := map[string]property.Subscriber{
		PropTime: func(v model.Value) {
			if t, ok := model.Get[time.Time](v); ok {
				m.shown = t
				m.render()
			}
		},
		PropFormat: func(v model.Value) {
			if f, ok := model.Get[string](v); ok {
				m.formats[0] = f
				m.render()
			}
		},
		PropLongFormat: func(v model.Value) {
			if f, ok := model.Get[string](v); ok {
				m.formats[1] = f
				m.render()
			}
		},
	}
	for name, fn := range subs {
		if err := a.Subscribe(name, fn); err != nil {
			return err
		}
	}

	if err := m.activities.Insert(a); err != nil {
		return err
	}
	return m.ep.Publish(a)
}

func (m *Module) render() {
	if m.labels[0] == nil {
		return
	}
	m.labels[0].SetText(m.shown.Format("15"))
	m.labels[1].SetText(m.shown.Format(m.formats[0]))
	m.labels[2].SetText(m.shown.Format(m.formats[1]))
}

// UpdateConfig applies a [modules.clock] section. The interval takes effect
// on the next RestartProducers.
func (m *Module) UpdateConfig(blob []byte) error {
	m.mu.Lock()
	cfg := m.config
	m.mu.Unlock()

	if err := config.DecodeBlob(blob, &cfg); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	m.mu.Unlock()

	return m.publishFormats(cfg)
}

// publishFormats pushes changed formats through the properties kept by Init.
// Before Init there is nothing to publish.
func (m *Module) publishFormats(cfg Config) error {
	for i, format := range []string{cfg.Format, cfg.LongFormat} {
		p := m.formatProps[i]
		if p == nil {
			continue
		}
		if v, _ := property.Value[string](p); v == format {
			continue
		}
		if err := property.SetValue(p, format); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) currentConfig() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// RestartProducers stops the ticker goroutine, if any, and starts a new one.
func (m *Module) RestartProducers() {
	m.stopProducer()

	m.mu.Lock()
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	interval := m.config.Interval.Duration()
	m.mu.Unlock()

	m.wg.Add(1)
	go m.run(ctx, interval)
}

// Stop stops the ticker goroutine.
func (m *Module) Stop() {
	m.stopProducer()
}

func (m *Module) stopProducer() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *Module) run(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()

	p, err := m.activities.GetProperty(ctx, ActivityName, PropTime)
	if err != nil {
		m.logger.Warn("clock producer has no time property", "error", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := property.SetValue(p, m.now()); err != nil {
				if errors.Is(err, model.ErrChannelClosed) {
					m.logger.Debug("clock producer exiting: update channel closed")
					return
				}
				m.logger.Warn("failed to publish time", "error", err)
			}
		}
	}
}

var _ abi.Module = (*Module)(nil)
