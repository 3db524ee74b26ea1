// Package notifications is the built-in desktop notification module. It
// listens on the session bus and shows the latest notification in the
// island, expanding it briefly on arrival.
package notifications

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oklog/ulid/v2"

	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/activity"
	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/dbus"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/property"
	"github.com/jmylchreest/isle/internal/widget"
)

// Name is the module name and its config section.
const Name = "notifications"

// Activity and property names.
const (
	ActivityName = "latest"
	PropSummary  = "summary"
	PropBody     = "body"
	PropApp      = "app"
	PropCount    = "count"
	PropHistory  = "history"
)

// Source modes.
const (
	// SourceMonitor eavesdrops on Notify calls and leaves display to the
	// running notification daemon.
	SourceMonitor = "monitor"
	// SourceServer owns org.freedesktop.Notifications.
	SourceServer = "server"
)

// Source delivers notifications from the bus.
type Source interface {
	SetNotifyHandler(handler dbus.NotificationHandler)
	Start() error
	Stop() error
}

// closeNotifier is implemented by sources that learn about closed
// notifications.
type closeNotifier interface {
	SetCloseHandler(handler dbus.CloseHandler)
}

// closer is implemented by sources that own the notifications they deliver
// and must announce when one goes away.
type closer interface {
	Close(id uint32, reason dbus.CloseReason) error
}

// Config is the [modules.notifications] section.
type Config struct {
	Source     string          `toml:"source"`
	ExpandFor  config.Duration `toml:"expand_for"`
	History    int             `toml:"history"`
	MinUrgency string          `toml:"min_urgency"`
	IgnoreApps []string        `toml:"ignore_apps"`
}

// DefaultConfig returns the notification module defaults.
func DefaultConfig() Config {
	return Config{
		Source:     SourceMonitor,
		ExpandFor:  config.Duration(4 * time.Second),
		History:    20,
		MinUrgency: "normal",
	}
}

func (c Config) validate() error {
	if c.Source != SourceMonitor && c.Source != SourceServer {
		return fmt.Errorf("%w: source must be %q or %q, got %q", model.ErrConfigParse, SourceMonitor, SourceServer, c.Source)
	}
	if c.ExpandFor.Duration() < 0 {
		return fmt.Errorf("%w: expand_for must not be negative", model.ErrConfigParse)
	}
	if c.History < 1 {
		return fmt.Errorf("%w: history must be at least 1, got %d", model.ErrConfigParse, c.History)
	}
	if _, err := parseUrgency(c.MinUrgency); err != nil {
		return err
	}
	return nil
}

func parseUrgency(s string) (dbus.Urgency, error) {
	u, err := dbus.ParseUrgency(s)
	if err != nil {
		return 0, fmt.Errorf("%w: min_urgency: %v", model.ErrConfigParse, err)
	}
	return u, nil
}

// Module is the notifications module.
type Module struct {
	ep         abi.Endpoint
	logger     *slog.Logger
	activities *activity.Map
	now        func() time.Time
	newSource  func(mode string, logger *slog.Logger) Source

	// pubMu keeps history changes and their property updates in order.
	pubMu sync.Mutex

	mu      sync.Mutex
	config  Config
	history *history
	source  Source

	// UI thread only.
	view view
}

// New is the abi.ModuleConstructor for notifications.
func New(ep abi.Endpoint) (abi.Module, error) {
	return newModule(ep), nil
}

func newModule(ep abi.Endpoint) *Module {
	logger := ep.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cfg := DefaultConfig()
	return &Module{
		ep:         ep,
		logger:     logger,
		activities: activity.NewMap(),
		now:        time.Now,
		newSource:  defaultSource,
		config:     cfg,
		history:    newHistory(cfg.History),
	}
}

func defaultSource(mode string, logger *slog.Logger) Source {
	if mode == SourceServer {
		return dbus.NewServer(logger)
	}
	return dbus.NewMonitor(logger)
}

// Name returns "notifications".
func (m *Module) Name() string {
	return Name
}

// Activities returns the module's activity map.
func (m *Module) Activities() *activity.Map {
	return m.activities
}

// Init builds latest@notifications and hands it to the host.
func (m *Module) Init() error {
	app, err := m.ep.Application()
	if err != nil {
		return err
	}
	factory := app.Factory()
	if factory == nil {
		return fmt.Errorf("application has no widget factory")
	}

	id := model.NewIdentifier(Name, ActivityName)
	a := activity.New(id, m.ep.Updates)
	props := []struct {
		name string
		v    model.Value
	}{
		{PropSummary, model.ValueOf("")},
		{PropBody, model.ValueOf("")},
		{PropApp, model.ValueOf("")},
		{PropCount, model.ValueOf(0)},
		{PropHistory, model.ValueOf([]Entry{})},
	}
	for _, p := range props {
		if err := a.AddProperty(p.name, p.v); err != nil {
			return err
		}
	}

	w := widget.New(id.String())
	m.view = newView(factory, m.now)
	for mode, l := range m.view.slots() {
		if err := w.SetChild(mode, l); err != nil {
			return err
		}
	}
	a.SetWidget(w)

	subs := map[string]property.Subscriber{
		PropSummary: func(v model.Value) { m.view.summary = model.MustGet[string](v); m.view.render() },
		PropBody:    func(v model.Value) { m.view.body = model.MustGet[string](v); m.view.render() },
		PropApp:     func(v model.Value) { m.view.app = model.MustGet[string](v); m.view.render() },
		PropCount:   func(v model.Value) { m.view.count = model.MustGet[int](v); m.view.render() },
		PropHistory: func(v model.Value) { m.view.history = model.MustGet[[]Entry](v); m.view.render() },
	}
	for name, fn := range subs {
		if err := a.Subscribe(name, fn); err != nil {
			return err
		}
	}
	m.view.render()

	if err := m.activities.Insert(a); err != nil {
		return err
	}
	return m.ep.Publish(a)
}

// UpdateConfig applies a [modules.notifications] section. A source change
// takes effect on the next RestartProducers.
func (m *Module) UpdateConfig(blob []byte) error {
	m.mu.Lock()
	cfg := m.config
	cfg.IgnoreApps = slices.Clone(cfg.IgnoreApps)
	m.mu.Unlock()

	if err := config.DecodeBlob(blob, &cfg); err != nil {
		return err
	}
	if err := cfg.validate(); err != nil {
		return err
	}

	m.mu.Lock()
	m.config = cfg
	evicted := m.history.setLimit(cfg.History)
	src := m.source
	m.mu.Unlock()

	m.expire(src, evicted)
	return nil
}

func (m *Module) currentConfig() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// RestartProducers stops the bus source and starts a fresh one for the
// configured mode. A source that fails to start is logged; the activity
// stays up with what it has.
func (m *Module) RestartProducers() {
	m.stopSource()

	cfg := m.currentConfig()
	src := m.newSource(cfg.Source, m.logger)
	src.SetNotifyHandler(m.receive)
	if c, ok := src.(closeNotifier); ok {
		c.SetCloseHandler(m.closed)
	}
	if err := src.Start(); err != nil {
		m.logger.Error("failed to start notification source", "source", cfg.Source, "error", err)
		return
	}

	m.mu.Lock()
	m.source = src
	m.mu.Unlock()
	m.logger.Info("notification source started", "source", cfg.Source)
}

// Stop stops the bus source.
func (m *Module) Stop() {
	m.stopSource()
}

func (m *Module) stopSource() {
	m.mu.Lock()
	src := m.source
	m.source = nil
	m.mu.Unlock()
	if src == nil {
		return
	}
	if err := src.Stop(); err != nil {
		m.logger.Warn("failed to stop notification source", "error", err)
	}
}

// receive is the bus handler. It runs on the source's goroutine.
func (m *Module) receive(n *dbus.Notification, dbusID uint32) {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	cfg := m.config
	if slices.Contains(cfg.IgnoreApps, n.AppName) {
		m.mu.Unlock()
		m.logger.Debug("ignoring notification", "app", n.AppName)
		return
	}

	app := n.AppName
	if app == "" {
		app = n.DesktopEntry()
	}
	e := Entry{
		ID:       ulid.Make().String(),
		App:      app,
		Summary:  n.Summary,
		Body:     n.Body,
		Urgency:  n.Urgency(),
		Category: n.Category(),
		Progress: n.Progress(),
		DBusID:   dbusID,
		Received: m.now(),
	}
	// A monitor that never saw the daemon's reply delivers id 0; such entries
	// can't be replaced or closed later.
	evicted := m.history.add(e, n.ReplacesID)
	snapshot := m.history.snapshot()
	src := m.source
	m.mu.Unlock()

	m.expire(src, evicted)

	m.logger.Debug("notification received", "app", e.App, "summary", e.Summary, "id", e.ID)
	if err := m.publish(snapshot); err != nil {
		m.logError("failed to publish notification", err)
		return
	}

	minUrgency, _ := parseUrgency(cfg.MinUrgency)
	if e.Urgency < minUrgency || n.Transient() && e.Urgency < dbus.UrgencyCritical {
		return
	}
	cmd := abi.RequestMode{
		ID:       model.NewIdentifier(Name, ActivityName),
		Mode:     widget.ModeExpanded,
		Duration: cfg.ExpandFor.Duration(),
	}
	if err := m.ep.Send(cmd); err != nil {
		m.logError("failed to request expanded mode", err)
	}
}

// closed drops a notification the bus closed.
func (m *Module) closed(dbusID uint32, reason dbus.CloseReason) {
	m.pubMu.Lock()
	defer m.pubMu.Unlock()

	m.mu.Lock()
	if !m.history.close(dbusID) {
		m.mu.Unlock()
		return
	}
	snapshot := m.history.snapshot()
	m.mu.Unlock()

	m.logger.Debug("notification closed", "dbus_id", dbusID, "reason", reason)

	if err := m.publish(snapshot); err != nil {
		m.logError("failed to publish close", err)
	}
}

// expire tells the bus that notifications pushed out of the history are
// gone, when the source owns them.
func (m *Module) expire(src Source, ids []uint32) {
	c, ok := src.(closer)
	if !ok {
		return
	}
	for _, id := range ids {
		if err := c.Close(id, dbus.CloseReasonExpired); err != nil {
			m.logger.Warn("failed to expire notification", "dbus_id", id, "error", err)
		}
	}
}

// publish mirrors the history into the activity properties.
func (m *Module) publish(entries []Entry) error {
	var latest Entry
	if len(entries) > 0 {
		latest = entries[0]
	}
	values := []struct {
		name string
		v    model.Value
	}{
		{PropSummary, model.ValueOf(latest.Summary)},
		{PropBody, model.ValueOf(latest.Body)},
		{PropApp, model.ValueOf(latest.App)},
		{PropCount, model.ValueOf(len(entries))},
		{PropHistory, model.ValueOf(entries)},
	}
	for _, v := range values {
		p, err := m.activities.GetPropertyBlocking(ActivityName, v.name)
		if err != nil {
			return err
		}
		if err := p.Set(v.v); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) logError(msg string, err error) {
	if errors.Is(err, model.ErrChannelClosed) {
		m.logger.Debug(msg, "error", err)
		return
	}
	m.logger.Warn(msg, "error", err)
}

// view owns the labels of latest@notifications. UI thread only.
type view struct {
	now func() time.Time

	badge    widget.Label
	headline widget.Label
	detail   widget.Label
	list     widget.Label

	summary, body, app string
	count              int
	history            []Entry
}

func newView(f widget.Factory, now func() time.Time) view {
	return view{
		now:      now,
		badge:    f.NewLabel("", "notification-badge"),
		headline: f.NewLabel("", "notification-headline"),
		detail:   f.NewLabel("", "notification-detail"),
		list:     f.NewLabel("", "notification-history"),
	}
}

func (v *view) slots() map[widget.Mode]widget.Label {
	return map[widget.Mode]widget.Label{
		widget.ModeMinimal:  v.badge,
		widget.ModeCompact:  v.headline,
		widget.ModeExpanded: v.detail,
		widget.ModeOverlay:  v.list,
	}
}

func (v *view) render() {
	if v.badge == nil {
		return
	}
	v.badge.SetText(strconv.Itoa(v.count))

	headline := v.summary
	if v.app != "" && headline != "" {
		headline = v.app + ": " + headline
	}
	v.headline.SetText(headline)

	detail := v.summary
	if v.body != "" {
		detail += "\n" + v.body
	}
	v.detail.SetText(detail)

	var b strings.Builder
	now := v.now()
	for i, e := range v.history {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s  %s", e.App, e.Summary)
		if e.Progress >= 0 {
			fmt.Fprintf(&b, " %d%%", e.Progress)
		}
		fmt.Fprintf(&b, "  %s", humanize.RelTime(e.Received, now, "ago", "from now"))
	}
	v.list.SetText(b.String())
}

var _ abi.Module = (*Module)(nil)

var (
	_ Source        = (*dbus.Monitor)(nil)
	_ Source        = (*dbus.Server)(nil)
	_ closeNotifier = (*dbus.Monitor)(nil)
	_ closeNotifier = (*dbus.Server)(nil)
	_ closer        = (*dbus.Server)(nil)
)
