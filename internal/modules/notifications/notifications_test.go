package notifications

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	godbus "github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/abi/abitest"
	"github.com/jmylchreest/isle/internal/dbus"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/property"
	"github.com/jmylchreest/isle/internal/widget"
)

type fakeSource struct {
	mode     string
	notify   dbus.NotificationHandler
	close    dbus.CloseHandler
	startErr error
	started  int
	stopped  int
}

func (s *fakeSource) SetNotifyHandler(h dbus.NotificationHandler) { s.notify = h }
func (s *fakeSource) SetCloseHandler(h dbus.CloseHandler)         { s.close = h }
func (s *fakeSource) Start() error                                { s.started++; return s.startErr }
func (s *fakeSource) Stop() error                                 { s.stopped++; return nil }

type harness struct {
	m       *Module
	ep      abi.Endpoint
	app     *abitest.App
	sources []*fakeSource
	now     time.Time
}

func newHarness(t *testing.T, blob string) *harness {
	t.Helper()
	h := &harness{app: abitest.NewApp(), now: time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)}
	h.ep = abitest.Endpoint(t, h.app)
	h.m = newModule(h.ep)
	h.m.now = func() time.Time { return h.now }
	h.m.newSource = func(mode string, _ *slog.Logger) Source {
		s := &fakeSource{mode: mode}
		h.sources = append(h.sources, s)
		return s
	}
	require.NoError(t, h.m.Init())
	require.NoError(t, h.m.UpdateConfig([]byte(blob)))
	h.m.RestartProducers()
	t.Cleanup(h.m.Stop)
	abitest.Commands(h.ep)
	return h
}

func (h *harness) source() *fakeSource {
	return h.sources[len(h.sources)-1]
}

func (h *harness) send(app, summary string, urgency dbus.Urgency, id uint32) {
	h.source().notify(&dbus.Notification{
		AppName: app,
		Summary: summary,
		Body:    summary + " body",
		Hints:   map[string]godbus.Variant{"urgency": godbus.MakeVariant(byte(urgency))},
	}, id)
}

func (h *harness) deliver(t *testing.T) {
	t.Helper()
	for _, u := range abitest.Updates(h.ep) {
		a, err := h.m.Activities().Get(u.ID.Activity)
		require.NoError(t, err)
		require.NoError(t, a.Deliver(u))
	}
}

func (h *harness) history(t *testing.T) []Entry {
	t.Helper()
	p, err := h.m.Activities().GetPropertyBlocking(ActivityName, PropHistory)
	require.NoError(t, err)
	entries, ok := property.Value[[]Entry](p)
	require.True(t, ok)
	return entries
}

func TestInit_PublishesActivity(t *testing.T) {
	app := abitest.NewApp()
	ep := abitest.Endpoint(t, app)
	m := newModule(ep)
	require.NoError(t, m.Init())

	cmds := abitest.Commands(ep)
	require.Len(t, cmds, 1)
	add := cmds[0].(abi.AddActivity)
	assert.Equal(t, model.NewIdentifier("notifications", "latest"), add.ID)

	a, err := m.Activities().Get(ActivityName)
	require.NoError(t, err)
	assert.Equal(t, []string{"app", "body", "count", "history", "summary"}, a.PropertyNames())
	for _, mode := range widget.Modes() {
		assert.NotNil(t, a.Widget().Child(mode), mode.String())
	}
	assert.Len(t, app.FakeFactory().Labels, 4)
}

func TestReceive_UpdatesPropertiesAndRequestsExpanded(t *testing.T) {
	h := newHarness(t, "expand_for = \"3s\"\n")

	h.send("mail", "New message", dbus.UrgencyNormal, 7)

	cmds := abitest.Commands(h.ep)
	require.Len(t, cmds, 1)
	req, ok := cmds[0].(abi.RequestMode)
	require.True(t, ok)
	assert.Equal(t, model.NewIdentifier("notifications", "latest"), req.ID)
	assert.Equal(t, widget.ModeExpanded, req.Mode)
	assert.Equal(t, 3*time.Second, req.Duration)

	h.deliver(t)
	labels := h.app.FakeFactory().Labels
	assert.Equal(t, "1", labels[0].Text())
	assert.Equal(t, "mail: New message", labels[1].Text())
	assert.Equal(t, "New message\nNew message body", labels[2].Text())
	assert.Contains(t, labels[3].Text(), "mail  New message  now")

	entries := h.history(t)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.Equal(t, uint32(7), entries[0].DBusID)
	assert.Equal(t, dbus.UrgencyNormal, entries[0].Urgency)
}

func TestReceive_BelowMinUrgencyDoesNotExpand(t *testing.T) {
	h := newHarness(t, "min_urgency = \"critical\"\n")

	h.send("chat", "hi", dbus.UrgencyNormal, 1)
	assert.Empty(t, abitest.Commands(h.ep))
	assert.Len(t, h.history(t), 1)

	h.send("battery", "low", dbus.UrgencyCritical, 2)
	assert.Len(t, abitest.Commands(h.ep), 1)
}

func TestReceive_IgnoredApp(t *testing.T) {
	h := newHarness(t, "ignore_apps = [\"spotify\"]\n")

	h.send("spotify", "Now playing", dbus.UrgencyNormal, 1)
	assert.Empty(t, abitest.Commands(h.ep))
	assert.Empty(t, h.history(t))
}

func TestReceive_HistoryIsNewestFirstAndBounded(t *testing.T) {
	h := newHarness(t, "history = 2\n")

	for i, s := range []string{"one", "two", "three"} {
		h.now = h.now.Add(time.Duration(i) * time.Minute)
		h.send("app", s, dbus.UrgencyLow, uint32(i+1))
	}

	entries := h.history(t)
	require.Len(t, entries, 2)
	assert.Equal(t, "three", entries[0].Summary)
	assert.Equal(t, "two", entries[1].Summary)

	p, err := h.m.Activities().GetPropertyBlocking(ActivityName, PropCount)
	require.NoError(t, err)
	count, _ := property.Value[int](p)
	assert.Equal(t, 2, count)
}

func TestServerSource_ReplaceAndClose(t *testing.T) {
	h := newHarness(t, "source = \"server\"\n")
	assert.Equal(t, SourceServer, h.source().mode)
	require.NotNil(t, h.source().close)

	h.send("dl", "10%", dbus.UrgencyLow, 5)
	h.send("other", "x", dbus.UrgencyLow, 6)
	h.source().notify(&dbus.Notification{AppName: "dl", Summary: "50%", ReplacesID: 5}, 5)

	entries := h.history(t)
	require.Len(t, entries, 2)
	assert.Equal(t, "50%", entries[0].Summary)
	assert.Equal(t, uint32(5), entries[0].DBusID)

	h.source().close(6, dbus.CloseReasonDismissed)
	entries = h.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "50%", entries[0].Summary)

	h.source().close(99, dbus.CloseReasonClosed)
	assert.Len(t, h.history(t), 1)
}

func TestRestartProducers_ReplacesSource(t *testing.T) {
	h := newHarness(t, "")
	first := h.source()
	assert.Equal(t, 1, first.started)

	require.NoError(t, h.m.UpdateConfig([]byte("source = \"server\"\n")))
	h.m.RestartProducers()

	assert.Equal(t, 1, first.stopped)
	require.Len(t, h.sources, 2)
	assert.Equal(t, SourceServer, h.source().mode)
	assert.Equal(t, 1, h.source().started)

	h.m.Stop()
	assert.Equal(t, 1, h.source().stopped)
	h.m.Stop()
	assert.Equal(t, 1, h.source().stopped)
}

func TestRestartProducers_StartFailureKeepsModule(t *testing.T) {
	h := newHarness(t, "")
	h.m.newSource = func(string, *slog.Logger) Source {
		return &fakeSource{startErr: errors.New("bus unavailable")}
	}

	h.m.RestartProducers()
	h.m.mu.Lock()
	assert.Nil(t, h.m.source)
	h.m.mu.Unlock()
	assert.Equal(t, 1, h.m.Activities().Len())
}

func TestUpdateConfig_Rejects(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"bad source", "source = \"both\"\n"},
		{"zero history", "history = 0\n"},
		{"bad urgency", "min_urgency = \"urgent\"\n"},
		{"negative expand", "expand_for = \"-1s\"\n"},
		{"unknown key", "sound = true\n"},
		{"wrong type", "ignore_apps = \"mail\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newModule(abitest.Endpoint(t, abitest.NewApp()))
			err := m.UpdateConfig([]byte(tt.blob))
			assert.ErrorIs(t, err, model.ErrConfigParse)
			assert.Equal(t, DefaultConfig(), m.currentConfig())
		})
	}
}

func TestMonitorSource_ReplaceAndClose(t *testing.T) {
	h := newHarness(t, "")
	assert.Equal(t, SourceMonitor, h.source().mode)

	h.send("dl", "10%", dbus.UrgencyLow, 12)
	h.source().notify(&dbus.Notification{
		Summary:    "downloading",
		ReplacesID: 12,
		Hints: map[string]godbus.Variant{
			"desktop-entry": godbus.MakeVariant("dl"),
			"value":         godbus.MakeVariant(int32(90)),
		},
	}, 12)
	entries := h.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "dl", entries[0].App)
	assert.Equal(t, 90, entries[0].Progress)

	h.deliver(t)
	assert.Contains(t, h.app.FakeFactory().Labels[3].Text(), "dl  downloading 90%")

	// Unpaired calls arrive with id 0 and stay until pushed out.
	h.send("mail", "hi", dbus.UrgencyNormal, 0)
	h.source().close(0, dbus.CloseReasonExpired)
	assert.Len(t, h.history(t), 2)

	h.source().close(12, dbus.CloseReasonExpired)
	entries = h.history(t)
	require.Len(t, entries, 1)
	assert.Equal(t, "mail", entries[0].App)
}

type closingSource struct {
	fakeSource
	expired []uint32
}

func (s *closingSource) Close(id uint32, reason dbus.CloseReason) error {
	if reason == dbus.CloseReasonExpired {
		s.expired = append(s.expired, id)
	}
	return nil
}

func TestServerSource_ExpiresTrimmedEntries(t *testing.T) {
	h := newHarness(t, "history = 3\n")
	src := &closingSource{}
	h.m.newSource = func(string, *slog.Logger) Source { return src }
	h.m.RestartProducers()

	for i := uint32(1); i <= 4; i++ {
		src.notify(&dbus.Notification{AppName: "app", Summary: "n"}, i)
	}
	assert.Equal(t, []uint32{1}, src.expired)

	require.NoError(t, h.m.UpdateConfig([]byte("history = 1\n")))
	assert.Equal(t, []uint32{1, 3, 2}, src.expired)
}

func TestHistory_TrimForgetsDBusIDs(t *testing.T) {
	h := newHistory(1)
	assert.Empty(t, h.add(Entry{ID: "a", DBusID: 1}, 0))
	assert.Equal(t, []uint32{1}, h.add(Entry{ID: "b", DBusID: 2}, 0))

	assert.False(t, h.close(1))
	latest, ok := h.latest()
	require.True(t, ok)
	assert.Equal(t, "b", latest.ID)
	assert.Equal(t, 1, h.len())
}
