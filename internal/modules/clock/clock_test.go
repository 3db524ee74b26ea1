package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/abi/abitest"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/property"
	"github.com/jmylchreest/isle/internal/widget"
)

var fixed = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestModule(t *testing.T) (*Module, abi.Endpoint, *abitest.App) {
	t.Helper()
	app := abitest.NewApp()
	ep := abitest.Endpoint(t, app)
	m := newModule(ep)
	m.now = func() time.Time { return fixed }
	require.NoError(t, m.Init())
	t.Cleanup(m.Stop)
	return m, ep, app
}

// deliver hands queued updates to their activity as the dispatcher would.
func deliver(t *testing.T, m *Module, ep abi.Endpoint) {
	t.Helper()
	for _, u := range abitest.Updates(ep) {
		a, err := m.Activities().Get(u.ID.Activity)
		require.NoError(t, err)
		require.NoError(t, a.Deliver(u))
	}
}

func TestInit_PublishesActivity(t *testing.T) {
	m, ep, app := newTestModule(t)

	cmds := abitest.Commands(ep)
	require.Len(t, cmds, 1)
	add, ok := cmds[0].(abi.AddActivity)
	require.True(t, ok)
	assert.Equal(t, model.NewIdentifier("clock", "clock"), add.ID)

	w, err := abi.Resolve[*widget.ActivityWidget](ep.Handles, add.Widget, abi.KindWidget)
	require.NoError(t, err)
	a, err := m.Activities().Get("clock")
	require.NoError(t, err)
	assert.Same(t, a.Widget(), w)

	assert.Equal(t, []string{"format", "long_format", "time"}, a.PropertyNames())
	labels := app.FakeFactory().Labels
	require.Len(t, labels, 3)
	assert.Equal(t, "09", labels[0].Text())
	assert.Equal(t, "09:26", labels[1].Text())
	assert.Equal(t, "Sat 14 Mar 09:26:53", labels[2].Text())
	assert.Nil(t, w.Child(widget.ModeOverlay))
}

func TestInit_NoApplication(t *testing.T) {
	ep := abitest.Endpoint(t, abitest.NewApp())
	ep.App = 0
	err := newModule(ep).Init()
	assert.ErrorIs(t, err, model.ErrInvalidHandle)
}

func TestTimeUpdateRerendersLabels(t *testing.T) {
	m, ep, app := newTestModule(t)

	p, err := m.Activities().GetPropertyBlocking("clock", "time")
	require.NoError(t, err)
	require.NoError(t, property.SetValue(p, fixed.Add(2*time.Hour+time.Minute)))
	deliver(t, m, ep)

	assert.Equal(t, "11", app.FakeFactory().Labels[0].Text())
	assert.Equal(t, "11:27", app.FakeFactory().Labels[1].Text())
}

func TestUpdateConfig(t *testing.T) {
	m, ep, app := newTestModule(t)

	require.NoError(t, m.UpdateConfig([]byte("format = \"3:04PM\"\ninterval = \"250ms\"\n")))
	deliver(t, m, ep)

	assert.Equal(t, "9:26AM", app.FakeFactory().Labels[1].Text())
	cfg := m.currentConfig()
	assert.Equal(t, 250*time.Millisecond, cfg.Interval.Duration())
	assert.Equal(t, DefaultConfig().LongFormat, cfg.LongFormat)
}

func TestUpdateConfig_UsesPropertiesFromInit(t *testing.T) {
	m, ep, app := newTestModule(t)
	a, err := m.Activities().Get(ActivityName)
	require.NoError(t, err)
	_, err = m.Activities().Remove(ActivityName)
	require.NoError(t, err)

	require.NoError(t, m.UpdateConfig([]byte("format = \"15h04\"\n")))
	updates := abitest.Updates(ep)
	require.Len(t, updates, 1)
	assert.Equal(t, PropFormat, updates[0].Property)
	require.NoError(t, a.Deliver(updates[0]))

	assert.Equal(t, "09h26", app.FakeFactory().Labels[1].Text())
}

func TestUpdateConfig_BeforeInit(t *testing.T) {
	m := newModule(abitest.Endpoint(t, abitest.NewApp()))
	require.NoError(t, m.UpdateConfig([]byte("format = \"15h04\"\n")))
	assert.Equal(t, "15h04", m.currentConfig().Format)
}

func TestUpdateConfig_RejectsAndKeepsPrevious(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"syntax", "format = "},
		{"unknown key", "colour = \"red\"\n"},
		{"wrong type", "format = 12\n"},
		{"empty format", "format = \"\"\n"},
		{"tiny interval", "interval = \"1ms\"\n"},
		{"bad duration", "interval = \"soon\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, _, _ := newTestModule(t)
			err := m.UpdateConfig([]byte(tt.blob))
			require.Error(t, err)
			assert.ErrorIs(t, err, model.ErrConfigParse)
			assert.Equal(t, DefaultConfig(), m.currentConfig())
		})
	}
}

func TestUpdateConfig_EmptyBlobKeepsDefaults(t *testing.T) {
	m, _, _ := newTestModule(t)
	require.NoError(t, m.UpdateConfig(nil))
	assert.Equal(t, DefaultConfig(), m.currentConfig())
}

func TestRestartProducers_Ticks(t *testing.T) {
	m, ep, _ := newTestModule(t)
	require.NoError(t, m.UpdateConfig([]byte("interval = \"10ms\"\n")))
	abitest.Updates(ep)

	m.RestartProducers()
	m.RestartProducers()

	assert.Eventually(t, func() bool { return ep.Updates.Len() >= 3 }, 2*time.Second, 5*time.Millisecond)
	m.Stop()

	n := ep.Updates.Len()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, n, ep.Updates.Len(), "no producer may survive Stop")
	for _, u := range abitest.Updates(ep) {
		assert.Equal(t, "time", u.Property)
	}
}

func TestProducerExitsWhenChannelCloses(t *testing.T) {
	m, ep, _ := newTestModule(t)
	require.NoError(t, m.UpdateConfig([]byte("interval = \"10ms\"\n")))
	m.RestartProducers()

	ep.Updates.Close()
	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not exit after the update channel closed")
	}
}
