package daemon

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/isle/internal/dbus"
)

type sentLog struct {
	notes []*dbus.Notification
	err   error
}

func (s *sentLog) send(n *dbus.Notification) (uint32, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.notes = append(s.notes, n)
	return uint32(len(s.notes)), nil
}

func newTestNotifier() (*InternalNotifier, *sentLog, *time.Time) {
	log := &sentLog{}
	n := NewInternalNotifier(log.send, nil)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return now }
	return n, log, &now
}

func TestInternalNotifier_BuildsNotification(t *testing.T) {
	n, log, _ := newTestNotifier()

	n.NotifyConfigError(errors.New("bad position"))

	require.Len(t, log.notes, 1)
	note := log.notes[0]
	assert.Equal(t, "isled", note.AppName)
	assert.Equal(t, "Configuration Error", note.Summary)
	assert.Contains(t, note.Body, "bad position")
	assert.Equal(t, "dialog-warning", note.AppIcon)
	assert.Equal(t, dbus.UrgencyNormal, note.Urgency())
	assert.True(t, note.Transient())
	assert.Equal(t, int32(5000), note.ExpireTimeout)
}

func TestInternalNotifier_LevelUrgency(t *testing.T) {
	tests := []struct {
		level   NotificationLevel
		urgency dbus.Urgency
		icon    string
	}{
		{NotificationLevelInfo, dbus.UrgencyLow, "dialog-information"},
		{NotificationLevelWarning, dbus.UrgencyNormal, "dialog-warning"},
		{NotificationLevelError, dbus.UrgencyCritical, "dialog-error"},
	}
	for _, tt := range tests {
		t.Run(tt.level.String(), func(t *testing.T) {
			n, log, _ := newTestNotifier()
			require.True(t, n.Notify("k", "s", "b", tt.level))
			assert.Equal(t, tt.urgency, log.notes[0].Urgency())
			assert.Equal(t, tt.icon, log.notes[0].AppIcon)
		})
	}
}

func TestInternalNotifier_RateLimitsPerKey(t *testing.T) {
	n, log, now := newTestNotifier()

	assert.True(t, n.Notify("a", "s", "b", NotificationLevelInfo))
	assert.False(t, n.Notify("a", "s", "b", NotificationLevelInfo))
	assert.True(t, n.Notify("b", "s", "b", NotificationLevelInfo))

	*now = now.Add(5 * time.Second)
	assert.True(t, n.Notify("a", "s", "b", NotificationLevelInfo))
	assert.Len(t, log.notes, 3)
}

func TestInternalNotifier_Disabled(t *testing.T) {
	n, log, _ := newTestNotifier()
	n.SetEnabled(false)

	n.NotifyConfigReloaded()
	assert.Empty(t, log.notes)
}

func TestInternalNotifier_SendFailureIsLogged(t *testing.T) {
	n, log, _ := newTestNotifier()
	log.err = errors.New("no daemon")

	assert.False(t, n.Notify("k", "s", "b", NotificationLevelError))
}

func TestInternalNotifier_NilSender(t *testing.T) {
	n := NewInternalNotifier(nil, nil)
	assert.False(t, n.Notify("k", "s", "b", NotificationLevelInfo))
}
