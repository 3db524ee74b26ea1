package daemon

import (
	"log/slog"
	"sync"
	"time"

	godbus "github.com/godbus/dbus/v5"

	"github.com/jmylchreest/isle/internal/dbus"
)

// NotificationLevel is the severity of a daemon status notification.
type NotificationLevel int

const (
	NotificationLevelInfo NotificationLevel = iota
	NotificationLevelWarning
	NotificationLevelError
)

// String returns the level name.
func (l NotificationLevel) String() string {
	switch l {
	case NotificationLevelInfo:
		return "info"
	case NotificationLevelWarning:
		return "warning"
	case NotificationLevelError:
		return "error"
	default:
		return "unknown"
	}
}

func (l NotificationLevel) urgency() dbus.Urgency {
	switch l {
	case NotificationLevelInfo:
		return dbus.UrgencyLow
	case NotificationLevelError:
		return dbus.UrgencyCritical
	default:
		return dbus.UrgencyNormal
	}
}

func (l NotificationLevel) icon() string {
	switch l {
	case NotificationLevelInfo:
		return "dialog-information"
	case NotificationLevelError:
		return "dialog-error"
	default:
		return "dialog-warning"
	}
}

// SendFunc delivers a desktop notification.
type SendFunc func(n *dbus.Notification) (uint32, error)

// InternalNotifier reports isled's own events (reloads, config errors)
// as desktop notifications. Repeats of the same key inside minInterval are
// dropped.
type InternalNotifier struct {
	mu     sync.Mutex
	logger *slog.Logger
	send   SendFunc
	now    func() time.Time

	last        map[string]time.Time
	minInterval time.Duration
	enabled     bool
}

// NewInternalNotifier creates a notifier that sends through send. A nil
// send only logs.
func NewInternalNotifier(send SendFunc, logger *slog.Logger) *InternalNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &InternalNotifier{
		logger:      logger,
		send:        send,
		now:         time.Now,
		last:        make(map[string]time.Time),
		minInterval: 5 * time.Second,
		enabled:     true,
	}
}

// SetEnabled enables or disables the notifier.
func (n *InternalNotifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// SetMinInterval sets how long a key stays rate limited.
func (n *InternalNotifier) SetMinInterval(interval time.Duration) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.minInterval = interval
}

// Notify sends a notification unless disabled or rate limited. It reports
// whether a notification was handed to the sender.
func (n *InternalNotifier) Notify(key, summary, body string, level NotificationLevel) bool {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return false
	}
	now := n.now()
	if last, ok := n.last[key]; ok && now.Sub(last) < n.minInterval {
		n.mu.Unlock()
		n.logger.Debug("internal notification rate-limited", "key", key)
		return false
	}
	n.last[key] = now
	send := n.send
	n.mu.Unlock()

	if send == nil {
		n.logger.Debug("internal notification skipped: no sender", "summary", summary)
		return false
	}

	note := &dbus.Notification{
		AppName: "isled",
		AppIcon: level.icon(),
		Summary: summary,
		Body:    body,
		Hints: map[string]godbus.Variant{
			"urgency":       godbus.MakeVariant(byte(level.urgency())),
			"category":      godbus.MakeVariant("device"),
			"transient":     godbus.MakeVariant(true),
			"desktop-entry": godbus.MakeVariant("isled"),
		},
		ExpireTimeout: 5000,
	}

	n.logger.Debug("sending internal notification", "key", key, "level", level)
	if _, err := send(note); err != nil {
		n.logger.Warn("failed to send internal notification", "key", key, "error", err)
		return false
	}
	return true
}

// NotifyConfigReloaded reports a successful config reload.
func (n *InternalNotifier) NotifyConfigReloaded() {
	n.Notify("config-reload", "Configuration Reloaded",
		"isled configuration has been reloaded.", NotificationLevelInfo)
}

// NotifyConfigError reports a config file that was rejected.
func (n *InternalNotifier) NotifyConfigError(err error) {
	n.Notify("config-error", "Configuration Error",
		"Keeping the previous configuration: "+err.Error(), NotificationLevelWarning)
}

// NotifyThemeError reports a theme that failed to load.
func (n *InternalNotifier) NotifyThemeError(err error) {
	n.Notify("theme-error", "Theme Error",
		"Failed to load theme: "+err.Error(), NotificationLevelWarning)
}

// NotifyModuleFailed reports a module that could not be started.
func (n *InternalNotifier) NotifyModuleFailed(name string, err error) {
	n.Notify("module-failed:"+name, "Module Failed",
		"Module '"+name+"' stopped: "+err.Error(), NotificationLevelError)
}

// NotifyPluginError reports plugins that failed to load.
func (n *InternalNotifier) NotifyPluginError(err error) {
	n.Notify("plugin-error", "Plugin Error", err.Error(), NotificationLevelError)
}
