package dbus

import (
	"fmt"
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	// Interface is the notification interface name.
	Interface = "org.freedesktop.Notifications"
	// ObjectPath is the notification object path.
	ObjectPath = "/org/freedesktop/Notifications"
	// BusName is the well-known name of the notification daemon.
	BusName = "org.freedesktop.Notifications"
)

// NotificationHandler is called for every notification. id is the id the
// daemon assigned, or 0 when it is unknown.
type NotificationHandler func(n *Notification, id uint32)

// CloseHandler is called when a notification is closed.
type CloseHandler func(id uint32, reason CloseReason)

// Urgency is the urgency hint of a notification.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// String returns the urgency name.
func (u Urgency) String() string {
	switch u {
	case UrgencyLow:
		return "low"
	case UrgencyNormal:
		return "normal"
	case UrgencyCritical:
		return "critical"
	default:
		return fmt.Sprintf("urgency(%d)", byte(u))
	}
}

// ParseUrgency converts an urgency name into an Urgency.
func ParseUrgency(s string) (Urgency, error) {
	for _, u := range []Urgency{UrgencyLow, UrgencyNormal, UrgencyCritical} {
		if strings.EqualFold(s, u.String()) {
			return u, nil
		}
	}
	return 0, fmt.Errorf("invalid urgency %q, must be low, normal or critical", s)
}

// CloseReason is the reason code of a NotificationClosed signal.
type CloseReason uint32

const (
	CloseReasonExpired   CloseReason = 1
	CloseReasonDismissed CloseReason = 2
	CloseReasonClosed    CloseReason = 3
	CloseReasonUndefined CloseReason = 4
)

// String returns the close reason name.
func (r CloseReason) String() string {
	switch r {
	case CloseReasonExpired:
		return "expired"
	case CloseReasonDismissed:
		return "dismissed"
	case CloseReasonClosed:
		return "closed"
	default:
		return "undefined"
	}
}

// Notification holds the arguments of a Notify call.
type Notification struct {
	AppName       string
	ReplacesID    uint32
	AppIcon       string
	Summary       string
	Body          string
	Actions       []string // Alternating key, label pairs
	Hints         map[string]dbus.Variant
	ExpireTimeout int32 // -1 = server default, 0 = never expire
}

// decodeNotify reads the argument list of a Notify call:
// (susssasa{sv}i).
func decodeNotify(body []any) (*Notification, error) {
	if len(body) != 8 {
		return nil, fmt.Errorf("malformed Notify call: %d arguments", len(body))
	}
	n := &Notification{}
	var ok [8]bool
	n.AppName, ok[0] = body[0].(string)
	n.ReplacesID, ok[1] = body[1].(uint32)
	n.AppIcon, ok[2] = body[2].(string)
	n.Summary, ok[3] = body[3].(string)
	n.Body, ok[4] = body[4].(string)
	n.Actions, ok[5] = body[5].([]string)
	n.Hints, ok[6] = body[6].(map[string]dbus.Variant)
	n.ExpireTimeout, ok[7] = body[7].(int32)
	for i, good := range ok {
		if !good {
			return nil, fmt.Errorf("malformed Notify call: argument %d has type %T", i, body[i])
		}
	}
	return n, nil
}

// args returns the argument list of a Notify call for n.
func (n *Notification) args() []any {
	hints := n.Hints
	if hints == nil {
		hints = map[string]dbus.Variant{}
	}
	actions := n.Actions
	if actions == nil {
		actions = []string{}
	}
	return []any{n.AppName, n.ReplacesID, n.AppIcon, n.Summary, n.Body, actions, hints, n.ExpireTimeout}
}

func hint[T any](n *Notification, key string) (T, bool) {
	var zero T
	v, ok := n.Hints[key]
	if !ok {
		return zero, false
	}
	t, ok := v.Value().(T)
	return t, ok
}

// Urgency returns the urgency hint, UrgencyNormal when absent.
func (n *Notification) Urgency() Urgency {
	if b, ok := hint[byte](n, "urgency"); ok {
		return Urgency(b)
	}
	return UrgencyNormal
}

// Category returns the category hint.
func (n *Notification) Category() string {
	s, _ := hint[string](n, "category")
	return s
}

// DesktopEntry returns the desktop-entry hint.
func (n *Notification) DesktopEntry() string {
	s, _ := hint[string](n, "desktop-entry")
	return s
}

// Transient reports whether the transient hint is set.
func (n *Notification) Transient() bool {
	b, _ := hint[bool](n, "transient")
	return b
}

// Progress returns the value hint (0-100) or -1 when absent.
func (n *Notification) Progress() int {
	v, ok := n.Hints["value"]
	if !ok {
		return -1
	}
	switch p := v.Value().(type) {
	case int32:
		return int(p)
	case uint32:
		return int(p)
	case byte:
		return int(p)
	}
	return -1
}

// ServerInfo is returned by GetServerInformation.
type ServerInfo struct {
	Name        string
	Vendor      string
	Version     string
	SpecVersion string
}

// DefaultServerInfo returns the server information of isled.
func DefaultServerInfo() ServerInfo {
	return ServerInfo{
		Name:        "isled",
		Vendor:      "isle",
		Version:     "dev",
		SpecVersion: "1.2",
	}
}

// Capabilities lists what the island can render.
var Capabilities = []string{"body", "persistence"}
