package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

// maxPending bounds the Notify calls waiting for their reply.
const maxPending = 64

// callKey identifies a method call on the bus.
type callKey struct {
	sender string
	serial uint32
}

// Monitor watches notification traffic without owning the bus name, so it
// runs next to another notification daemon. A Notify call is delivered once
// the daemon's reply carries the id it assigned.
type Monitor struct {
	logger *slog.Logger

	mu       sync.Mutex
	conn     *dbus.Conn
	owner    string
	pending  map[callKey]*Notification
	order    []callKey
	onNotify NotificationHandler
	onClose  CloseHandler
}

// NewMonitor creates a notification monitor.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		logger:  logger,
		pending: make(map[callKey]*Notification),
	}
}

// SetNotifyHandler sets the handler for observed notifications. It runs on
// the monitor goroutine.
func (m *Monitor) SetNotifyHandler(handler NotificationHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onNotify = handler
}

// SetCloseHandler sets the handler for NotificationClosed signals.
func (m *Monitor) SetCloseHandler(handler CloseHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onClose = handler
}

// Start connects a private bus connection and turns it into a monitor.
// Without BecomeMonitor it falls back to eavesdropping match rules.
func (m *Monitor) Start() error {
	// A monitoring connection can no longer make calls, so it must not be
	// the shared session bus connection.
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	var owner string
	if err := conn.BusObject().Call("org.freedesktop.DBus.GetNameOwner", 0, BusName).Store(&owner); err != nil {
		m.logger.Warn("no notification daemon owns the bus name, ids will be unknown", "error", err)
		owner = ""
	}

	rules := monitorRules(owner)
	if err := conn.BusObject().Call("org.freedesktop.DBus.Monitoring.BecomeMonitor", 0, rules, uint32(0)).Err; err != nil {
		m.logger.Warn("BecomeMonitor not available, falling back to eavesdropping", "error", err)
		for _, rule := range rules {
			if err := conn.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, rule+",eavesdrop='true'").Err; err != nil {
				_ = conn.Close()
				return fmt.Errorf("failed to add match rule %q: %w", rule, err)
			}
		}
	}

	m.mu.Lock()
	m.conn = conn
	m.owner = owner
	m.mu.Unlock()

	ch := make(chan *dbus.Message, 100)
	conn.Eavesdrop(ch)
	go m.run(ch)

	m.logger.Info("notification monitor started", "owner", owner)
	return nil
}

// monitorRules returns the match rules for Notify calls, their replies and
// NotificationClosed signals.
func monitorRules(owner string) []string {
	rules := []string{
		fmt.Sprintf("type='method_call',interface='%s',member='Notify'", Interface),
		fmt.Sprintf("type='signal',interface='%s',member='NotificationClosed'", Interface),
	}
	if owner != "" {
		rules = append(rules,
			fmt.Sprintf("type='method_return',sender='%s'", owner),
			fmt.Sprintf("type='error',sender='%s'", owner))
	}
	return rules
}

// Stop closes the monitoring connection. Calls still waiting for a reply
// are dropped.
func (m *Monitor) Stop() error {
	m.mu.Lock()
	conn := m.conn
	m.conn = nil
	m.pending = make(map[callKey]*Notification)
	m.order = nil
	m.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

func (m *Monitor) run(ch <-chan *dbus.Message) {
	for msg := range ch {
		m.dispatch(msg)
	}
}

func (m *Monitor) dispatch(msg *dbus.Message) {
	header := func(f dbus.HeaderField) string {
		v, ok := msg.Headers[f]
		if !ok {
			return ""
		}
		s, _ := v.Value().(string)
		return s
	}

	switch msg.Type {
	case dbus.TypeMethodCall:
		if header(dbus.FieldInterface) == Interface && header(dbus.FieldMember) == "Notify" {
			m.handleCall(header(dbus.FieldSender), msg.Serial(), msg.Body)
		}
	case dbus.TypeMethodReply, dbus.TypeError:
		v, ok := msg.Headers[dbus.FieldReplySerial]
		if !ok {
			return
		}
		serial, _ := v.Value().(uint32)
		m.handleReply(header(dbus.FieldDestination), serial, msg.Type == dbus.TypeError, msg.Body)
	case dbus.TypeSignal:
		if header(dbus.FieldMember) == "NotificationClosed" {
			m.handleClosed(msg.Body)
		}
	}
}

// handleCall records a Notify call. Without a known daemon it is delivered
// at once with id 0.
func (m *Monitor) handleCall(sender string, serial uint32, body []any) {
	n, err := decodeNotify(body)
	if err != nil {
		m.logger.Warn("ignoring notification", "sender", sender, "error", err)
		return
	}

	m.mu.Lock()
	if m.owner == "" {
		handler := m.onNotify
		m.mu.Unlock()
		m.deliver(handler, n, 0)
		return
	}

	key := callKey{sender: sender, serial: serial}
	m.pending[key] = n
	m.order = append(m.order, key)
	var evicted []*Notification
	for len(m.order) > maxPending {
		oldest := m.order[0]
		m.order = m.order[1:]
		if p, ok := m.pending[oldest]; ok {
			delete(m.pending, oldest)
			evicted = append(evicted, p)
		}
	}
	handler := m.onNotify
	m.mu.Unlock()

	for _, p := range evicted {
		m.logger.Debug("no reply for notification", "app", p.AppName)
		m.deliver(handler, p, 0)
	}
}

// handleReply pairs a reply with its Notify call. Replies to anything else
// are ignored.
func (m *Monitor) handleReply(destination string, replySerial uint32, failed bool, body []any) {
	key := callKey{sender: destination, serial: replySerial}

	m.mu.Lock()
	n, ok := m.pending[key]
	if ok {
		delete(m.pending, key)
		for i, k := range m.order {
			if k == key {
				m.order = append(m.order[:i], m.order[i+1:]...)
				break
			}
		}
	}
	handler := m.onNotify
	m.mu.Unlock()
	if !ok {
		return
	}

	if failed {
		m.logger.Debug("notification daemon rejected notification", "app", n.AppName, "error", body)
		return
	}
	var id uint32
	if len(body) == 1 {
		id, _ = body[0].(uint32)
	}
	m.deliver(handler, n, id)
}

func (m *Monitor) handleClosed(body []any) {
	if len(body) != 2 {
		return
	}
	id, ok1 := body[0].(uint32)
	reason, ok2 := body[1].(uint32)
	if !ok1 || !ok2 {
		return
	}

	m.mu.Lock()
	handler := m.onClose
	m.mu.Unlock()
	if handler != nil {
		handler(id, CloseReason(reason))
	}
}

func (m *Monitor) deliver(handler NotificationHandler, n *Notification, id uint32) {
	m.logger.Debug("observed notification", "app", n.AppName, "summary", n.Summary, "id", id)
	if handler != nil {
		handler(n, id)
	}
}
