package dbus

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
	"github.com/godbus/dbus/v5/introspect"
)

// Server owns org.freedesktop.Notifications. Notifications sent to it show
// up only in the island.
type Server struct {
	logger *slog.Logger
	info   ServerInfo

	mu       sync.Mutex
	conn     *dbus.Conn
	nextID   uint32
	open     map[uint32]struct{}
	onNotify NotificationHandler
	onClose  CloseHandler
}

// NewServer creates a server. Call Start to claim the bus name.
func NewServer(logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		logger: logger,
		info:   DefaultServerInfo(),
		open:   make(map[uint32]struct{}),
	}
}

// SetServerInfo sets what GetServerInformation returns.
func (s *Server) SetServerInfo(info ServerInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
}

// SetNotifyHandler sets the handler for incoming notifications. It runs on
// the bus dispatch goroutine.
func (s *Server) SetNotifyHandler(handler NotificationHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onNotify = handler
}

// SetCloseHandler sets the handler for closed notifications.
func (s *Server) SetCloseHandler(handler CloseHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClose = handler
}

// Start connects to the session bus, exports the interface and claims the
// bus name. It fails when another daemon owns the name.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn != nil {
		return fmt.Errorf("notification server already running")
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return fmt.Errorf("failed to connect to session bus: %w", err)
	}

	obj := busObject{s}
	if err := conn.Export(obj, ObjectPath, Interface); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to export %s: %w", Interface, err)
	}
	node := &introspect.Node{
		Name: ObjectPath,
		Interfaces: []introspect.Interface{
			introspect.IntrospectData,
			{
				Name:    Interface,
				Methods: introspect.Methods(obj),
				Signals: []introspect.Signal{{
					Name: "NotificationClosed",
					Args: []introspect.Arg{{Name: "id", Type: "u"}, {Name: "reason", Type: "u"}},
				}},
			},
		},
	}
	if err := conn.Export(introspect.NewIntrospectable(node), ObjectPath, "org.freedesktop.DBus.Introspectable"); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to export introspection: %w", err)
	}

	reply, err := conn.RequestName(BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to request %s: %w", BusName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		_ = conn.Close()
		return fmt.Errorf("%s is owned by another notification daemon", BusName)
	}

	s.conn = conn
	s.logger.Info("notification server started", "name", BusName)
	return nil
}

// Stop releases the bus name and closes the connection.
func (s *Server) Stop() error {
	s.mu.Lock()
	conn := s.conn
	s.conn = nil
	s.mu.Unlock()
	if conn == nil {
		return nil
	}

	if _, err := conn.ReleaseName(BusName); err != nil {
		s.logger.Warn("failed to release bus name", "error", err)
	}
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close bus connection: %w", err)
	}
	s.logger.Info("notification server stopped")
	return nil
}

// Close closes an open notification and emits NotificationClosed. Unknown
// ids are ignored.
func (s *Server) Close(id uint32, reason CloseReason) error {
	s.mu.Lock()
	_, ok := s.open[id]
	delete(s.open, id)
	conn := s.conn
	s.mu.Unlock()
	if !ok || conn == nil {
		return nil
	}
	if err := conn.Emit(ObjectPath, Interface+".NotificationClosed", id, uint32(reason)); err != nil {
		return fmt.Errorf("failed to emit NotificationClosed: %w", err)
	}
	s.logger.Debug("notification closed", "id", id, "reason", reason)
	return nil
}

// notify assigns an id to n and hands it to the handler. A replacement of
// an open notification keeps its id.
func (s *Server) notify(n *Notification) uint32 {
	s.mu.Lock()
	id := n.ReplacesID
	if _, ok := s.open[id]; !ok || id == 0 {
		s.nextID++
		if s.nextID == 0 {
			s.nextID = 1
		}
		id = s.nextID
	}
	s.open[id] = struct{}{}
	handler := s.onNotify
	s.mu.Unlock()

	s.logger.Debug("notify", "app", n.AppName, "summary", n.Summary, "id", id, "replaces", n.ReplacesID)
	if handler != nil {
		handler(n, id)
	}
	return id
}

// closeRequest handles CloseNotification from a client.
func (s *Server) closeRequest(id uint32) {
	s.mu.Lock()
	_, ok := s.open[id]
	handler := s.onClose
	s.mu.Unlock()
	if !ok {
		return
	}
	if handler != nil {
		handler(id, CloseReasonClosed)
	}
	if err := s.Close(id, CloseReasonClosed); err != nil {
		s.logger.Warn("failed to close notification", "id", id, "error", err)
	}
}

// busObject holds the exported methods so that only the protocol surface
// is visible on the bus.
type busObject struct {
	s *Server
}

// GetCapabilities implements the D-Bus method GetCapabilities() -> as.
func (o busObject) GetCapabilities() ([]string, *dbus.Error) {
	return Capabilities, nil
}

// GetServerInformation implements GetServerInformation() -> (ssss).
func (o busObject) GetServerInformation() (string, string, string, string, *dbus.Error) {
	o.s.mu.Lock()
	info := o.s.info
	o.s.mu.Unlock()
	return info.Name, info.Vendor, info.Version, info.SpecVersion, nil
}

// Notify implements Notify(susssasa{sv}i) -> u.
func (o busObject) Notify(appName string, replacesID uint32, appIcon, summary, body string,
	actions []string, hints map[string]dbus.Variant, expireTimeout int32) (uint32, *dbus.Error) {
	return o.s.notify(&Notification{
		AppName:       appName,
		ReplacesID:    replacesID,
		AppIcon:       appIcon,
		Summary:       summary,
		Body:          body,
		Actions:       actions,
		Hints:         hints,
		ExpireTimeout: expireTimeout,
	}), nil
}

// CloseNotification implements CloseNotification(u).
func (o busObject) CloseNotification(id uint32) *dbus.Error {
	o.s.closeRequest(id)
	return nil
}
