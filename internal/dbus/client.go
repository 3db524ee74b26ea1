package dbus

import (
	"fmt"

	"github.com/godbus/dbus/v5"
)

// Send delivers n to whichever notification daemon owns the bus name and
// returns the id it assigned.
func Send(n *Notification) (uint32, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return 0, fmt.Errorf("failed to connect to session bus: %w", err)
	}
	return SendOn(conn, n)
}

// SendOn is Send over an existing connection.
func SendOn(conn *dbus.Conn, n *Notification) (uint32, error) {
	var id uint32
	call := conn.Object(BusName, ObjectPath).Call(Interface+".Notify", 0, n.args()...)
	if call.Err != nil {
		return 0, fmt.Errorf("failed to send notification: %w", call.Err)
	}
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("failed to read notification id: %w", err)
	}
	return id, nil
}
