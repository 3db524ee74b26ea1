// Package dbus speaks the org.freedesktop.Notifications protocol on the
// session bus. A Monitor watches the traffic of whichever daemon owns the
// name, a Server owns the name itself, and Send posts notifications.
package dbus
