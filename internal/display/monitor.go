package display

import (
	"log/slog"
	"unsafe"

	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/core/glib"
	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"
)

// monitorIndex maps the 1-based monitor setting onto the connected
// monitors. It reports false when the compositor should choose: the setting
// is 0 or nothing is connected. An out of range setting picks the first
// monitor.
func monitorIndex(setting int, connected uint) (uint, bool) {
	if setting <= 0 || connected == 0 {
		return 0, false
	}
	if uint(setting) > connected {
		return 0, true
	}
	return uint(setting - 1), true
}

// pinToMonitor places window on the configured monitor, or leaves it to the
// compositor.
func pinToMonitor(window *gtk.Window, display *gdk.Display, setting int, logger *slog.Logger) {
	if display == nil {
		return
	}
	monitors := display.Monitors()
	if monitors == nil {
		return
	}
	n := monitors.NItems()
	idx, ok := monitorIndex(setting, n)
	if !ok {
		return
	}
	if uint(setting) > n {
		logger.Warn("monitor not connected, using the first one", "monitor", setting, "connected", n)
	}
	if m := asMonitor(monitors.Item(idx)); m != nil {
		layershell.SetMonitor(window, m)
	}
}

// asMonitor reinterprets a list model item as a gdk.Monitor, which gotk4
// does not do for GListModel items.
func asMonitor(obj *glib.Object) *gdk.Monitor {
	if obj == nil {
		return nil
	}
	type monitor struct {
		_ [0]func()
		*glib.Object
	}
	return (*gdk.Monitor)(unsafe.Pointer(&monitor{Object: obj}))
}
