package notifications

import (
	"time"

	"github.com/jmylchreest/isle/internal/dbus"
)

// Entry is one received notification.
type Entry struct {
	ID       string // ULID assigned on arrival
	DBusID   uint32
	App      string
	Summary  string
	Body     string
	Urgency  dbus.Urgency
	Category string
	Progress int // -1 without a value hint
	Received time.Time
}

// history keeps the newest entries first and maps D-Bus ids to entries so
// replacements and closes find the right one.
type history struct {
	entries []Entry
	byDBus  map[uint32]string
	limit   int
}

func newHistory(limit int) *history {
	return &history{byDBus: make(map[uint32]string), limit: limit}
}

// add records e at the front. The entry known as replaces, or already known
// under e's D-Bus id, is dropped first. It returns the D-Bus ids of entries
// pushed past the limit.
func (h *history) add(e Entry, replaces uint32) []uint32 {
	if replaces != 0 {
		h.removeDBus(replaces)
	}
	if e.DBusID != 0 {
		h.removeDBus(e.DBusID)
		h.byDBus[e.DBusID] = e.ID
	}
	h.entries = append([]Entry{e}, h.entries...)
	return h.trim()
}

// close removes the entry the daemon knows as dbusID.
func (h *history) close(dbusID uint32) bool {
	return h.removeDBus(dbusID)
}

func (h *history) removeDBus(dbusID uint32) bool {
	id, ok := h.byDBus[dbusID]
	if !ok {
		return false
	}
	delete(h.byDBus, dbusID)
	for i, e := range h.entries {
		if e.ID == id {
			h.entries = append(h.entries[:i], h.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (h *history) setLimit(limit int) []uint32 {
	h.limit = limit
	return h.trim()
}

func (h *history) trim() []uint32 {
	if h.limit <= 0 || len(h.entries) <= h.limit {
		return nil
	}
	var evicted []uint32
	for _, e := range h.entries[h.limit:] {
		if e.DBusID != 0 && h.byDBus[e.DBusID] == e.ID {
			delete(h.byDBus, e.DBusID)
			evicted = append(evicted, e.DBusID)
		}
	}
	h.entries = h.entries[:h.limit]
	return evicted
}

func (h *history) latest() (Entry, bool) {
	if len(h.entries) == 0 {
		return Entry{}, false
	}
	return h.entries[0], true
}

func (h *history) snapshot() []Entry {
	return append([]Entry(nil), h.entries...)
}

func (h *history) len() int {
	return len(h.entries)
}
