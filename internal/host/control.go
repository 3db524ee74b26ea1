package host

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jmylchreest/isle/internal/ipc"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/widget"
)

// uiTimeout bounds how long an IPC request waits for the UI thread.
const uiTimeout = 5 * time.Second

// HandleRequest answers an IPC request. It implements ipc.Handler and runs
// on connection goroutines; UI state is only touched through Schedule.
func (h *Host) HandleRequest(ctx context.Context, req ipc.Request) ipc.Response {
	switch req.Kind {
	case ipc.KindHealthCheck:
		return h.onUI(ctx, func() ipc.Response {
			return ipc.Response{
				OK:      true,
				Message: "ok",
				Uptime:  h.Uptime(),
				Modules: h.Modules(),
			}
		})

	case ipc.KindReload:
		if h.reloadFn == nil {
			return ipc.Errorf("reload is not available")
		}
		if err := h.reloadFn(); err != nil {
			h.logger.Warn("reload failed", "error", err)
			return ipc.Errorf("reload failed: %v", err)
		}
		return ipc.Response{OK: true, Message: "configuration reloaded"}

	case ipc.KindInspector:
		if h.inspectorFn == nil {
			return ipc.Errorf("inspector is not available")
		}
		return h.onUI(ctx, func() ipc.Response {
			h.inspectorFn()
			return ipc.Response{OK: true, Message: "inspector opened"}
		})

	case ipc.KindKill:
		return ipc.Response{OK: true, Message: "shutting down"}

	case ipc.KindActivityNotification:
		id, err := model.ParseIdentifier(req.Activity)
		if err != nil {
			h.logger.Warn("rejected activity notification", "activity", req.Activity, "error", err)
			return ipc.Errorf("%v", err)
		}
		mode, err := widget.ParseMode(req.Mode)
		if err != nil {
			h.logger.Warn("rejected activity notification", "activity", id, "mode", req.Mode, "error", err)
			return ipc.Errorf("%v", err)
		}
		return h.onUI(ctx, func() ipc.Response {
			if err := h.Notify(id, mode, req.Duration); err != nil {
				return ipc.Errorf("%v", err)
			}
			return ipc.Response{OK: true, Message: fmt.Sprintf("%s -> %s", id, mode)}
		})

	case ipc.KindListActivities:
		return h.onUI(ctx, func() ipc.Response {
			return ipc.Response{OK: true, Activities: h.Activities(), Modules: h.Modules()}
		})

	case ipc.KindCycleFocus:
		dir := req.Direction
		if dir == 0 {
			dir = 1
		}
		return h.onUI(ctx, func() ipc.Response {
			h.layout.CycleFocus(dir)
			id, ok := h.layout.Focused()
			if !ok {
				return ipc.Response{OK: true, Message: "no activities"}
			}
			return ipc.Response{OK: true, Message: id.String()}
		})

	default:
		return ipc.Errorf("unsupported request %s", req.Kind)
	}
}

// onUI runs fn on the UI thread and waits for its response.
func (h *Host) onUI(ctx context.Context, fn func() ipc.Response) ipc.Response {
	ctx, cancel := context.WithTimeout(ctx, uiTimeout)
	defer cancel()

	ch := make(chan ipc.Response, 1)
	h.schedule(func() { ch <- fn() })

	select {
	case resp := <-ch:
		return resp
	case <-ctx.Done():
		return ipc.Errorf("daemon busy: %v", ctx.Err())
	}
}

// Activities snapshots every live activity in layout order, followed by
// activities the layout does not know about.
func (h *Host) Activities() []ipc.ActivityInfo {
	focused, hasFocus := h.layout.Focused()
	seen := make(map[model.Identifier]bool)
	var infos []ipc.ActivityInfo

	add := func(id model.Identifier) {
		if seen[id] {
			return
		}
		a, ok := h.lookup(id)
		if !ok {
			return
		}
		seen[id] = true

		info := ipc.ActivityInfo{ID: id.String(), Focused: hasFocus && id == focused}
		if w := a.Widget(); w != nil {
			info.Mode = int(w.Mode())
		}
		snapshot := a.Snapshot()
		names := make([]string, 0, len(snapshot))
		for name := range snapshot {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			v := snapshot[name]
			info.Properties = append(info.Properties, ipc.PropertyInfo{
				Name:  name,
				Type:  v.Type().String(),
				Value: v.String(),
			})
		}
		infos = append(infos, info)
	}

	for _, id := range h.layout.ListActivities() {
		add(id)
	}
	for _, name := range h.names {
		st := h.modules[name]
		if st.module == nil || st.status != StatusRunning {
			continue
		}
		for _, a := range st.module.Activities().All() {
			add(a.ID())
		}
	}
	return infos
}
