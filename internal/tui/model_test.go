package tui

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/isle/internal/ipc"
)

type fakeDaemon struct {
	mu       sync.Mutex
	requests []ipc.Request
	err      error
}

func (d *fakeDaemon) do(_ context.Context, req ipc.Request) (ipc.Response, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.requests = append(d.requests, req)
	if d.err != nil {
		return ipc.Response{}, d.err
	}
	switch req.Kind {
	case ipc.KindListActivities:
		return ipc.Response{OK: true, Activities: []ipc.ActivityInfo{
			{ID: "clock@clock", Mode: 1, Focused: true, Properties: []ipc.PropertyInfo{
				{Name: "format", Type: "string", Value: "15:04"},
			}},
			{ID: "latest@notifications", Mode: 0},
		}, Modules: []ipc.ModuleInfo{{Name: "clock", Status: "running", Activities: 1}}}, nil
	case ipc.KindHealthCheck:
		return ipc.Response{OK: true, Uptime: 90}, nil
	default:
		return ipc.Response{OK: true, Message: "done"}, nil
	}
}

func (d *fakeDaemon) last() ipc.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.requests[len(d.requests)-1]
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out, cmd
}

func loaded(t *testing.T, d *fakeDaemon) Model {
	t.Helper()
	m := New(nil, d.do)
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 100, Height: 30})
	m, _ = update(t, m, m.fetch()())
	return m
}

func TestFetch_LoadsActivities(t *testing.T) {
	d := &fakeDaemon{}
	m := loaded(t, d)

	assert.False(t, m.loading)
	assert.Len(t, m.activities, 2)
	assert.Len(t, m.list.Items(), 2)
	assert.Contains(t, m.View(), "clock@clock")
	assert.Contains(t, m.View(), "2 activities")
}

func TestFetch_ErrorShowsStatus(t *testing.T) {
	d := &fakeDaemon{err: errors.New("connection refused")}
	m := loaded(t, d)

	assert.True(t, m.statusErr)
	assert.Contains(t, m.statusMsg, "connection refused")
	assert.Empty(t, m.list.Items())
}

func TestModeKeySendsActivityNotification(t *testing.T) {
	d := &fakeDaemon{}
	m := loaded(t, d)

	m, cmd := update(t, m, keyMsg("2"))
	require.NotNil(t, cmd)
	msg := cmd()

	req := d.last()
	assert.Equal(t, ipc.KindActivityNotification, req.Kind)
	assert.Equal(t, "clock@clock", req.Activity)
	assert.Equal(t, 2, req.Mode)

	m, _ = update(t, m, msg)
	assert.Equal(t, "done", m.statusMsg)
	assert.True(t, m.loading)
}

func TestFocusKeys(t *testing.T) {
	d := &fakeDaemon{}
	m := loaded(t, d)

	_, cmd := update(t, m, keyMsg("tab"))
	cmd()
	assert.Equal(t, ipc.Request{Kind: ipc.KindCycleFocus, Direction: 1}, d.last())

	_, cmd = update(t, m, keyMsg("p"))
	cmd()
	assert.Equal(t, ipc.Request{Kind: ipc.KindCycleFocus, Direction: -1}, d.last())
}

func TestDetailView(t *testing.T) {
	d := &fakeDaemon{}
	m := loaded(t, d)

	m, _ = update(t, m, keyMsg("enter"))
	assert.Equal(t, ViewDetail, m.view)
	assert.Equal(t, "clock@clock", m.selected)
	assert.Contains(t, m.View(), "format")
	assert.Contains(t, m.View(), "15:04")

	m, _ = update(t, m, keyMsg("esc"))
	assert.Equal(t, ViewList, m.view)
}

func TestHelpViewListsModules(t *testing.T) {
	m := loaded(t, &fakeDaemon{})
	m, _ = update(t, m, keyMsg("?"))
	assert.Equal(t, ViewHelp, m.view)
	assert.Contains(t, m.View(), "running")
}

func TestTickSkipsWhileLoading(t *testing.T) {
	d := &fakeDaemon{}
	m := New(nil, d.do)
	assert.True(t, m.loading)

	_, cmd := update(t, m, tickMsg{})
	require.NotNil(t, cmd)
	assert.Empty(t, d.requests)
}

func TestRenderDetail(t *testing.T) {
	out := renderDetail(ipc.ActivityInfo{ID: "x@y", Mode: 2, Properties: []ipc.PropertyInfo{
		{Name: "a", Type: "int", Value: "1"},
		{Name: "longer", Type: "string", Value: "v"},
	}})
	assert.Contains(t, out, "expanded")
	assert.Contains(t, out, "longer")
}

func TestBuildKeybindBar_FitsWidth(t *testing.T) {
	narrow := buildKeybindBar(12, ViewList)
	assert.Contains(t, narrow, "quit")
	assert.NotContains(t, narrow, "help")

	wide := buildKeybindBar(0, ViewList)
	assert.Contains(t, wide, "help")
}

func TestClipboardCommand(t *testing.T) {
	have := map[string]bool{"xclip": true, "wl-copy": true}
	lookPath := func(name string) (string, error) {
		if have[name] {
			return "/usr/bin/" + name, nil
		}
		return "", exec.ErrNotFound
	}
	env := func(vars map[string]string) func(string) string {
		return func(k string) string { return vars[k] }
	}

	assert.Equal(t, "wl-copy", clipboardCommand(env(map[string]string{"WAYLAND_DISPLAY": "wayland-1", "DISPLAY": ":0"}), lookPath))
	assert.Equal(t, "xclip -selection clipboard", clipboardCommand(env(map[string]string{"DISPLAY": ":0"}), lookPath))
	assert.Empty(t, clipboardCommand(env(nil), lookPath))

	delete(have, "xclip")
	have["xsel"] = true
	assert.Equal(t, "xsel --clipboard --input", clipboardCommand(env(map[string]string{"DISPLAY": ":0"}), lookPath))
}

func TestCopyText_ReportsFailure(t *testing.T) {
	err := copyText("x", "false")
	assert.ErrorContains(t, err, "false:")
}
