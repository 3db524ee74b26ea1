// Package tui provides `isle top`, a BubbleTea view of the daemon's live
// activities.
package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/ipc"
	"github.com/jmylchreest/isle/internal/widget"
)

// Requester sends one request to the daemon.
type Requester func(ctx context.Context, req ipc.Request) (ipc.Response, error)

// View is the current screen.
type View int

const (
	ViewList View = iota
	ViewDetail
	ViewHelp
)

type snapshotMsg struct {
	activities []ipc.ActivityInfo
	modules    []ipc.ModuleInfo
	uptime     time.Duration
	err        error
}

type actionMsg struct {
	message string
	err     error
}

type tickMsg time.Time

// Model is the `isle top` model.
type Model struct {
	cfg     *config.Config
	request Requester
	keys    KeyMap

	view     View
	list     list.Model
	viewport viewport.Model
	spinner  spinner.Model
	help     help.Model

	activities []ipc.ActivityInfo
	modules    []ipc.ModuleInfo
	uptime     time.Duration
	selected   string
	loading    bool

	width, height int
	ready         bool

	statusMsg string
	statusErr bool
}

type activityItem struct {
	info ipc.ActivityInfo
}

func (i activityItem) Title() string {
	if i.info.Focused {
		return "● " + i.info.ID
	}
	return "  " + i.info.ID
}

func (i activityItem) Description() string {
	return fmt.Sprintf("%s · %d properties", modeName(i.info.Mode), len(i.info.Properties))
}

func (i activityItem) FilterValue() string {
	return i.info.ID
}

func modeName(n int) string {
	m, err := widget.ParseMode(n)
	if err != nil {
		return fmt.Sprintf("mode %d", n)
	}
	return m.String()
}

// New creates the model. request is used for every daemon call.
func New(cfg *config.Config, request Requester) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}

	l := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	l.Title = "isle"
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.DisableQuitKeybindings()

	s := spinner.New(spinner.WithSpinner(spinner.MiniDot))
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	h := help.New()
	h.ShowAll = cfg.TUI.ShowHelp

	return Model{
		cfg:     cfg,
		request: request,
		keys:    DefaultKeyMap(),
		list:    l,
		spinner: s,
		help:    h,
		loading: true,
	}
}

// Init starts the first fetch, the spinner and the refresh timer.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.fetch(), m.spinner.Tick, m.tick())
}

func (m Model) timeout() time.Duration {
	if d := m.cfg.Output.Timeout.Duration(); d > 0 {
		return d
	}
	return config.DefaultTimeout
}

func (m Model) tick() tea.Cmd {
	refresh := m.cfg.TUI.Refresh.Duration()
	if refresh <= 0 {
		refresh = config.DefaultTUIRefresh
	}
	return tea.Tick(refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) fetch() tea.Cmd {
	request, timeout := m.request, m.timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := request(ctx, ipc.Request{Kind: ipc.KindListActivities})
		if err == nil && !resp.OK {
			err = fmt.Errorf("%s", resp.Message)
		}
		health, herr := request(ctx, ipc.Request{Kind: ipc.KindHealthCheck})
		uptime := time.Duration(0)
		if herr == nil {
			uptime = health.Uptime
		}
		return snapshotMsg{activities: resp.Activities, modules: resp.Modules, uptime: uptime, err: err}
	}
}

func (m Model) act(req ipc.Request) tea.Cmd {
	request, timeout := m.request, m.timeout()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		resp, err := request(ctx, req)
		if err == nil && !resp.OK {
			err = fmt.Errorf("%s", resp.Message)
		}
		return actionMsg{message: resp.Message, err: err}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, max(msg.Height-3, 1))
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-4, 1))
			m.viewport.YPosition = 2
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = max(msg.Height-4, 1)
		}
		return m, nil

	case snapshotMsg:
		m.loading = false
		if msg.err != nil {
			m.setStatus("daemon unreachable: "+msg.err.Error(), true)
			return m, nil
		}
		m.activities, m.modules, m.uptime = msg.activities, msg.modules, msg.uptime
		cmd := m.list.SetItems(m.items())
		if m.view == ViewDetail {
			if info, ok := m.find(m.selected); ok {
				m.viewport.SetContent(renderDetail(info))
			} else {
				m.view = ViewList
			}
		}
		return m, cmd

	case actionMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), true)
		} else {
			m.setStatus(msg.message, false)
		}
		m.loading = true
		return m, m.fetch()

	case tickMsg:
		if m.loading {
			return m, m.tick()
		}
		m.loading = true
		return m, tea.Batch(m.fetch(), m.tick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	if m.view == ViewDetail {
		m.viewport, cmd = m.viewport.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusErr = isErr
}

func (m Model) items() []list.Item {
	items := make([]list.Item, len(m.activities))
	for i, a := range m.activities {
		items[i] = activityItem{info: a}
	}
	return items
}

func (m Model) find(id string) (ipc.ActivityInfo, bool) {
	for _, a := range m.activities {
		if a.ID == id {
			return a, true
		}
	}
	return ipc.ActivityInfo{}, false
}

// current returns the activity under the cursor or shown in detail.
func (m Model) current() (ipc.ActivityInfo, bool) {
	if m.view == ViewDetail {
		return m.find(m.selected)
	}
	item, ok := m.list.SelectedItem().(activityItem)
	if !ok {
		return ipc.ActivityInfo{}, false
	}
	return item.info, true
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.SettingFilter() {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		if m.view == ViewHelp {
			m.view = ViewList
		} else {
			m.view = ViewHelp
		}
		return m, nil
	case key.Matches(msg, m.keys.Back):
		if m.view != ViewList {
			m.view = ViewList
			return m, nil
		}
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		return m, m.fetch()
	case key.Matches(msg, m.keys.NextFocus):
		return m, m.act(ipc.Request{Kind: ipc.KindCycleFocus, Direction: 1})
	case key.Matches(msg, m.keys.PrevFocus):
		return m, m.act(ipc.Request{Kind: ipc.KindCycleFocus, Direction: -1})
	}

	if m.view == ViewHelp {
		return m, nil
	}

	for mode, b := range []key.Binding{m.keys.Minimal, m.keys.Compact, m.keys.Expanded, m.keys.Overlay} {
		if key.Matches(msg, b) {
			info, ok := m.current()
			if !ok {
				return m, nil
			}
			return m, m.act(ipc.Request{Kind: ipc.KindActivityNotification, Activity: info.ID, Mode: mode})
		}
	}

	switch {
	case key.Matches(msg, m.keys.Copy):
		info, ok := m.current()
		if !ok {
			return m, nil
		}
		command := m.cfg.TUI.Clipboard
		return m, func() tea.Msg {
			data, err := yaml.Marshal(info)
			if err == nil {
				err = copyText(string(data), command)
			}
			return actionMsg{message: "copied " + info.ID, err: err}
		}
	case m.view == ViewList && key.Matches(msg, m.keys.Enter):
		info, ok := m.current()
		if !ok {
			return m, nil
		}
		m.selected = info.ID
		m.view = ViewDetail
		m.viewport.SetContent(renderDetail(info))
		m.viewport.GotoTop()
		return m, nil
	}

	var cmd tea.Cmd
	if m.view == ViewDetail {
		m.viewport, cmd = m.viewport.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}
	return m, cmd
}

// View renders the current screen.
func (m Model) View() string {
	if !m.ready {
		return m.spinner.View() + " connecting to isled..."
	}
	switch m.view {
	case ViewDetail:
		return m.viewDetail()
	case ViewHelp:
		return m.viewHelp()
	default:
		return m.viewList()
	}
}

func (m Model) viewList() string {
	return m.list.View() + "\n" + m.statusLine() + "\n" + buildKeybindBar(m.width, ViewList)
}

func (m Model) viewDetail() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Render(m.selected)
	return header + "\n\n" + m.viewport.View() + "\n" + buildKeybindBar(m.width, ViewDetail)
}

func (m Model) viewHelp() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Render("isle top")
	return title + "\n\n" + m.help.View(m.keys) + "\n\n" + m.modulesTable()
}

func (m Model) statusLine() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	var parts []string
	if m.loading {
		parts = append(parts, m.spinner.View())
	}
	if m.uptime > 0 {
		parts = append(parts, "started "+humanize.Time(time.Now().Add(-m.uptime)))
	}
	parts = append(parts, fmt.Sprintf("%d activities", len(m.activities)))
	if m.statusMsg != "" {
		s := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		if m.statusErr {
			s = s.Foreground(lipgloss.Color("9"))
		}
		parts = append(parts, s.Render(m.statusMsg))
	}
	return style.Render(strings.Join(parts, "  "))
}

func (m Model) modulesTable() string {
	var b strings.Builder
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	b.WriteString(label.Render("modules") + "\n")
	for _, mod := range m.modules {
		fmt.Fprintf(&b, "  %-16s %-8s %d", mod.Name, mod.Status, mod.Activities)
		if mod.Error != "" {
			b.WriteString("  " + lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render(mod.Error))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// renderDetail lists an activity's properties.
func renderDetail(info ipc.ActivityInfo) string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	value := lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", label.Render("mode:"), value.Render(modeName(info.Mode)))
	fmt.Fprintf(&b, "%s %t\n\n", label.Render("focused:"), info.Focused)

	width := 0
	for _, p := range info.Properties {
		width = max(width, len(p.Name))
	}
	for _, p := range info.Properties {
		fmt.Fprintf(&b, "%-*s  %s  %s\n", width, p.Name, label.Render(p.Type), value.Render(p.Value))
	}
	return b.String()
}

type keybind struct {
	key, desc string
}

// buildKeybindBar fits as many bindings as width allows.
func buildKeybindBar(width int, view View) string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	keyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))

	binds := []keybind{{"q", "quit"}, {"enter", "view"}, {"0-3", "mode"}, {"tab", "focus"}, {"/", "filter"}, {"y", "copy"}, {"?", "help"}}
	if view == ViewDetail {
		binds = []keybind{{"q", "quit"}, {"esc", "back"}, {"0-3", "mode"}, {"y", "copy"}, {"j/k", "scroll"}}
	}

	const separator = "  "
	var b strings.Builder
	plain := 0
	for _, kb := range binds {
		n := len(kb.key) + 1 + len(kb.desc)
		if plain > 0 {
			n += len(separator)
		}
		if width > 0 && plain+n > width {
			break
		}
		if plain > 0 {
			b.WriteString(separator)
		}
		b.WriteString(keyStyle.Render(kb.key) + " " + kb.desc)
		plain += n
	}
	return style.Render(b.String())
}

// RunOptions configures Run.
type RunOptions struct {
	Config  *config.Config
	Request Requester
	Output  io.Writer
}

// Run starts the TUI and blocks until it exits.
func Run(opts RunOptions) error {
	m := New(opts.Config, opts.Request)
	programOpts := []tea.ProgramOption{tea.WithAltScreen()}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}
	_, err := tea.NewProgram(m, programOpts...).Run()
	return err
}
