package output

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/ipc"
)

// Health is the machine-readable form of a health check reply.
type Health struct {
	OK      bool             `json:"ok" yaml:"ok"`
	Message string           `json:"message,omitempty" yaml:"message,omitempty"`
	Uptime  string           `json:"uptime" yaml:"uptime"`
	Modules []ipc.ModuleInfo `json:"modules" yaml:"modules"`
}

// FormatHealth writes a health check reply in format. now anchors the
// humanized start time in table output.
func FormatHealth(w io.Writer, resp ipc.Response, format config.OutputFormat, now time.Time) error {
	modules := resp.Modules
	if modules == nil {
		modules = []ipc.ModuleInfo{}
	}
	h := Health{
		OK:      resp.OK,
		Message: resp.Message,
		Uptime:  resp.Uptime.Round(time.Second).String(),
		Modules: modules,
	}

	switch format {
	case config.OutputJSON:
		return writeJSON(w, h)
	case config.OutputYAML:
		return writeYAML(w, h)
	}

	status := "ok"
	if !resp.OK {
		status = "failing"
	}
	started := humanize.RelTime(now.Add(-resp.Uptime), now, "ago", "from now")
	if _, err := fmt.Fprintf(w, "isled %s, started %s (up %s)\n", status, started, h.Uptime); err != nil {
		return err
	}
	if len(modules) == 0 {
		return nil
	}

	rows := make([][]string, 0, len(modules))
	for _, m := range modules {
		rows = append(rows, []string{m.Name, m.Status, fmt.Sprint(m.Activities), m.Error})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("MODULE", "STATUS", "ACTIVITIES", "ERROR").
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
