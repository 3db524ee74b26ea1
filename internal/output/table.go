package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/jmylchreest/isle/internal/ipc"
)

// TableFormatter renders activities as a bordered table.
type TableFormatter struct {
	opts Options
}

// NewTableFormatter creates a new table formatter.
func NewTableFormatter(opts Options) *TableFormatter {
	return &TableFormatter{opts: opts}
}

// Format writes one row per activity. With Properties set, every property
// name seen across the activities becomes a column.
func (f *TableFormatter) Format(w io.Writer, activities []ipc.ActivityInfo) error {
	if len(activities) == 0 {
		_, err := fmt.Fprintln(w, "no activities")
		return err
	}

	headers := []string{"ID", "MODE", "FOCUS"}
	var props []string
	if f.opts.Properties {
		props = propertyNames(activities)
		for _, p := range props {
			headers = append(headers, strings.ToUpper(p))
		}
	}

	rows := make([][]string, 0, len(activities))
	for _, a := range activities {
		focus := ""
		if a.Focused {
			focus = "*"
		}
		row := []string{a.ID, ModeName(a.Mode), focus}
		for _, p := range props {
			v, _ := Field(a, p)
			row = append(row, truncate(f.opts.ValueMax, oneline(v)))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return s.Bold(true)
			}
			return s
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// propertyNames returns the union of property names in first-seen order.
func propertyNames(activities []ipc.ActivityInfo) []string {
	seen := make(map[string]bool)
	var names []string
	for _, a := range activities {
		for _, p := range a.Properties {
			if !seen[p.Name] {
				seen[p.Name] = true
				names = append(names, p.Name)
			}
		}
	}
	return names
}
