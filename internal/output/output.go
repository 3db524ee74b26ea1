// Package output renders daemon replies for the isle CLI.
package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/ipc"
)

// Formatter formats activities for output.
type Formatter interface {
	// Format writes formatted activities to the writer.
	Format(w io.Writer, activities []ipc.ActivityInfo) error
}

// Options configures formatter behavior.
type Options struct {
	Template   string // Custom text/template, overrides the format
	Field      string // Print a single field per activity
	Properties bool   // Include property columns in table output
	ValueMax   int    // Maximum property value length in tables (0 = unlimited)
}

// DefaultOptions returns defaults for terminal output.
func DefaultOptions() Options {
	return Options{
		Properties: true,
		ValueMax:   40,
	}
}

// NewFormatter creates a formatter for format. A template or field in opts
// takes precedence over format.
func NewFormatter(format config.OutputFormat, opts Options) (Formatter, error) {
	switch {
	case opts.Template != "":
		return NewTemplateFormatter(opts.Template)
	case opts.Field != "":
		return NewFieldFormatter(opts.Field), nil
	}

	switch format {
	case config.OutputJSON:
		return NewJSONFormatter(), nil
	case config.OutputYAML:
		return NewYAMLFormatter(), nil
	case config.OutputIDs:
		return NewIDsFormatter(), nil
	case config.OutputTable, "":
		return NewTableFormatter(opts), nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}
