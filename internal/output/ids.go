package output

import (
	"fmt"
	"io"

	"github.com/jmylchreest/isle/internal/ipc"
)

// IDsFormatter outputs just the activity identifiers, one per line.
// Useful for piping to other commands (e.g., isle notify).
type IDsFormatter struct{}

// NewIDsFormatter creates a new IDs formatter.
func NewIDsFormatter() *IDsFormatter {
	return &IDsFormatter{}
}

// Format writes activity identifiers to the writer, one per line.
func (f *IDsFormatter) Format(w io.Writer, activities []ipc.ActivityInfo) error {
	for _, a := range activities {
		if _, err := fmt.Fprintln(w, a.ID); err != nil {
			return err
		}
	}
	return nil
}
