package output

import (
	"fmt"
	"io"
	"strconv"

	"github.com/jmylchreest/isle/internal/ipc"
	"github.com/jmylchreest/isle/internal/widget"
)

// Field returns a named field of an activity. The built-in fields are id,
// mode and focused; anything else is looked up as a property name.
func Field(a ipc.ActivityInfo, name string) (string, bool) {
	switch name {
	case "id":
		return a.ID, true
	case "mode":
		return ModeName(a.Mode), true
	case "focused":
		return strconv.FormatBool(a.Focused), true
	}
	for _, p := range a.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// ModeName renders a wire mode number.
func ModeName(n int) string {
	m, err := widget.ParseMode(n)
	if err != nil {
		return strconv.Itoa(n)
	}
	return m.String()
}

// FieldFormatter prints one field per activity, one per line. Activities
// without the field print an empty line so output stays aligned with ids.
type FieldFormatter struct {
	name string
}

// NewFieldFormatter creates a formatter for the named field.
func NewFieldFormatter(name string) *FieldFormatter {
	return &FieldFormatter{name: name}
}

// Format writes the field of each activity.
func (f *FieldFormatter) Format(w io.Writer, activities []ipc.ActivityInfo) error {
	for _, a := range activities {
		v, _ := Field(a, f.name)
		if _, err := fmt.Fprintln(w, v); err != nil {
			return err
		}
	}
	return nil
}
