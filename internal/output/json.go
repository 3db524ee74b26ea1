package output

import (
	"encoding/json"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/isle/internal/ipc"
)

// JSONFormatter formats activities as JSON.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// Format writes activities as a JSON array.
func (f *JSONFormatter) Format(w io.Writer, activities []ipc.ActivityInfo) error {
	return writeJSON(w, nonNil(activities))
}

// YAMLFormatter formats activities as a YAML sequence.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAML formatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format writes activities as YAML.
func (f *YAMLFormatter) Format(w io.Writer, activities []ipc.ActivityInfo) error {
	return writeYAML(w, nonNil(activities))
}

func writeJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(v); err != nil {
		return err
	}
	return encoder.Close()
}

// nonNil keeps an empty list from encoding as null.
func nonNil(activities []ipc.ActivityInfo) []ipc.ActivityInfo {
	if activities == nil {
		return []ipc.ActivityInfo{}
	}
	return activities
}
