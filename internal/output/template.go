package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"github.com/jmylchreest/isle/internal/ipc"
)

// TemplateFormatter renders each activity through a text/template.
type TemplateFormatter struct {
	tmpl *template.Template
}

// templateData is passed to custom templates.
type templateData struct {
	Index    int
	Activity ipc.ActivityInfo
	Mode     string
}

// NewTemplateFormatter parses text. A trailing newline is appended to each
// rendered activity unless the template already ends with one.
func NewTemplateFormatter(text string) (*TemplateFormatter, error) {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	tmpl, err := template.New("activity").Funcs(templateFuncs()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	return &TemplateFormatter{tmpl: tmpl}, nil
}

// Format executes the template once per activity.
func (f *TemplateFormatter) Format(w io.Writer, activities []ipc.ActivityInfo) error {
	for i, a := range activities {
		data := templateData{Index: i + 1, Activity: a, Mode: ModeName(a.Mode)}
		if err := f.tmpl.Execute(w, data); err != nil {
			return fmt.Errorf("failed to render %s: %w", a.ID, err)
		}
	}
	return nil
}

// templateFuncs returns custom template functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"truncate": truncate,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
		"oneline":  oneline,
		"mode":     ModeName,
		"prop": func(a ipc.ActivityInfo, name string) string {
			v, _ := Field(a, name)
			return v
		},
	}
}

func truncate(n int, s string) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func oneline(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
