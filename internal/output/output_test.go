package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/ipc"
)

func testActivities() []ipc.ActivityInfo {
	return []ipc.ActivityInfo{
		{
			ID:      "clock@clock",
			Mode:    1,
			Focused: true,
			Properties: []ipc.PropertyInfo{
				{Name: "time", Type: "time", Value: "2026-03-14T09:26:53Z"},
				{Name: "format", Type: "string", Value: "15:04"},
			},
		},
		{
			ID:   "latest@notifications",
			Mode: 2,
			Properties: []ipc.PropertyInfo{
				{Name: "summary", Type: "string", Value: "Download Complete"},
				{Name: "body", Type: "string", Value: "myfile.zip has\nfinished downloading"},
			},
		},
	}
}

func format(t *testing.T, f Formatter, activities []ipc.ActivityInfo) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Format(&buf, activities))
	return buf.String()
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		format config.OutputFormat
		opts   Options
		want   Formatter
	}{
		{config.OutputTable, Options{}, &TableFormatter{}},
		{"", Options{}, &TableFormatter{}},
		{config.OutputJSON, Options{}, &JSONFormatter{}},
		{config.OutputYAML, Options{}, &YAMLFormatter{}},
		{config.OutputIDs, Options{}, &IDsFormatter{}},
		{config.OutputJSON, Options{Field: "id"}, &FieldFormatter{}},
		{config.OutputJSON, Options{Template: "{{.Activity.ID}}"}, &TemplateFormatter{}},
	}
	for _, tt := range tests {
		f, err := NewFormatter(tt.format, tt.opts)
		require.NoError(t, err)
		assert.IsType(t, tt.want, f, "format %q", tt.format)
	}

	_, err := NewFormatter("csv", Options{})
	assert.Error(t, err)

	_, err = NewFormatter(config.OutputTable, Options{Template: "{{.Broken"})
	assert.Error(t, err)
}

func TestTableFormatter(t *testing.T) {
	out := format(t, NewTableFormatter(DefaultOptions()), testActivities())

	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "clock@clock")
	assert.Contains(t, out, "compact")
	assert.Contains(t, out, "latest@notifications")
	assert.Contains(t, out, "expanded")
	assert.Contains(t, out, "SUMMARY")
	assert.Contains(t, out, "Download Complete")
	// Multi-line values are folded onto one row.
	assert.Contains(t, out, "myfile.zip has finished")
}

func TestTableFormatter_NoProperties(t *testing.T) {
	out := format(t, NewTableFormatter(Options{}), testActivities())
	assert.Contains(t, out, "clock@clock")
	assert.NotContains(t, out, "SUMMARY")
}

func TestTableFormatter_Empty(t *testing.T) {
	out := format(t, NewTableFormatter(DefaultOptions()), nil)
	assert.Equal(t, "no activities\n", out)
}

func TestJSONFormatter(t *testing.T) {
	out := format(t, NewJSONFormatter(), testActivities())

	var decoded []ipc.ActivityInfo
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, testActivities(), decoded)

	assert.Equal(t, "[]\n", format(t, NewJSONFormatter(), nil))
}

func TestYAMLFormatter(t *testing.T) {
	out := format(t, NewYAMLFormatter(), testActivities())
	assert.Contains(t, out, "- id: clock@clock")

	var decoded []ipc.ActivityInfo
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, testActivities(), decoded)
}

func TestIDsFormatter(t *testing.T) {
	out := format(t, NewIDsFormatter(), testActivities())
	assert.Equal(t, "clock@clock\nlatest@notifications\n", out)
}

func TestField(t *testing.T) {
	a := testActivities()[0]

	tests := []struct {
		name string
		want string
		ok   bool
	}{
		{"id", "clock@clock", true},
		{"mode", "compact", true},
		{"focused", "true", true},
		{"format", "15:04", true},
		{"missing", "", false},
	}
	for _, tt := range tests {
		got, ok := Field(a, tt.name)
		assert.Equal(t, tt.ok, ok, tt.name)
		assert.Equal(t, tt.want, got, tt.name)
	}
}

func TestFieldFormatter(t *testing.T) {
	out := format(t, NewFieldFormatter("summary"), testActivities())
	assert.Equal(t, "\nDownload Complete\n", out)
}

func TestModeName(t *testing.T) {
	assert.Equal(t, "minimal", ModeName(0))
	assert.Equal(t, "overlay", ModeName(3))
	assert.Equal(t, "7", ModeName(7))
}

func TestTemplateFormatter(t *testing.T) {
	f, err := NewTemplateFormatter(`{{.Index}} {{.Activity.ID}} {{.Mode}} {{prop .Activity "summary" | truncate 8}}`)
	require.NoError(t, err)

	out := format(t, f, testActivities())
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "1 clock@clock compact", strings.TrimSpace(lines[0]))
	assert.Equal(t, "2 latest@notifications expanded Downl...", lines[1])
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate(0, "hello"))
	assert.Equal(t, "hello", truncate(5, "hello"))
	assert.Equal(t, "he", truncate(2, "hello"))
	assert.Equal(t, "h...", truncate(4, "hello world"))
	assert.Equal(t, "héll...", truncate(7, "héllo wörld"))
}

func TestFormatHealth(t *testing.T) {
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	resp := ipc.Response{
		OK:     true,
		Uptime: 2 * time.Hour,
		Modules: []ipc.ModuleInfo{
			{Name: "clock", Status: "running", Activities: 1},
			{Name: "weather", Status: "failed", Error: "boom"},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, FormatHealth(&buf, resp, config.OutputTable, now))
	out := buf.String()
	assert.Contains(t, out, "isled ok, started 2 hours ago (up 2h0m0s)")
	assert.Contains(t, out, "weather")
	assert.Contains(t, out, "boom")

	buf.Reset()
	require.NoError(t, FormatHealth(&buf, resp, config.OutputJSON, now))
	var h Health
	require.NoError(t, json.Unmarshal(buf.Bytes(), &h))
	assert.True(t, h.OK)
	assert.Equal(t, "2h0m0s", h.Uptime)
	assert.Len(t, h.Modules, 2)

	buf.Reset()
	require.NoError(t, FormatHealth(&buf, ipc.Response{OK: true}, config.OutputYAML, now))
	assert.Contains(t, buf.String(), "modules: []")
}
