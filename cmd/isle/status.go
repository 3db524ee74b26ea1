package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/isle/internal/ipc"
	"github.com/jmylchreest/isle/internal/output"
)

var statusOpts struct {
	field string
}

// WaybarStatus represents the Waybar custom module JSON format.
type WaybarStatus struct {
	Text    string `json:"text"`
	Alt     string `json:"alt,omitempty"`
	Tooltip string `json:"tooltip,omitempty"`
	Class   string `json:"class,omitempty"`
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Output Waybar-compatible JSON status",
	Long: `Output the island state in Waybar's custom module JSON format.

This is designed to be used with Waybar's custom module:

  "custom/isle": {
    "exec": "isle status --field time",
    "interval": 1,
    "return-type": "json",
    "on-click": "isle focus next"
  }

The output includes:
  - text: The --field value of the focused activity, or the activity count
  - alt: Display mode of the focused activity (or "empty", "offline")
  - tooltip: One line per activity with its mode
  - class: Same as alt, for CSS styling`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().StringVar(&statusOpts.field, "field", "",
		"Field of the focused activity to show as text")
}

func runStatus(cmd *cobra.Command, args []string) error {
	resp, err := call(ipc.Request{Kind: ipc.KindListActivities})
	if err != nil {
		logger.Debug("status unavailable", "error", err)
		return writeStatus(cmd, WaybarStatus{Text: "", Alt: "offline", Class: "offline"})
	}
	return writeStatus(cmd, generateStatus(resp.Activities, statusOpts.field))
}

// generateStatus creates a WaybarStatus from the listed activities.
func generateStatus(activities []ipc.ActivityInfo, field string) WaybarStatus {
	if len(activities) == 0 {
		return WaybarStatus{
			Text:  "",
			Alt:   "empty",
			Class: "empty",
		}
	}

	focused := activities[0]
	for _, a := range activities {
		if a.Focused {
			focused = a
			break
		}
	}

	text := fmt.Sprintf("%d", len(activities))
	if field != "" {
		if v, ok := output.Field(focused, field); ok {
			text = v
		}
	}

	lines := make([]string, 0, len(activities))
	for _, a := range activities {
		marker := " "
		if a.ID == focused.ID {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s %s (%s)", marker, a.ID, output.ModeName(a.Mode)))
	}

	mode := output.ModeName(focused.Mode)
	return WaybarStatus{
		Text:    text,
		Alt:     mode,
		Tooltip: strings.Join(lines, "\n"),
		Class:   mode,
	}
}

// writeStatus writes the status as JSON.
func writeStatus(cmd *cobra.Command, status WaybarStatus) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	return encoder.Encode(status)
}
