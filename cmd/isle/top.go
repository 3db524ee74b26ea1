package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/isle/internal/tui"
)

var topCmd = &cobra.Command{
	Use:   "top",
	Short: "Launch the interactive activity monitor",
	Long: `Launch a terminal monitor of the running daemon.

The monitor provides:
  - Live list of activities with their mode and focus
  - Detail view with every property value
  - Module status and daemon uptime
  - Mode and focus control

Key bindings:
  j/k, ↑/↓    Navigate list
  enter       View activity details
  0-3         Show selected activity as minimal/compact/expanded/overlay
  tab/n       Focus next activity
  shift+tab/p Focus previous activity
  y           Copy activity as YAML
  /           Filter activities
  r           Refresh
  ?           Show help
  q           Quit`,
	Args: cobra.NoArgs,
	RunE: runTop,
}

func init() {
	rootCmd.AddCommand(topCmd)
}

func runTop(cmd *cobra.Command, args []string) error {
	return tui.Run(tui.RunOptions{
		Config:  cfg,
		Request: request,
	})
}
