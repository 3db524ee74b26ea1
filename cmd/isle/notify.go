package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/isle/internal/ipc"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/widget"
)

var notifyOpts struct {
	duration time.Duration
}

var notifyCmd = &cobra.Command{
	Use:   "notify <activity@module> <mode>",
	Short: "Show an activity in a display mode",
	Long: `Ask the layout manager to show an activity in the given mode.

The mode is one of minimal, compact, expanded or overlay (or 0-3). With
--duration the activity falls back to its resting mode afterwards; without
it the daemon's auto_minimize setting applies.

Examples:
  isle notify clock@clock expanded
  isle notify latest@notifications overlay --duration 5s`,
	Args: cobra.ExactArgs(2),
	RunE: runNotify,
}

func init() {
	rootCmd.AddCommand(notifyCmd)

	notifyCmd.Flags().DurationVarP(&notifyOpts.duration, "duration", "d", 0,
		"How long to hold the mode before falling back")
}

func runNotify(cmd *cobra.Command, args []string) error {
	id, err := model.ParseIdentifier(args[0])
	if err != nil {
		return err
	}
	mode, err := widget.ParseModeName(args[1])
	if err != nil {
		return err
	}
	if notifyOpts.duration < 0 {
		return fmt.Errorf("duration must not be negative: %s", notifyOpts.duration)
	}

	_, err = call(ipc.Request{
		Kind:     ipc.KindActivityNotification,
		Activity: id.String(),
		Mode:     int(mode),
		Duration: notifyOpts.duration,
	})
	return err
}
