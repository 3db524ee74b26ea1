package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/isle/internal/ipc"
)

var focusCmd = &cobra.Command{
	Use:       "focus next|prev",
	Short:     "Move the island focus to the next or previous activity",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"next", "prev"},
	RunE:      runFocus,
}

func init() {
	rootCmd.AddCommand(focusCmd)
}

// parseDirection maps a focus argument to a cycle direction.
func parseDirection(s string) (int, error) {
	switch s {
	case "next", "+1", "1":
		return 1, nil
	case "prev", "previous", "-1":
		return -1, nil
	default:
		return 0, fmt.Errorf("invalid direction %q, must be next or prev", s)
	}
}

func runFocus(cmd *cobra.Command, args []string) error {
	dir, err := parseDirection(args[0])
	if err != nil {
		return err
	}
	_, err = call(ipc.Request{Kind: ipc.KindCycleFocus, Direction: dir})
	return err
}
