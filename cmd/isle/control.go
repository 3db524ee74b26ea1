package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/isle/internal/ipc"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the daemon configuration",
	Long: `Ask isled to re-read its configuration file and apply it.

Module and layout configuration blobs are re-applied and every module's
producers are restarted. Modules that reject their new configuration keep
running with the previous one.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simpleRequest(cmd, ipc.Request{Kind: ipc.KindReload}, "reloaded")
	},
}

var inspectorCmd = &cobra.Command{
	Use:   "inspector",
	Short: "Open the GTK inspector for the island",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simpleRequest(cmd, ipc.Request{Kind: ipc.KindInspector}, "inspector opened")
	},
}

var killCmd = &cobra.Command{
	Use:   "kill",
	Short: "Stop the daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return simpleRequest(cmd, ipc.Request{Kind: ipc.KindKill}, "isled stopping")
	},
}

func init() {
	rootCmd.AddCommand(reloadCmd)
	rootCmd.AddCommand(inspectorCmd)
	rootCmd.AddCommand(killCmd)
}

// simpleRequest sends req and prints the daemon's message, or fallback when
// the daemon sent none.
func simpleRequest(cmd *cobra.Command, req ipc.Request, fallback string) error {
	resp, err := call(req)
	if err != nil {
		return err
	}
	msg := resp.Message
	if msg == "" {
		msg = fallback
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), msg)
	return err
}
