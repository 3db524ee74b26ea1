package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/isle/internal/ipc"
	"github.com/jmylchreest/isle/internal/output"
)

var healthOpts struct {
	output string
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Show daemon uptime and module status",
	Long: `Query isled's health: whether it is up, how long it has been running,
and the lifecycle status of every module (running, failed, stopped).

Exits non-zero when the daemon cannot be reached or reports a failure.`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().StringVarP(&healthOpts.output, "output", "o", "",
		"Output format (table, json, yaml)")
}

func runHealth(cmd *cobra.Command, args []string) error {
	format, err := outputFormat(healthOpts.output)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()
	resp, err := request(ctx, ipc.Request{Kind: ipc.KindHealthCheck})
	if err != nil {
		return err
	}

	if err := output.FormatHealth(cmd.OutOrStdout(), resp, format, time.Now()); err != nil {
		return err
	}
	if !resp.OK {
		return errDaemon
	}
	return nil
}
