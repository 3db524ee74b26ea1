// Package main provides the isle CLI, the control client for isled.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/ipc"
)

// Build-time variables (set via ldflags)
var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// Global configuration and state
var (
	cfg        *config.Config
	globalOpts struct {
		verbose    bool
		socket     string
		configPath string
	}
	logger *slog.Logger
)

// errDaemon marks a request the daemon answered with a failure.
var errDaemon = errors.New("isled refused the request")

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "isle",
	Short: "Control the isled dynamic island daemon",
	Long: `isle talks to a running isled over its control socket.

It can reload the daemon configuration, open the GTK inspector, list and
inspect live activities, force an activity into a display mode, move the
island focus, and stop the daemon.

Running isle without a subcommand launches the interactive monitor (isle top).`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogger()

		var err error
		cfg, err = config.LoadConfig(globalOpts.configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if globalOpts.socket != "" {
			cfg.Socket = globalOpts.socket
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTop(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.verbose, "verbose", "v", false,
		"Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&globalOpts.socket, "socket", "",
		"Path to the isled control socket (default: $XDG_RUNTIME_DIR/isle/isle.sock)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.configPath, "config", "",
		"Path to config file (default: ~/.config/isle/config.toml)")
}

// setupLogger configures the global slog logger.
func setupLogger() {
	level := slog.LevelWarn
	if globalOpts.verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	// Log to stderr so stdout is clean for output
	handler := slog.NewTextHandler(os.Stderr, opts)
	logger = slog.New(handler)
	slog.SetDefault(logger)
}

// socketPath returns the configured socket or the default one.
func socketPath() string {
	if cfg != nil && cfg.Socket != "" {
		return config.ExpandPath(cfg.Socket)
	}
	return ipc.DefaultSocketPath()
}

// requestTimeout returns the configured IPC timeout.
func requestTimeout() time.Duration {
	if cfg != nil {
		if d := cfg.Output.Timeout.Duration(); d > 0 {
			return d
		}
	}
	return config.DefaultTimeout
}

// request performs one round trip with the daemon.
func request(ctx context.Context, req ipc.Request) (ipc.Response, error) {
	path := socketPath()
	logger.Debug("sending request", "kind", req.Kind, "socket", path)
	return ipc.Call(ctx, path, req)
}

// call performs req with the configured timeout and turns a failed
// response into an error.
func call(req ipc.Request) (ipc.Response, error) {
	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout())
	defer cancel()

	resp, err := request(ctx, req)
	if err != nil {
		return resp, err
	}
	if !resp.OK {
		return resp, fmt.Errorf("%w: %s", errDaemon, resp.Message)
	}
	return resp, nil
}

// outputFormat resolves a --output flag against the config default.
func outputFormat(flag string) (config.OutputFormat, error) {
	if flag == "" && cfg != nil {
		flag = cfg.Output.Format
	}
	if flag == "" {
		flag = config.DefaultOutputFormat
	}
	return config.ParseOutputFormat(flag)
}
