package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/isle/internal/config"
)

var configOpts struct {
	daemonPath string
	force      bool
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage isle and isled configuration files",
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		daemonPath, err := daemonConfigPath()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "isle:   %s\n", clientConfigPath())
		fmt.Fprintf(out, "isled:  %s\n", daemonPath)
		fmt.Fprintf(out, "socket: %s\n", socketPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write default configuration files",
	Long: `Write the default isle and isled configuration files.

Existing files are left alone unless --force is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		daemonPath, err := daemonConfigPath()
		if err != nil {
			return err
		}
		clientPath := clientConfigPath()
		out := cmd.OutOrStdout()

		if ok, err := writable(clientPath, configOpts.force); err != nil {
			return err
		} else if ok {
			if err := config.DefaultConfig().Save(clientPath); err != nil {
				return fmt.Errorf("failed to write %s: %w", clientPath, err)
			}
			fmt.Fprintf(out, "wrote %s\n", clientPath)
		} else {
			fmt.Fprintf(out, "kept %s\n", clientPath)
		}

		if ok, err := writable(daemonPath, configOpts.force); err != nil {
			return err
		} else if ok {
			if err := config.SaveDaemonConfig(daemonPath, config.DefaultDaemonConfig()); err != nil {
				return err
			}
			fmt.Fprintf(out, "wrote %s\n", daemonPath)
		} else {
			fmt.Fprintf(out, "kept %s\n", daemonPath)
		}
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the isled configuration file",
	Long: `Parse and validate the isled configuration without touching the
running daemon. Use it before "isle reload".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := daemonConfigPath()
		if err != nil {
			return err
		}
		return checkDaemonConfig(cmd.OutOrStdout(), path)
	},
}

func init() {
	configCmd.PersistentFlags().StringVar(&configOpts.daemonPath, "daemon-config", "",
		"Path to the isled config file (default: ~/.config/isle/isled.toml)")
	configInitCmd.Flags().BoolVarP(&configOpts.force, "force", "f", false,
		"Overwrite existing files")

	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
	rootCmd.AddCommand(configCmd)
}

func clientConfigPath() string {
	if globalOpts.configPath != "" {
		return globalOpts.configPath
	}
	return config.ConfigPath()
}

func daemonConfigPath() (string, error) {
	if configOpts.daemonPath != "" {
		return configOpts.daemonPath, nil
	}
	return config.DaemonConfigPath()
}

// writable reports whether path may be written: it doesn't exist yet, or
// force is set.
func writable(path string, force bool) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return true, nil
	case err != nil:
		return false, fmt.Errorf("failed to stat %s: %w", path, err)
	default:
		return force, nil
	}
}

func checkDaemonConfig(w io.Writer, path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		_, err := fmt.Fprintf(w, "%s does not exist, isled uses the defaults\n", path)
		return err
	}
	cfg, err := config.LoadDaemonConfig(path)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s ok (layout %s, theme %s, %d module sections)\n",
		path, cfg.Island.LayoutManager, cfg.Theme.Name, len(cfg.Modules))
	return err
}
