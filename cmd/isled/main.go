// Package main is the entry point for the isled dynamic island daemon.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/diamondburned/gotk4-adwaita/pkg/adw"
	"github.com/diamondburned/gotk4/pkg/glib/v2"

	"github.com/jmylchreest/isle/internal/abi"
	"github.com/jmylchreest/isle/internal/audio"
	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/daemon"
	"github.com/jmylchreest/isle/internal/dbus"
	"github.com/jmylchreest/isle/internal/display"
	"github.com/jmylchreest/isle/internal/host"
	"github.com/jmylchreest/isle/internal/ipc"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/theme"
	"github.com/jmylchreest/isle/internal/widget"
)

const (
	appID   = "io.github.jmylchreest.isled"
	appName = "isled"
)

var (
	// Build-time variables
	version = "dev"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (default: ~/.config/isle/isled.toml)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(appName, "version", version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	os.Exit(run(*configPath, logger))
}

// schedule runs fn on the GTK main loop.
func schedule(fn func()) {
	glib.IdleAdd(fn)
}

func run(configPath string, logger *slog.Logger) int {
	logger.Info("starting isled", "version", version)

	app := adw.NewApplication(appID, 0)

	// Shared state between GTK main loop and signal handlers
	var (
		island        *display.Island
		themeLoader   *theme.Loader
		audioManager  *audio.Manager
		moduleHost    *host.Host
		ipcServer     *ipc.Server
		configWatcher *daemon.ConfigWatcher
		running       atomic.Bool
	)

	notifier := daemon.NewInternalNotifier(dbus.Send, logger)
	notifyAsync := func(fn func()) { go fn() }

	cfg, err := config.LoadDaemonConfigOrDefault(configPath)
	if err != nil {
		loadErr := err
		logger.Warn("failed to load config, using defaults", "error", loadErr)
		notifyAsync(func() { notifier.NotifyConfigError(loadErr) })
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			logger.Info("received signal, shutting down", "signal", sig)
			schedule(app.Quit)
		case <-ctx.Done():
		}
	}()

	shutdown := func() {
		if !running.Swap(false) {
			return
		}
		if ipcServer != nil {
			ipcServer.Stop()
		}
		if configWatcher != nil {
			configWatcher.Stop()
		}
		if moduleHost != nil {
			moduleHost.Stop()
		}
		if audioManager != nil {
			audioManager.Stop()
		}
		if themeLoader != nil {
			themeLoader.StopHotReload()
		}
		if island != nil {
			island.Close()
		}
	}

	app.ConnectActivate(func() {
		if running.Load() {
			logger.Warn("application already running")
			return
		}
		running.Store(true)

		themeLoader = theme.NewLoader(logger)
		if err := themeLoader.LoadTheme(cfg.Theme.Name); err != nil {
			logger.Warn("failed to load theme, using default", "error", err)
		}
		themeLoader.Apply(nil)
		themeLoader.StartHotReload(schedule)

		island, err = display.NewIsland(&app.Application, cfg, logger)
		if err != nil {
			logger.Error("failed to create island", "error", err)
			app.Quit()
			return
		}

		audioManager = audio.NewManager(cfg.Audio, logger)
		if err := audioManager.Start(); err != nil {
			logger.Warn("failed to start audio manager", "error", err)
		}

		registry := abi.NewRegistry()
		if err := host.RegisterBuiltins(registry); err != nil {
			logger.Error("failed to register built-in modules", "error", err)
			app.Quit()
			return
		}
		if _, err := abi.LoadPlugins(config.ExpandPath(cfg.Plugins.Dir), registry, logger); err != nil {
			notifyAsync(func() { notifier.NotifyPluginError(err) })
		}

		configWatcher, err = daemon.NewConfigWatcher(configPath, logger)
		if err != nil {
			logger.Warn("failed to create config watcher", "error", err)
		}

		moduleHost, err = host.New(host.Options{
			Config:   cfg,
			Registry: registry,
			App:      island,
			Schedule: schedule,
			Chime:    audioManager,
			Logger:   logger,
			Reload: func() error {
				if configWatcher == nil {
					return fmt.Errorf("config watcher unavailable")
				}
				_, err := configWatcher.Reload()
				return err
			},
			Inspector: func() { island.SetInspector(true) },
			ModuleFailed: func(name string, err error) {
				notifyAsync(func() { notifier.NotifyModuleFailed(name, err) })
			},
		})
		if err != nil {
			logger.Error("failed to create module host", "error", err)
			app.Quit()
			return
		}
		if err := moduleHost.Start(ctx); err != nil {
			logger.Error("failed to start module host", "error", err)
			app.Quit()
			return
		}

		island.SetScrollCallback(func(direction int) {
			moduleHost.Layout().CycleFocus(direction)
		})
		island.SetClickCallback(func(w *widget.ActivityWidget, button uint) {
			handleClick(moduleHost, w, button, logger)
		})
		island.Present()

		socket := cfg.IPC.Socket
		if socket == "" {
			socket = ipc.DefaultSocketPath()
		}
		ipcServer = ipc.NewServer(config.ExpandPath(socket), moduleHost.HandleRequest, logger)
		ipcServer.SetKillCallback(func() { schedule(app.Quit) })
		if err := ipcServer.Start(); err != nil {
			logger.Error("failed to start ipc server", "error", err)
			app.Quit()
			return
		}

		if configWatcher != nil {
			configWatcher.SetReloadCallback(func(newConfig *config.DaemonConfig) {
				schedule(func() {
					if !running.Load() {
						return
					}
					island.UpdateConfig(newConfig)
					audioManager.UpdateConfig(newConfig.Audio)

					if newConfig.Theme.Name != cfg.Theme.Name {
						if err := themeLoader.LoadTheme(newConfig.Theme.Name); err != nil {
							logger.Warn("failed to load new theme", "theme", newConfig.Theme.Name, "error", err)
							notifyAsync(func() { notifier.NotifyThemeError(err) })
						} else {
							themeLoader.Apply(nil)
							themeLoader.StartHotReload(schedule)
						}
					}

					moduleHost.Reload(newConfig)
					cfg = newConfig
					notifyAsync(notifier.NotifyConfigReloaded)
				})
			})
			configWatcher.SetErrorCallback(func(err error) {
				notifyAsync(func() { notifier.NotifyConfigError(err) })
			})
			if err := configWatcher.Start(cfg); err != nil {
				logger.Warn("failed to start config watcher", "error", err)
			}
		}

		logger.Info("isled ready", "socket", ipcServer.Path(), "layout", cfg.Island.LayoutManager)
	})

	app.ConnectShutdown(func() {
		logger.Info("application shutting down")
		shutdown()
	})

	status := app.Run(os.Args[:1])
	cancel()

	if status != 0 {
		logger.Error("application exited with error", "status", status)
		return status
	}

	logger.Info("isled stopped")
	return 0
}

// handleClick maps pointer buttons on an activity to display modes: the
// primary button toggles between compact and expanded, the secondary one
// opens the overlay.
func handleClick(h *host.Host, w *widget.ActivityWidget, button uint, logger *slog.Logger) {
	id, err := model.ParseIdentifier(w.Name())
	if err != nil {
		logger.Debug("click on unnamed widget", "name", w.Name())
		return
	}

	var mode widget.Mode
	switch button {
	case 1:
		mode = widget.ModeExpanded
		if w.Mode() >= widget.ModeExpanded {
			mode = widget.ModeCompact
		}
	case 3:
		mode = widget.ModeOverlay
	default:
		return
	}

	if err := h.Notify(id, mode, 0); err != nil {
		logger.Warn("failed to change activity mode", "activity", id, "mode", mode, "error", err)
	}
}
