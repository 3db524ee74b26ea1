package theme

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/diamondburned/gotk4/pkg/gdk/v4"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/isle/internal/daemon"
)

// Loader owns the application CSS provider and keeps it in sync with the
// selected theme.
type Loader struct {
	mu       sync.Mutex
	logger   *slog.Logger
	resolver *Resolver
	provider *gtk.CSSProvider
	current  *Theme
	watchers []*daemon.FileWatcher
}

// NewLoader creates a loader over the user theme directory.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	dir, err := UserDir()
	if err != nil {
		logger.Warn("no user theme directory, using bundled themes only", "error", err)
	}
	return &Loader{
		logger:   logger,
		resolver: NewResolver(dir),
		provider: gtk.NewCSSProvider(),
	}
}

// LoadTheme resolves name and loads it into the provider. When name can't
// be resolved the loaded theme is kept, or the bundled default is loaded if
// there is none yet, and the error is returned.
func (l *Loader) LoadTheme(name string) error {
	t, err := l.resolver.Resolve(name)
	if err != nil {
		l.mu.Lock()
		empty := l.current == nil
		l.mu.Unlock()
		if empty {
			l.logger.Warn("theme unavailable, loading default", "theme", name, "available", strings.Join(l.resolver.Names(), ","))
			if fallback, derr := l.resolver.Resolve(DefaultName); derr == nil {
				l.load(fallback)
			}
		}
		return err
	}
	l.load(t)
	return nil
}

func (l *Loader) load(t *Theme) {
	for _, p := range t.Problems {
		l.logger.Warn("theme import problem", "theme", t.Name, "problem", p)
	}
	l.mu.Lock()
	l.current = t
	l.provider.LoadFromString(t.CSS)
	l.mu.Unlock()
	l.logger.Info("theme loaded", "name", t.Name, "bundled", t.Bundled)
}

// Current returns the loaded theme, or nil.
func (l *Loader) Current() *Theme {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current
}

// Apply attaches the provider to display, or to the default display when
// display is nil. Call it once GTK is up.
func (l *Loader) Apply(display *gdk.Display) {
	if display == nil {
		display = gdk.DisplayGetDefault()
	}
	if display == nil {
		l.logger.Warn("no display available, theme not applied")
		return
	}
	gtk.StyleContextAddProviderForDisplay(display, l.provider, gtk.STYLE_PROVIDER_PRIORITY_APPLICATION)
}

// StartHotReload watches the files of the loaded user theme and reloads the
// provider when the resolved CSS changes. schedule runs the provider update
// on the GTK main thread. Bundled themes are not watched.
func (l *Loader) StartHotReload(schedule func(func())) {
	l.StopHotReload()

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.current == nil || l.current.Bundled {
		return
	}

	name := l.current.Name
	for _, file := range l.current.Files {
		w := daemon.NewFileWatcher(file, l.logger)
		w.SetChangeCallback(func() { l.refresh(name, schedule) })
		if err := w.Start(); err != nil {
			l.logger.Warn("failed to watch theme file", "path", file, "error", err)
			continue
		}
		l.watchers = append(l.watchers, w)
	}
	l.logger.Debug("theme hot-reload started", "name", name, "files", len(l.watchers))
}

// StopHotReload stops watching theme files.
func (l *Loader) StopHotReload() {
	l.mu.Lock()
	watchers := l.watchers
	l.watchers = nil
	l.mu.Unlock()
	for _, w := range watchers {
		w.Stop()
	}
}

// refresh runs on a watcher goroutine.
func (l *Loader) refresh(name string, schedule func(func())) {
	t, err := l.resolver.Resolve(name)
	if err != nil {
		l.logger.Warn("failed to reload theme", "theme", name, "error", err)
		return
	}
	l.mu.Lock()
	stale := l.current == nil || l.current.Name != name
	same := !stale && l.current.CSS == t.CSS
	l.mu.Unlock()
	if stale || same {
		return
	}
	schedule(func() {
		if c := l.Current(); c == nil || c.Name != name {
			return
		}
		l.load(t)
		l.logger.Info("theme hot-reloaded", "name", name)
	})
}
