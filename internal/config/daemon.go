package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Duration is a time.Duration that can be unmarshaled from human-readable strings.
// Supports formats like "500ms", "5s", "1m", or integer milliseconds.
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML parsing.
func (d *Duration) UnmarshalText(text []byte) error {
	s := string(text)

	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: must be like '500ms', '5s', '1m' or milliseconds: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalText implements encoding.TextMarshaler for TOML output.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Duration returns the underlying time.Duration.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DaemonConfig is the configuration for isled.
// Loaded from ~/.config/isle/isled.toml
type DaemonConfig struct {
	Island  IslandConfig  `toml:"island"`
	Theme   ThemeConfig   `toml:"theme"`
	Audio   AudioConfig   `toml:"audio"`
	IPC     IPCConfig     `toml:"ipc"`
	Plugins PluginsConfig `toml:"plugins"`

	// Modules and Layout hold the raw per-plugin sections, [modules.<name>]
	// and [layout.<name>]. Each plugin decodes its own section.
	Modules map[string]map[string]any `toml:"modules"`
	Layout  map[string]map[string]any `toml:"layout"`
}

// IslandConfig contains the island window and animation settings.
type IslandConfig struct {
	Position           string   `toml:"position"`            // "top-center", "bottom-center", ...
	OffsetX            int      `toml:"offset_x"`            // Pixels from screen edge
	OffsetY            int      `toml:"offset_y"`            // Pixels from screen edge
	Monitor            int      `toml:"monitor"`             // 0 = default, 1+ = specific monitor
	LayoutManager      string   `toml:"layout_manager"`      // Registered layout manager name
	MinimalWidth       int      `toml:"minimal_width"`       // Fallback size of an empty mode slot
	MinimalHeight      int      `toml:"minimal_height"`      // Fallback size of an empty mode slot
	BlurRadius         float64  `toml:"blur_radius"`         // Blur of inactive mode slots
	TransitionDuration Duration `toml:"transition_duration"` // Mode change animation
	Easing             string   `toml:"easing"`              // linear, ease-out-cubic, spring, ...
	AutoMinimize       Duration `toml:"auto_minimize"`       // Return to resting mode after; 0 = never
}

// ThemeConfig contains theme settings.
type ThemeConfig struct {
	Name        string `toml:"name"`         // Theme name without .css extension
	ColorScheme string `toml:"color_scheme"` // "system", "light", or "dark"
}

// ColorScheme represents the color scheme preference.
type ColorScheme string

const (
	ColorSchemeSystem ColorScheme = "system"
	ColorSchemeLight  ColorScheme = "light"
	ColorSchemeDark   ColorScheme = "dark"
)

// ValidColorSchemes returns all valid color scheme values.
func ValidColorSchemes() []ColorScheme {
	return []ColorScheme{ColorSchemeSystem, ColorSchemeLight, ColorSchemeDark}
}

// AudioConfig contains attention chime settings.
type AudioConfig struct {
	Enabled bool   `toml:"enabled"`
	Volume  int    `toml:"volume"` // 0-100
	Sound   string `toml:"sound"`  // Sound file; empty = built-in chime
}

// IPCConfig contains control socket settings.
type IPCConfig struct {
	Socket string `toml:"socket"` // Empty = $XDG_RUNTIME_DIR/isle/isle.sock
}

// PluginsConfig selects which modules run.
type PluginsConfig struct {
	Dir     string   `toml:"dir"`     // Directory of .so plugins; empty = none
	Enabled []string `toml:"enabled"` // Module names to start; empty = all registered
}

// Position represents where the island sits on screen.
type Position string

const (
	PositionTopLeft      Position = "top-left"
	PositionTopCenter    Position = "top-center"
	PositionTopRight     Position = "top-right"
	PositionBottomLeft   Position = "bottom-left"
	PositionBottomCenter Position = "bottom-center"
	PositionBottomRight  Position = "bottom-right"
)

// ValidPositions returns all valid position values.
func ValidPositions() []Position {
	return []Position{
		PositionTopLeft,
		PositionTopCenter,
		PositionTopRight,
		PositionBottomLeft,
		PositionBottomCenter,
		PositionBottomRight,
	}
}

// DefaultDaemonConfig returns a new DaemonConfig with default values.
func DefaultDaemonConfig() *DaemonConfig {
	return &DaemonConfig{
		Island: IslandConfig{
			Position:           string(PositionTopCenter),
			OffsetX:            0,
			OffsetY:            8,
			Monitor:            0,
			LayoutManager:      "carousel",
			MinimalWidth:       40,
			MinimalHeight:      40,
			BlurRadius:         6,
			TransitionDuration: Duration(500 * time.Millisecond),
			Easing:             "ease-out-cubic",
			AutoMinimize:       Duration(5 * time.Second),
		},
		Theme: ThemeConfig{
			Name:        "default",
			ColorScheme: string(ColorSchemeSystem),
		},
		Audio: AudioConfig{
			Enabled: true,
			Volume:  60,
		},
		Plugins: PluginsConfig{
			Dir: pluginDir(),
		},
		Modules: make(map[string]map[string]any),
		Layout:  make(map[string]map[string]any),
	}
}

func pluginDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, "isle", "plugins")
}

// DaemonConfigPath returns the path to the daemon config file.
func DaemonConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "isle", "isled.toml"), nil
}

// LoadDaemonConfig reads path, or DaemonConfigPath when path is empty, over
// the defaults. A missing file yields the defaults.
func LoadDaemonConfig(path string) (*DaemonConfig, error) {
	if path == "" {
		p, err := DaemonConfigPath()
		if err != nil {
			return nil, fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return DefaultDaemonConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultDaemonConfig()
	if err := toml.Unmarshal(data, cfg); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			row, col := derr.Position()
			return nil, fmt.Errorf("failed to parse %s:%d:%d: %w", path, row, col, err)
		}
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadDaemonConfigOrDefault loads path like LoadDaemonConfig, but a file
// that can't be read, parsed or validated yields the defaults together with
// the error. The returned config is never nil.
func LoadDaemonConfigOrDefault(path string) (*DaemonConfig, error) {
	cfg, err := LoadDaemonConfig(path)
	if err != nil {
		return DefaultDaemonConfig(), err
	}
	return cfg, nil
}

// SaveDaemonConfig writes cfg to path through a temporary file in the same
// directory.
func SaveDaemonConfig(path string, cfg *DaemonConfig) error {
	if path == "" {
		p, err := DaemonConfigPath()
		if err != nil {
			return fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".isled-*.toml")
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace config file: %w", err)
	}
	return nil
}

// Validate reports every invalid setting in c.
func (c *DaemonConfig) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	is := c.Island
	check(slices.Contains(ValidPositions(), Position(is.Position)),
		"invalid position %q, must be one of %v", is.Position, ValidPositions())
	check(is.MinimalWidth >= 1 && is.MinimalWidth <= 1000,
		"minimal_width must be between 1 and 1000, got %d", is.MinimalWidth)
	check(is.MinimalHeight >= 1 && is.MinimalHeight <= 1000,
		"minimal_height must be between 1 and 1000, got %d", is.MinimalHeight)
	check(is.BlurRadius >= 0, "blur_radius must not be negative, got %v", is.BlurRadius)
	check(is.TransitionDuration >= 0, "transition_duration must not be negative")
	check(is.AutoMinimize >= 0, "auto_minimize must not be negative")
	check(is.LayoutManager != "", "layout_manager must be set")

	check(slices.Contains(ValidColorSchemes(), ColorScheme(c.Theme.ColorScheme)),
		"invalid color_scheme %q, must be one of %v", c.Theme.ColorScheme, ValidColorSchemes())
	check(c.Audio.Volume >= 0 && c.Audio.Volume <= 100,
		"volume must be between 0 and 100, got %d", c.Audio.Volume)

	return errors.Join(errs...)
}

// ModuleEnabled reports whether the module called name should be started.
func (c *DaemonConfig) ModuleEnabled(name string) bool {
	return len(c.Plugins.Enabled) == 0 || slices.Contains(c.Plugins.Enabled, name)
}

// ModuleBlob returns the [modules.<name>] section re-encoded as TOML. A
// missing section yields an empty blob.
func (c *DaemonConfig) ModuleBlob(name string) ([]byte, error) {
	return sectionBlob(c.Modules, name)
}

// LayoutBlob returns the [layout.<name>] section re-encoded as TOML.
func (c *DaemonConfig) LayoutBlob(name string) ([]byte, error) {
	return sectionBlob(c.Layout, name)
}

func sectionBlob(sections map[string]map[string]any, name string) ([]byte, error) {
	section, ok := sections[name]
	if !ok || len(section) == 0 {
		return nil, nil
	}
	data, err := toml.Marshal(section)
	if err != nil {
		return nil, fmt.Errorf("failed to encode section %q: %w", name, err)
	}
	return data, nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
