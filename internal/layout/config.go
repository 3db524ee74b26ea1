package layout

import (
	"fmt"
	"slices"

	"github.com/jmylchreest/isle/internal/config"
	"github.com/jmylchreest/isle/internal/model"
	"github.com/jmylchreest/isle/internal/widget"
)

// CarouselName is the registry name of the carousel layout manager.
const CarouselName = "carousel"

// Config is the [layout.carousel] section.
type Config struct {
	FocusedMode string   `toml:"focused_mode"` // Mode of the focused activity
	RestingMode string   `toml:"resting_mode"` // Mode of every other activity
	Wrap        bool     `toml:"wrap"`         // Focus cycling wraps around the ends
	Order       []string `toml:"order"`        // activity@module ids placed first, in this order
}

// DefaultConfig returns the carousel defaults.
func DefaultConfig() Config {
	return Config{
		FocusedMode: widget.ModeCompact.String(),
		RestingMode: widget.ModeMinimal.String(),
		Wrap:        true,
	}
}

// modes resolves the configured mode names.
func (c Config) modes() (focused, resting widget.Mode, err error) {
	focused, err = widget.ParseModeName(c.FocusedMode)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: focused_mode: %v", model.ErrConfigParse, err)
	}
	resting, err = widget.ParseModeName(c.RestingMode)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: resting_mode: %v", model.ErrConfigParse, err)
	}
	return focused, resting, nil
}

// parseConfig decodes blob over a copy of current.
func parseConfig(current Config, blob []byte) (Config, error) {
	next := current
	next.Order = slices.Clone(current.Order)
	if err := config.DecodeBlob(blob, &next); err != nil {
		return current, err
	}
	if _, _, err := next.modes(); err != nil {
		return current, err
	}
	if _, err := next.order(); err != nil {
		return current, err
	}
	return next, nil
}

// order parses the configured activity order.
func (c Config) order() ([]model.Identifier, error) {
	ids := make([]model.Identifier, 0, len(c.Order))
	for _, s := range c.Order {
		id, err := model.ParseIdentifier(s)
		if err != nil {
			return nil, fmt.Errorf("%w: order: %v", model.ErrConfigParse, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
