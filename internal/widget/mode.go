// Package widget implements the mode-switching activity widget: four child
// slots, one per display mode, laid out on top of each other and cross-faded
// when the mode changes.
package widget

import (
	"fmt"
	"strings"

	"github.com/jmylchreest/isle/internal/model"
)

// Mode is the display mode of an activity.
type Mode int

const (
	ModeMinimal Mode = iota
	ModeCompact
	ModeExpanded
	ModeOverlay

	modeCount = 4
)

// Modes returns all modes in ascending order.
func Modes() []Mode {
	return []Mode{ModeMinimal, ModeCompact, ModeExpanded, ModeOverlay}
}

// String returns the lowercase mode name.
func (m Mode) String() string {
	switch m {
	case ModeMinimal:
		return "minimal"
	case ModeCompact:
		return "compact"
	case ModeExpanded:
		return "expanded"
	case ModeOverlay:
		return "overlay"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Valid reports whether m is one of the four known modes.
func (m Mode) Valid() bool {
	return m >= ModeMinimal && m < modeCount
}

// ParseMode converts the wire integer (0..3) into a Mode.
func ParseMode(n int) (Mode, error) {
	m := Mode(n)
	if !m.Valid() {
		return 0, fmt.Errorf("%w: %d", model.ErrInvalidMode, n)
	}
	return m, nil
}

// ParseModeName converts a mode name (or its number) into a Mode.
func ParseModeName(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range Modes() {
		if m.String() == s {
			return m, nil
		}
	}
	if len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		return ParseMode(int(s[0] - '0'))
	}
	return 0, fmt.Errorf("%w: %q", model.ErrInvalidMode, s)
}
