package display

import (
	layershell "github.com/diamondburned/gotk4-layer-shell/pkg/gtk4layershell"
	"github.com/diamondburned/gotk4/pkg/gtk/v4"

	"github.com/jmylchreest/isle/internal/config"
)

// edges is a set of screen edges.
type edges struct {
	Top, Bottom, Left, Right bool
}

// placement is where the island window is anchored and the margins applied
// on the anchored edges.
type placement struct {
	Anchor           edges
	MarginX, MarginY int
}

// placementFor computes the layer-shell anchoring for pos. Unknown positions
// fall back to top-center.
func placementFor(pos config.Position, offsetX, offsetY int) placement {
	p := placement{MarginX: offsetX, MarginY: offsetY}
	switch pos {
	case config.PositionTopLeft:
		p.Anchor = edges{Top: true, Left: true}
	case config.PositionTopRight:
		p.Anchor = edges{Top: true, Right: true}
	case config.PositionBottomLeft:
		p.Anchor = edges{Bottom: true, Left: true}
	case config.PositionBottomRight:
		p.Anchor = edges{Bottom: true, Right: true}
	case config.PositionBottomCenter:
		p.Anchor = edges{Bottom: true}
		p.MarginX = 0
	default:
		p.Anchor = edges{Top: true}
		p.MarginX = 0
	}
	return p
}

// isBottom reports whether the island sits on the bottom edge.
func (p placement) isBottom() bool {
	return p.Anchor.Bottom
}

// apply resets and sets the layer-shell anchors and margins of window.
func (p placement) apply(window *gtk.Window) {
	layershell.SetAnchor(window, layershell.LayerShellEdgeTop, p.Anchor.Top)
	layershell.SetAnchor(window, layershell.LayerShellEdgeBottom, p.Anchor.Bottom)
	layershell.SetAnchor(window, layershell.LayerShellEdgeLeft, p.Anchor.Left)
	layershell.SetAnchor(window, layershell.LayerShellEdgeRight, p.Anchor.Right)

	vertical := layershell.LayerShellEdgeTop
	if p.Anchor.Bottom {
		vertical = layershell.LayerShellEdgeBottom
	}
	layershell.SetMargin(window, vertical, p.MarginY)

	if p.Anchor.Left {
		layershell.SetMargin(window, layershell.LayerShellEdgeLeft, p.MarginX)
	}
	if p.Anchor.Right {
		layershell.SetMargin(window, layershell.LayerShellEdgeRight, p.MarginX)
	}
}
