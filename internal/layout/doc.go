// Package layout provides the built-in layout managers.
//
// The carousel places activities in a row, shows the focused one in its
// focused mode and the rest in their resting mode, and temporarily raises
// activities that ask for attention. Activities named in the order
// setting are kept at the front in that order.
package layout
