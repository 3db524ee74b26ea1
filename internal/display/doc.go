// Package display is the GTK4 side of the island: a layer-shell window
// holding one surface per activity widget, and the label and slot adapters
// modules build their mode content from.
//
// Everything in this package must run on the GTK main thread.
package display
