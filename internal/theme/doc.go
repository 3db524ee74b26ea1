// Package theme resolves isle stylesheets and loads them into GTK.
//
// Themes are looked up in ~/.config/isle/themes/ before the bundled set, so
// a user file named like a bundled theme overrides it. @import rules are
// inlined before the CSS reaches GTK.
package theme
