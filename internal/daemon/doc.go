// Package daemon provides the supporting services of isled: a debounced
// fsnotify watcher for single files, the config watcher built on it that
// validates a changed isled.toml before handing it on, and the notifier
// that reports daemon events as desktop notifications.
package daemon
