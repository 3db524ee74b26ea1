// Package host wires modules and the layout manager together. It owns the
// command and property update queues, the handle table and module
// lifecycle, and answers control requests from the IPC server.
//
// Unless noted otherwise, Host methods must be called on the UI thread.
package host
