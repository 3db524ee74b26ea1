// Package ipc implements the local control protocol between the isle CLI and
// the isled daemon.
//
// Messages travel over a unix socket as frames: a 4-byte big-endian length
// followed by a protobuf wire-format body. Each connection carries any number
// of request/response pairs in order.
package ipc
