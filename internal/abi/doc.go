// Package abi defines the boundary between the host and its plugins:
// the Module and LayoutManager contracts, the commands modules send to the
// host, the handle table that carries UI objects across the boundary and the
// registry of plugin constructors.
//
// Widget and application objects never cross the boundary as typed values.
// They are registered in a Handles table and passed as opaque Handle values;
// every conversion back goes through Resolve, which checks the handle is
// live, of the expected kind and of the expected dynamic type.
package abi
