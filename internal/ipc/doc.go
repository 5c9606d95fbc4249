// Package ipc carries the control protocol between the CLI and the
// daemon: JSON-RPC over a Unix domain socket. The wire types here are
// the compatibility surface; session internals never cross the socket.
package ipc
