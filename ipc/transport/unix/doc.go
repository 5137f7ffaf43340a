// Package unix provides the Unix domain socket implementation of the IPC
// transport layer. Unix sockets are the preferred transport when client and
// server run on the same machine (the typical IPC deployment), avoiding the
// TCP stack entirely.
package unix
