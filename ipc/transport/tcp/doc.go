// Package tcp provides the TCP implementation of the IPC transport layer.
// It contains thin connectors that are injected into the base transport,
// plus the TCP specific connection tuning (no-delay, keep-alive, linger,
// socket buffer sizes) driven by the transport configuration.
package tcp
