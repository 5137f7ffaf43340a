// Package server implements the IPC server endpoint. It runs inside the
// host process (e.g. a bot), accepts persistent connections from client
// endpoints, authenticates each via the shared-secret handshake and
// dispatches incoming requests to the host's registered routes.
//
// Connection lifecycle (per connection):
//
//	CONNECTING -> AUTHENTICATING -> AUTHENTICATED
//	    -> (RECEIVING -> DISPATCHING -> RESPONDING)* -> CLOSED
//
// The first message on a fresh connection is always treated as the
// handshake. A token mismatch is answered with an authentication failure
// response and closes the connection. Once authenticated, requests are
// processed strictly one at a time per connection; per-request failures
// (unknown route, malformed payload, handler error or panic) are answered
// with an error response and never tear the connection down. Transport
// failures close the connection; the client is responsible for reconnecting.
//
// Key Components:
//
//   - NewIPCServer: Factory function creating a configured server from a
//     transport, a serializer and a populated route registry.
//
//   - Server.Serve: Starts listening; blocks until Close is called.
//
// Handler errors are logged with their cause on the server but reported to
// the client only as a generic internal error, so host-internal state never
// leaks across the IPC boundary.
//
// If ServerConfig.MetricsEndpoint is set, the server exposes prometheus
// metrics (request, handshake, error and multicast counters) and pprof on
// that address.
//
// Thread Safety:
//
//	The server handles concurrent connections independently; the only state
//	shared between them is the read-only route registry. The Serve method
//	should be called only once.
package server
