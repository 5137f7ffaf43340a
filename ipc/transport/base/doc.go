// Package base provides a foundation for transport layers of the IPC
// system, implementing the core connection handling independent of the
// specific network protocol (TCP, Unix sockets, etc.). It serves as a base
// layer that is extended with protocol-specific connectors.
//
// The package focuses on:
//   - Protocol-agnostic client and server transport implementations
//   - Frame-based message protocol with request ID correlation
//   - Strict request/response serialization per server connection
//   - Buffer reuse on the server read path
//
// Key Components:
//
//   - IClientConnector/IServerConnector: Interfaces for protocol-specific
//     operations that allow extending the base transport with different
//     network protocols.
//
//   - clientTransport: Core client implementation maintaining a single
//     persistent connection. Requests are correlated with responses via
//     unique request IDs; a lost connection fails all pending requests with
//     a transport error and stays down until the endpoint above explicitly
//     reconnects.
//
//   - serverTransport: Core server implementation that accepts connections
//     and processes each connection's requests strictly one at a time (read,
//     dispatch, respond, repeat), while handling any number of connections
//     concurrently.
//
// Wire Format:
//
//	Each frame consists of a 12 byte header (8 byte request ID, 4 byte
//	payload length, both big endian) followed by the payload. Header and
//	payload are written with net.Buffers to combine them into a single
//	write operation.
//
// Thread Safety:
//
//	All public methods are thread-safe. The server creates a dedicated
//	goroutine per connection; each connection's state is owned exclusively
//	by that goroutine.
package base
