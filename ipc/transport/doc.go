// Package transport defines the interfaces and abstractions for IPC
// communication. It provides a common contract that all transport
// implementations must fulfill, enabling protocol-agnostic communication.
//
// The package focuses on:
//   - Defining clear interfaces for client and server transport layers
//   - Per-connection session state for the authentication handshake
//   - Enabling multiple transport implementations (TCP, Unix sockets)
//
// Key Components:
//
//   - IClientTransport: Interface for client-side transport implementations
//     that handle connection management, request sending and response
//     correlation.
//
//   - IServerTransport: Interface for server-side transport implementations
//     that accept connections and hand received frames to the registered
//     handler, one at a time per connection.
//
//   - Session: Per-connection state (remote address, authenticated flag,
//     close marker) owned by the connection's processing goroutine.
//
//   - ServerHandleFunc: Function type for request handling callbacks.
package transport
