// Package ipc provides an authenticated request/response IPC layer that
// lets an external process invoke named routes registered inside a
// long-running host process over a persistent socket connection.
//
// The package is organized into several subpackages:
//
//   - common: Core data structures and utilities used across the IPC system,
//     including the Message/Response envelopes, the error taxonomy,
//     configuration structures, and logging.
//
//   - transport: Network communication abstractions with pluggable
//     implementations (TCP, Unix sockets) and frame-level request
//     correlation.
//
//   - serializer: Envelope serialization with multiple format options
//     (JSON, GOB) for converting between envelopes and byte arrays.
//
//   - registry: The route registry mapping route names to the handler
//     callables supplied by the host application.
//
//   - server: The server endpoint that runs inside the host process,
//     handling authentication, dispatch and multicast fan-out.
//
//   - client: The client endpoint for external processes, handling the
//     handshake, single-flight requests and reconnection.
package ipc
