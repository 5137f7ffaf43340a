// Package common provides core data structures and utilities shared across
// the IPC layer. It defines the wire envelopes, the error taxonomy,
// configuration structures, and the logging setup used by other packages.
//
// The package focuses on:
//   - The Message/Response envelope protocol between client and server
//   - Typed protocol errors and their wire code mapping
//   - Configuration structures for client and server components
//   - Custom logging built on named loggers
//
// Key Components:
//
//   - Message: The request envelope. Endpoint names the route, Headers carry
//     protocol metadata (secret key, multicast flag), Data is an opaque
//     key-value payload owned by the host application's handlers.
//
//   - Response: The reply envelope. Code discriminates success from the
//     defined failure kinds; on success Response holds the handler result,
//     otherwise Error holds a short description.
//
//   - Error taxonomy: Sentinel errors (ErrAuthenticationFailed,
//     ErrRouteNotFound, ErrMalformedPayload, ErrHandlerError, ErrTransport,
//     ErrDuplicateRoute) usable with errors.Is, plus the CodeFor mapping to
//     wire codes.
//
//   - ServerConfig/ClientConfig: Configuration for the two endpoints,
//     including the nested transport tuning options.
//
//   - Logger: Custom logging implementation providing consistent formatting
//     across the application.
package common
