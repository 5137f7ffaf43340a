// Package registry provides the route registry of the IPC layer. It maps
// route names to the handler callables supplied by the host application.
//
// The package focuses on:
//   - Name-based handler registration with duplicate detection
//   - Lookup for request dispatch (Resolve)
//   - Enumeration of multicast routes for fan-out dispatch
//
// Key Components:
//
//   - HandlerFunc: The handler contract. A handler receives a Context with
//     the request payload and connection metadata and returns a serializable
//     result or an error.
//
//   - Registry: The name -> route mapping. Populated single-threaded at
//     process startup, read-only afterwards and therefore safely shared by
//     all connections without locking.
//
// Thread Safety:
//
//	Registration is NOT synchronized and must complete before the server is
//	started. All read methods are safe for concurrent use once registration
//	is done.
package registry
