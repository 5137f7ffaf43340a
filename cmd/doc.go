// Package cmd implements the command-line interface for routeipc. It provides
// a hierarchical command structure with operations for running a standalone
// IPC server and invoking routes on it as a client.
//
// The package is organized into several subpackages:
//
//   - serve: Commands for starting and configuring a standalone IPC server
//     with built-in diagnostic routes
//   - call: Commands for invoking routes on a running server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See routeipc -help for a list of all commands.
package cmd
