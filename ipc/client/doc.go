// Package client implements the IPC client endpoint. It lets an external
// process (e.g. a web server) invoke named routes registered inside the host
// process over a persistent socket connection.
//
// The package focuses on:
//   - Lazy connection establishment with the authentication handshake
//   - Single-flight request/response exchange (one outstanding request per
//     connection, concurrent callers queue in issue order)
//   - Stale-connection detection with reconnect on the next request
//
// Key Components:
//
//   - Client: The endpoint. Request invokes a route and returns its
//     Response; Notify additionally fans out to the server's multicast
//     routes.
//
// Error Semantics:
//
//	A request that reached a handler always yields a Response, even if the
//	server reports a failure in its Code field. A non-nil error from Request
//	means the request never reached a handler: errors.Is recognizes
//	common.ErrAuthenticationFailed (handshake rejected) and
//	common.ErrTransport (connection lost, refused, or timed out). Neither
//	case is retried automatically, callers decide whether to retry.
//
// Usage Example:
//
//	config := common.ClientConfig{
//		SecretKey:     "my-secret",
//		TimeoutSecond: 10,
//		Transport: common.ClientTransportConfig{
//			Endpoint: "127.0.0.1:1010",
//		},
//	}
//
//	c := client.NewIPCClient(config, tcp.NewTCPClientTransport(), serializer.NewJSONSerializer())
//	defer c.Close()
//
//	resp, err := c.Request("guild_count", nil)
//	if err != nil {
//		// handshake or transport failure
//	}
//	if !resp.Ok() {
//		// the server reported a failure (resp.Err() yields the typed error)
//	}
//
// Thread Safety:
//
//	All methods are safe for concurrent use. Concurrent requests on one
//	client are serialized; use one client per desired in-flight request for
//	parallel throughput.
package client
