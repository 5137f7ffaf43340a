package client

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ValentinKolb/routeipc/ipc/common"
	"github.com/ValentinKolb/routeipc/ipc/serializer"
	"github.com/ValentinKolb/routeipc/ipc/transport"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("ipc")

// Client is the IPC client endpoint. It holds at most one connection to one
// server and enforces the protocol's single-flight discipline: concurrent
// callers sharing this client queue behind each other in issue order.
// Callers needing concurrent throughput use multiple clients.
//
// The connection is established lazily on the first request and
// re-established (including a fresh handshake) on the first request after a
// transport failure. A failed request is never retried automatically.
type Client struct {
	config     common.ClientConfig
	transport  transport.IClientTransport
	serializer serializer.ISerializer

	mu        sync.Mutex // single-flight: one outstanding request at a time
	connected bool
}

// NewIPCClient creates a new IPC client
// It takes a config, transport and serializer as parameters. No connection
// is established until the first request.
//
// Usage:
//
//	c := client.NewIPCClient(
//		config,
//		tcp.NewTCPClientTransport(),
//		serializer.NewJSONSerializer(),
//	)
//	defer c.Close()
//
//	resp, err := c.Request("echo", map[string]any{"x": 5})
func NewIPCClient(
	config common.ClientConfig,
	transport transport.IClientTransport,
	serializer serializer.ISerializer,
) *Client {
	return &Client{
		config:     config,
		transport:  transport,
		serializer: serializer,
	}
}

// Request invokes the named route on the server and returns its response.
//
// The returned error is non-nil only when the request never reached a
// handler: handshake failures (wrapping common.ErrAuthenticationFailed) and
// connection failures (wrapping common.ErrTransport). A non-nil Response may
// itself carry an error code reported by the server (route not found,
// handler error, ...); use Response.Ok or Response.Err to check.
func (c *Client) Request(endpoint string, data map[string]any) (*common.Response, error) {
	return c.send(common.NewRequest(endpoint, data))
}

// Notify invokes the named route like Request and additionally fans the
// request out to every multicast route on the server. Only the named route's
// response is returned; the fan-out targets are fire-and-forget.
func (c *Client) Notify(endpoint string, data map[string]any) (*common.Response, error) {
	return c.send(common.NewMulticastRequest(endpoint, data))
}

// Close closes the client's connection. The client may be used again
// afterwards, the next request reconnects.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.connected = false
	return c.transport.Close()
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// send runs one request/response exchange under the single-flight lock,
// establishing the connection first if needed.
func (c *Client) send(msg *common.Message) (*common.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		if err := c.connect(); err != nil {
			return nil, err
		}
	}

	resp, err := c.roundTrip(msg)
	if err != nil {
		// The connection is stale, the next request reconnects
		c.connected = false
		return nil, err
	}
	return resp, nil
}

// connect establishes the transport connection and runs the authentication
// handshake. Must be called with the single-flight lock held.
func (c *Client) connect() error {
	if err := c.transport.Connect(c.config); err != nil {
		return err
	}

	resp, err := c.roundTrip(common.NewHandshake(c.config.SecretKey))
	if err != nil {
		return fmt.Errorf("handshake failed: %w", err)
	}

	if resp.Code == common.CodeAuthenticationFailed {
		// The server closes the connection after rejecting the token, no
		// point in keeping the transport around
		c.transport.Close()
		return fmt.Errorf("%w: %s", common.ErrAuthenticationFailed, resp.Error)
	}
	if !resp.Ok() {
		return fmt.Errorf("handshake failed with code %d: %s", resp.Code, resp.Error)
	}

	c.connected = true
	Logger.Infof("Connected and authenticated to %s", c.config.Transport.Endpoint)
	return nil
}

// roundTrip encodes a request, sends it and decodes the correlated response.
func (c *Client) roundTrip(msg *common.Message) (*common.Response, error) {
	reqBytes, err := c.serializer.EncodeMessage(*msg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	respBytes, err := c.transport.Send(reqBytes)
	if err != nil {
		if !errors.Is(err, common.ErrTransport) {
			err = fmt.Errorf("%w: %v", common.ErrTransport, err)
		}
		return nil, err
	}

	resp := &common.Response{}
	if err := c.serializer.DecodeResponse(respBytes, resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return resp, nil
}
