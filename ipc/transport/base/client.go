package base

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/routeipc/ipc/common"
	"github.com/ValentinKolb/routeipc/ipc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("transport/ipc")

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IClientConnector defines the interface for transport-specific connection operations
type IClientConnector interface {
	// Connect establishes a single connection to the given endpoint
	Connect(endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.ClientConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// responseResult contains the result of a request
type responseResult struct {
	data []byte
	err  error
}

// clientConnection represents a single live connection. A new instance is
// created for every (re)connect; once dead it is never revived.
type clientConnection struct {
	conn    net.Conn
	writeMu sync.Mutex // serializes frame writes
	pending *xsync.MapOf[uint64, chan responseResult]
	dead    atomic.Bool
}

// clientTransport implements the core client transport functionality
// independent of the specific transport medium (unix, tcp, etc.).
// It maintains at most one connection: reconnecting is an explicit decision
// of the endpoint above (via Connect), never an automatic retry.
type clientTransport struct {
	connector     IClientConnector
	config        common.ClientConfig
	mu            sync.Mutex // protects current
	current       *clientConnection
	nextRequestID uint64 // Atomic counter for unique request IDs
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseClientTransport creates a new base client transport with the specified connector
func NewBaseClientTransport(connector IClientConnector) transport.IClientTransport {
	return &clientTransport{
		connector:     connector,
		nextRequestID: 1, // Start from 1
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientTransport)
// --------------------------------------------------------------------------

func (t *clientTransport) Connect(config common.ClientConfig) error {
	if config.Transport.Endpoint == "" {
		return fmt.Errorf("no endpoint provided")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	// Store the config
	t.config = config

	// Discard a previous connection (fails its pending requests)
	if t.current != nil {
		t.current.fail(fmt.Errorf("%w: connection replaced", common.ErrTransport))
		t.current = nil
	}

	// Establish the connection
	conn, err := t.connector.Connect(config.Transport.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: failed to connect to %s: %v", common.ErrTransport, config.Transport.Endpoint, err)
	}

	// Upgrade the connection with protocol-specific settings
	if err := t.connector.UpgradeConnection(conn, config); err != nil {
		conn.Close()
		return fmt.Errorf("%w: failed to upgrade connection to %s: %v", common.ErrTransport, config.Transport.Endpoint, err)
	}

	clientConn := &clientConnection{
		conn:    conn,
		pending: xsync.NewMapOf[uint64, chan responseResult](),
	}
	t.current = clientConn

	Logger.Infof("Connected to %s using %s transport", config.Transport.Endpoint, t.connector.GetName())

	// Start the response reader
	go clientConn.readResponses()

	return nil
}

func (t *clientTransport) Send(req []byte) (resp []byte, err error) {
	t.mu.Lock()
	connection := t.current
	t.mu.Unlock()

	if connection == nil || connection.dead.Load() {
		return nil, fmt.Errorf("%w: not connected", common.ErrTransport)
	}

	// Generate a unique request ID
	requestID := atomic.AddUint64(&t.nextRequestID, 1)

	// Create a channel for the response
	respCh := make(chan responseResult, 1)

	// Register the request
	connection.pending.Store(requestID, respCh)

	// Ensure we clean up when done
	defer connection.pending.Delete(requestID)

	// Set write timeout
	if t.config.TimeoutSecond > 0 {
		timeout := time.Duration(t.config.TimeoutSecond) * time.Second
		connection.conn.SetWriteDeadline(time.Now().Add(timeout))
	}

	// Lock the connection only for writing
	connection.writeMu.Lock()
	err = writeFrame(connection.conn, requestID, req)
	connection.writeMu.Unlock()

	if err != nil {
		connection.fail(fmt.Errorf("%w: %v", common.ErrTransport, err))
		return nil, fmt.Errorf("%w: failed to write request: %v", common.ErrTransport, err)
	}

	// Wait for response or timeout
	var timeoutCh <-chan time.Time
	if t.config.TimeoutSecond > 0 {
		timeout := time.Duration(t.config.TimeoutSecond) * time.Second
		timeoutCh = time.After(timeout)
	} else {
		timeoutCh = make(chan time.Time) // Never triggers
	}

	select {
	case result := <-respCh:
		return result.data, result.err
	case <-timeoutCh:
		// A timed-out request leaves the connection's request/response
		// pairing in an unknown state, treat it as a transport failure so
		// the endpoint above re-establishes the connection.
		connection.fail(fmt.Errorf("%w: request timed out", common.ErrTransport))
		return nil, fmt.Errorf("%w: request timed out", common.ErrTransport)
	}
}

func (t *clientTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.current != nil {
		t.current.fail(fmt.Errorf("%w: connection closed", common.ErrTransport))
		t.current = nil
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// readResponses reads response frames in a loop and distributes them to
// waiting requests. It exits when the connection dies; the transport above
// decides if and when to reconnect.
func (c *clientConnection) readResponses() {
	for {
		// Read the next response frame
		requestID, data, err := readFrame(c.conn, nil)

		// Case broken or closed connection: fail all pending requests
		if err != nil {
			if !c.dead.Load() {
				Logger.Warningf("Connection lost: %v", err)
			}
			c.fail(fmt.Errorf("%w: connection lost: %v", common.ErrTransport, err))
			return
		}

		// Find the corresponding request channel
		respCh, found := c.pending.LoadAndDelete(requestID)
		if !found {
			// Response for a request nobody waits for anymore (e.g. one that
			// timed out), drop it
			Logger.Warningf("Received response for unknown request ID %d", requestID)
			continue
		}

		// Send the response to the waiting request
		respCh <- responseResult{data, nil}
	}
}

// fail marks the connection dead, closes it and fails all pending requests
// with the given error. Safe to call multiple times, only the first call has
// an effect.
func (c *clientConnection) fail(err error) {
	if !c.dead.CompareAndSwap(false, true) {
		return
	}

	c.conn.Close()

	c.pending.Range(func(requestID uint64, respCh chan responseResult) bool {
		if _, loaded := c.pending.LoadAndDelete(requestID); loaded {
			respCh <- responseResult{nil, err}
		}
		return true
	})
}
