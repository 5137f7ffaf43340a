package base

import (
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/routeipc/ipc/common"
	"github.com/ValentinKolb/routeipc/ipc/transport"
)

// -----------------------------------------------------------
// Interface Definitions for dependency injection
// -----------------------------------------------------------

// IServerConnector defines the interface for transport-specific server operations
type IServerConnector interface {
	// Listen creates a listener and returns it
	Listen(config common.ServerConfig) (net.Listener, error)

	// GetName returns the name of the transport type (e.g., "unix", "tcp")
	GetName() string

	// UpgradeConnection applies protocol-specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.ServerConfig) error
}

// -----------------------------------------------------------
// Helper Types
// -----------------------------------------------------------

// serverTransport implements the core server transport functionality
type serverTransport struct {
	connector  IServerConnector
	handler    transport.ServerHandleFunc
	config     common.ServerConfig
	listener   net.Listener
	bufferPool *sync.Pool
	bufferSize int
	closed     atomic.Bool
}

// -----------------------------------------------------------
// Transport Factory Method (used for tcp, unix, etc.)
// -----------------------------------------------------------

// NewBaseServerTransport creates a new base server transport with the given
// read buffer size per connection
func NewBaseServerTransport(connector IServerConnector, bufferSize int) transport.IServerTransport {
	return &serverTransport{
		connector:  connector,
		bufferSize: bufferSize,
		bufferPool: &sync.Pool{
			New: func() interface{} {
				return make([]byte, bufferSize)
			},
		},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerTransport)
// --------------------------------------------------------------------------

func (t *serverTransport) RegisterHandler(handler transport.ServerHandleFunc) {
	t.handler = handler
}

func (t *serverTransport) Listen(config common.ServerConfig) error {
	t.config = config

	if t.handler == nil {
		return fmt.Errorf("no handler registered")
	}

	// Create listener using the connector
	listener, err := t.connector.Listen(config)
	if err != nil {
		return fmt.Errorf("failed to create listener: %v", err)
	}
	t.listener = listener

	Logger.Infof("Starting %s server on %s", t.connector.GetName(), config.Transport.Endpoint)

	// Accept connections
	for {
		conn, err := listener.Accept()
		if err != nil {
			// Case shutdown: Close was called, leave the accept loop
			if t.closed.Load() {
				Logger.Infof("Listener closed, stopping accept loop")
				return nil
			}
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		// Apply transport specific connection settings
		if err := t.connector.UpgradeConnection(conn, config); err != nil {
			Logger.Errorf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
			conn.Close()
			continue
		}

		// Handle the connection in a goroutine
		go t.handleConnection(conn)
	}
}

func (t *serverTransport) Close() error {
	t.closed.Store(true)
	if t.listener != nil {
		return t.listener.Close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// handleConnection processes the requests of one connection, strictly one at
// a time: read a frame, invoke the handler, write the response, repeat. The
// next frame is not read before the current response has been written, which
// gives every connection the one-outstanding-request discipline the protocol
// requires. Concurrency across different connections is unrestricted.
func (t *serverTransport) handleConnection(conn net.Conn) {
	defer conn.Close()

	sess := transport.NewSession(conn.RemoteAddr().String())
	Logger.Debugf("New connection from %s", sess.RemoteAddr())

	// Write timeout in seconds (reads block indefinitely: an idle persistent
	// connection is the normal state between requests)
	timeout := time.Duration(t.config.TimeoutSecond) * time.Second

	for {
		// Get a buffer from the pool
		buf := t.bufferPool.Get().([]byte)

		// Read the next request frame
		requestID, data, err := readFrame(conn, buf)

		// Case EOF: Connection closed by client
		if err == io.EOF {
			t.bufferPool.Put(buf)
			Logger.Infof("Connection closed by client %s", sess.RemoteAddr())
			return
		}

		// Case error: frame violation or broken transport, close connection
		if err != nil {
			t.bufferPool.Put(buf)
			Logger.Errorf("Error reading frame from %s: %v", sess.RemoteAddr(), err)
			return
		}

		// Process the request. The handler may run host logic of arbitrary
		// duration; this connection simply waits for it.
		start := time.Now()
		resp := t.handler(sess, data)
		Logger.Debugf("Processed request %d from %s took %s", requestID, sess.RemoteAddr(), time.Since(start))

		t.bufferPool.Put(buf)

		if timeout > 0 {
			if err := conn.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
				Logger.Errorf("Failed to set write deadline: %v", err)
				return
			}
		}

		// Write the response with the same requestID. If the client is gone
		// by now the write fails; the error is logged and swallowed, only
		// this connection is affected.
		if err := writeFrame(conn, requestID, resp); err != nil {
			Logger.Errorf("Failed to write response to %s: %v", sess.RemoteAddr(), err)
			return
		}

		// Case teardown requested (e.g. failed handshake): close after reply
		if sess.Closing() {
			Logger.Debugf("Closing connection to %s", sess.RemoteAddr())
			return
		}
	}
}
