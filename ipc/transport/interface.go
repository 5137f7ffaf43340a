package transport

import (
	"github.com/ValentinKolb/routeipc/ipc/common"
)

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// ServerHandleFunc is a function type that handles incoming requests.
// It is called by a server transport layer once per received frame with the
// connection's session and the raw request payload, and returns the raw
// response payload. Frames on one connection are handed to the handler
// strictly one at a time, in arrival order; the transport writes the
// response before reading the next frame.
//
// The handler may mark the session for closing (sess.Close()), in which case
// the transport tears the connection down after writing the response.
type ServerHandleFunc func(sess *Session, req []byte) (resp []byte)

// IServerTransport is the interface for the server side of the IPC
// transport layer.
type IServerTransport interface {
	// RegisterHandler registers a handler for the transport layer
	// This handler is called whenever a request frame is received
	RegisterHandler(handler ServerHandleFunc)
	// Listen starts the transport layer and listens for incoming
	// connections. It blocks until Close is called or the listener fails.
	Listen(config common.ServerConfig) error
	// Close stops the accept loop and closes the listener. Established
	// connections finish their in-flight request and terminate on the next
	// read.
	Close() error
}

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IClientTransport is the interface for the client side of the IPC
// transport layer. A client transport maintains at most one connection;
// re-establishing after a failure is triggered by calling Connect again.
type IClientTransport interface {
	// Connect establishes the connection with the given configuration,
	// replacing any previous connection
	Connect(config common.ClientConfig) error
	// Send sends a request frame to the server and returns the correlated
	// response frame. A lost connection fails the request with an error
	// wrapping common.ErrTransport
	Send(req []byte) (resp []byte, err error)
	// Close closes the transport connection
	Close() error
}
