package transport

// Session is the per-connection state handed to the server's handler. It is
// created when a transport connection is accepted and destroyed when the
// connection closes.
//
// A Session is exclusively owned by its connection's processing goroutine
// (requests on one connection are serialized), so no synchronization is
// needed on its fields.
type Session struct {
	remoteAddr    string
	authenticated bool
	closing       bool
}

// NewSession creates the session for a freshly accepted connection. The
// session starts unauthenticated; the dispatch layer flips it after a
// successful handshake.
func NewSession(remoteAddr string) *Session {
	return &Session{remoteAddr: remoteAddr}
}

// RemoteAddr returns the address of the connected peer.
func (s *Session) RemoteAddr() string { return s.remoteAddr }

// Authenticated reports whether the handshake completed successfully.
func (s *Session) Authenticated() bool { return s.authenticated }

// SetAuthenticated marks the handshake as completed.
func (s *Session) SetAuthenticated() { s.authenticated = true }

// Close marks the connection for teardown after the current response has
// been written (e.g. on a failed handshake).
func (s *Session) Close() { s.closing = true }

// Closing reports whether the connection is marked for teardown.
func (s *Session) Closing() bool { return s.closing }
