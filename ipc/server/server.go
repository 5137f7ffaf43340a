package server

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/ValentinKolb/routeipc/ipc/common"
	"github.com/ValentinKolb/routeipc/ipc/registry"
	"github.com/ValentinKolb/routeipc/ipc/serializer"
	"github.com/ValentinKolb/routeipc/ipc/transport"
	"github.com/VictoriaMetrics/metrics"
	"github.com/lni/dragonboat/v4/logger"

	_ "net/http/pprof"
)

var Logger = logger.GetLogger("ipc")

// NewIPCServer creates a new IPC server
// It takes a config, transport, serializer and route registry as parameters.
// The registry must be fully populated before Serve is called.
//
// Usage:
//
//	routes := registry.New()
//	routes.Register("echo", func(ctx *registry.Context) (any, error) {
//		return ctx.Data, nil
//	})
//
//	s := server.NewIPCServer(
//		config,
//		tcp.NewTCPDefaultServerTransport(),
//		serializer.NewJSONSerializer(),
//		routes,
//	)
//
//	if err := s.Serve(); err != nil {
//		panic(err)
//	}
func NewIPCServer(
	config common.ServerConfig,
	transport transport.IServerTransport,
	serializer serializer.ISerializer,
	routes *registry.Registry,
) *Server {
	// https://github.com/golang/go/issues/17393
	if runtime.GOOS == "darwin" {
		signal.Ignore(syscall.Signal(0xd))
	}

	Logger.Infof("Created IPC Server")
	Logger.Infof(config.String())

	return &Server{
		config:     config,
		transport:  transport,
		serializer: serializer,
		routes:     routes,
	}
}

// Server is the IPC server endpoint. It accepts persistent connections,
// authenticates each with the handshake, and dispatches framed requests to
// the route registry. Connections are handled independently; the only state
// shared between them is the read-only registry.
type Server struct {
	config     common.ServerConfig
	transport  transport.IServerTransport
	serializer serializer.ISerializer
	routes     *registry.Registry
}

// Serve starts the IPC server. It blocks until Close is called or the
// transport fails.
func (s *Server) Serve() error {
	if s.config.LogLevel != "" {
		common.InitLoggers(s.config.LogLevel)
	}

	// Configure the transport layer
	s.registerTransportHandler()

	// Optionally expose prometheus metrics and pprof
	if s.config.MetricsEndpoint != "" {
		go s.serveMetrics()
	}

	return s.transport.Listen(s.config)
}

// Close stops the server's transport. Established connections terminate
// after their in-flight request.
func (s *Server) Close() error {
	return s.transport.Close()
}

// --------------------------------------------------------------------------
// Request Handling
// --------------------------------------------------------------------------

func (s *Server) registerTransportHandler() {
	s.transport.RegisterHandler(func(sess *transport.Session, req []byte) []byte {
		return s.encodeResponse(s.handleFrame(sess, req))
	})
}

// handleFrame processes one decoded request frame according to the
// connection's state: the first message is the authentication handshake,
// everything after it is dispatched to the route registry.
func (s *Server) handleFrame(sess *transport.Session, req []byte) *common.Response {
	var msg common.Message

	if err := s.serializer.DecodeMessage(req, &msg); err != nil {
		Logger.Warningf("Received malformed request from %s: %v", sess.RemoteAddr(), err)
		metrics.GetOrCreateCounter(`ipc_errors_total{kind="malformed_payload"}`).Inc()

		// An undecodable message before authentication forfeits the
		// handshake, the connection is torn down after the reply
		if !sess.Authenticated() {
			sess.Close()
		}
		return common.NewErrorResponse(common.CodeMalformedPayload, "failed to decode request")
	}

	if !sess.Authenticated() {
		return s.handshake(sess, &msg)
	}

	return s.dispatch(sess, &msg)
}

// handshake validates the secret key of the first message on a connection.
func (s *Server) handshake(sess *transport.Session, msg *common.Message) *common.Response {
	if subtle.ConstantTimeCompare([]byte(msg.Headers.Authorization), []byte(s.config.SecretKey)) != 1 {
		Logger.Warningf("Rejected unauthorized connection from %s (invalid or no token provided)", sess.RemoteAddr())
		metrics.GetOrCreateCounter(`ipc_handshakes_total{status="rejected"}`).Inc()

		// Close the connection after the error reply, the client must
		// reconnect with a valid token
		sess.Close()
		return common.NewErrorResponse(common.CodeAuthenticationFailed, "received unauthorized request (invalid or no token provided)")
	}

	sess.SetAuthenticated()
	metrics.GetOrCreateCounter(`ipc_handshakes_total{status="accepted"}`).Inc()
	Logger.Infof("Client %s authenticated", sess.RemoteAddr())

	return common.NewAckResponse()
}

// dispatch resolves the addressed route, invokes its handler and converts
// the outcome into a response envelope. Failures are per-request: they are
// answered with an error response and never terminate the connection.
func (s *Server) dispatch(sess *transport.Session, msg *common.Message) *common.Response {
	metrics.GetOrCreateCounter(fmt.Sprintf(`ipc_requests_total{endpoint=%q}`, msg.Endpoint)).Inc()

	// Fan out to the multicast routes first, the direct dispatch below must
	// not wait for them
	if msg.Headers.Multicast {
		s.fanout(sess, msg)
	}

	handler, err := s.routes.Resolve(msg.Endpoint)
	if err != nil {
		Logger.Warningf("Received invalid request from %s (no route named %q)", sess.RemoteAddr(), msg.Endpoint)
		metrics.GetOrCreateCounter(`ipc_errors_total{kind="route_not_found"}`).Inc()
		return common.NewErrorResponse(common.CodeRouteNotFound, fmt.Sprintf("received invalid request (no route named %q)", msg.Endpoint))
	}

	result, err := invoke(handler, &registry.Context{
		Endpoint:   msg.Endpoint,
		Data:       msg.Data,
		RemoteAddr: sess.RemoteAddr(),
	})
	if err != nil {
		// The cause stays on the server: the client only learns that the
		// handler failed, not why
		Logger.Errorf("Received error while executing %q: %v", msg.Endpoint, err)
		metrics.GetOrCreateCounter(`ipc_errors_total{kind="handler_error"}`).Inc()
		return common.NewErrorResponse(common.CodeHandlerError, "internal error in route handler")
	}

	return common.NewSuccessResponse(result)
}

// fanout invokes every multicast-registered handler with the request
// payload, fire-and-forget. The directly addressed route is skipped here
// since the direct dispatch invokes it exactly once; results and errors of
// the fan-out targets are never correlated back to the caller.
func (s *Server) fanout(sess *transport.Session, msg *common.Message) {
	for _, route := range s.routes.Multicast() {
		if route.Name == msg.Endpoint {
			continue
		}

		ctx := &registry.Context{
			Endpoint:   route.Name,
			Data:       msg.Data,
			RemoteAddr: sess.RemoteAddr(),
		}

		metrics.GetOrCreateCounter(fmt.Sprintf(`ipc_multicast_total{endpoint=%q}`, route.Name)).Inc()

		go func(route *registry.Route) {
			if _, err := invoke(route.Handler, ctx); err != nil {
				Logger.Errorf("Received error while executing multicast route %q: %v", route.Name, err)
			}
		}(route)
	}
}

// invoke calls a handler and converts a panic in host logic into an error,
// so a faulty route can never take down the server process.
func invoke(handler registry.HandlerFunc, ctx *registry.Context) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(ctx)
}

// encodeResponse serializes a response envelope. If the handler returned a
// value the serializer cannot encode, the client still gets a well-formed
// error response instead of a dropped connection.
func (s *Server) encodeResponse(resp *common.Response) []byte {
	val, err := s.serializer.EncodeResponse(*resp)
	if err == nil {
		return val
	}

	Logger.Errorf("Failed to encode response: %v", err)
	metrics.GetOrCreateCounter(`ipc_errors_total{kind="encode_failed"}`).Inc()

	fallback := common.NewErrorResponse(common.CodeHandlerError, "route returned a value which is not serializable")
	val, err = s.serializer.EncodeResponse(*fallback)
	if err != nil {
		// A serializer that cannot encode a plain error envelope is broken,
		// closing the connection is all that is left
		Logger.Errorf("Failed to encode fallback response: %v", err)
		return nil
	}
	return val
}

// --------------------------------------------------------------------------
// Metrics Sidecar
// --------------------------------------------------------------------------

// serveMetrics exposes prometheus metrics (and pprof, via the default mux)
// on the configured endpoint.
func (s *Server) serveMetrics() {
	http.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		metrics.WritePrometheus(w, true)
	})

	Logger.Infof("Starting metrics server on %s", s.config.MetricsEndpoint)
	Logger.Errorf("%v", http.ListenAndServe(s.config.MetricsEndpoint, nil))
}
