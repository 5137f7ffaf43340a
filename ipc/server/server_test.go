package server

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/ValentinKolb/routeipc/ipc/client"
	"github.com/ValentinKolb/routeipc/ipc/common"
	"github.com/ValentinKolb/routeipc/ipc/registry"
	"github.com/ValentinKolb/routeipc/ipc/serializer"
	"github.com/ValentinKolb/routeipc/ipc/transport/unix"
)

const testSecret = "test-secret-key"

// startTestServer starts a server on a fresh unix socket with the routes
// built by the given function and returns the socket path
func startTestServer(t *testing.T, secret string, build func(routes *registry.Registry)) string {
	t.Helper()

	socket := filepath.Join(t.TempDir(), "ipc.sock")

	routes := registry.New()
	build(routes)

	srv := NewIPCServer(
		common.ServerConfig{
			SecretKey:     secret,
			TimeoutSecond: 5,
			Transport:     common.ServerTransportConfig{Endpoint: socket},
		},
		unix.NewUnixDefaultServerTransport(),
		serializer.NewJSONSerializer(),
		routes,
	)

	go srv.Serve()
	t.Cleanup(func() { srv.Close() })

	// Wait for the socket file to appear
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, err := os.Stat(socket); err == nil {
			return socket
		}
		if time.Now().After(deadline) {
			t.Fatalf("Server did not create socket %s in time", socket)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// newTestClient creates a client for the given socket with the given secret
func newTestClient(t *testing.T, socket, secret string, timeoutSecond int) *client.Client {
	t.Helper()

	c := client.NewIPCClient(
		common.ClientConfig{
			SecretKey:     secret,
			TimeoutSecond: timeoutSecond,
			Transport:     common.ClientTransportConfig{Endpoint: socket},
		},
		unix.NewUnixClientTransport(),
		serializer.NewJSONSerializer(),
	)
	t.Cleanup(func() { c.Close() })
	return c
}

// registerEcho adds an echo route returning its input payload
func registerEcho(routes *registry.Registry) {
	routes.Register("echo", func(ctx *registry.Context) (any, error) {
		return ctx.Data, nil
	})
}

func TestEchoRoute(t *testing.T) {
	socket := startTestServer(t, testSecret, registerEcho)
	c := newTestClient(t, socket, testSecret, 5)

	resp, err := c.Request("echo", map[string]any{"x": 5})
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}

	if !resp.Ok() {
		t.Fatalf("Expected success response, got code %d (%s)", resp.Code, resp.Error)
	}
	if resp.Error != "" {
		t.Errorf("Expected empty error, got %q", resp.Error)
	}

	data, ok := resp.Response.(map[string]any)
	if !ok {
		t.Fatalf("Expected map result, got %T", resp.Response)
	}
	if data["x"] != float64(5) {
		t.Errorf("Expected x=5, got %v", data["x"])
	}
}

func TestUnknownRoute(t *testing.T) {
	socket := startTestServer(t, testSecret, registerEcho)
	c := newTestClient(t, socket, testSecret, 5)

	// An unknown endpoint yields an error response, never a transport error
	resp, err := c.Request("missing", nil)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	if resp.Code != common.CodeRouteNotFound {
		t.Errorf("Expected code %d, got %d", common.CodeRouteNotFound, resp.Code)
	}
	if !errors.Is(resp.Err(), common.ErrRouteNotFound) {
		t.Errorf("Expected ErrRouteNotFound, got: %v", resp.Err())
	}

	// The connection survives, the next request succeeds
	resp, err = c.Request("echo", map[string]any{"ok": true})
	if err != nil {
		t.Fatalf("Follow-up request failed: %v", err)
	}
	if !resp.Ok() {
		t.Errorf("Expected success on follow-up, got code %d", resp.Code)
	}
}

func TestAuthentication(t *testing.T) {
	socket := startTestServer(t, "right", registerEcho)

	// Wrong token: the handshake is rejected and the connection closed
	wrong := newTestClient(t, socket, "wrong", 5)
	_, err := wrong.Request("echo", nil)
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !errors.Is(err, common.ErrAuthenticationFailed) {
		t.Errorf("Expected ErrAuthenticationFailed, got: %v", err)
	}

	// A fresh connection with the right token succeeds
	right := newTestClient(t, socket, "right", 5)
	resp, err := right.Request("echo", map[string]any{"x": 1})
	if err != nil {
		t.Fatalf("Request with valid token failed: %v", err)
	}
	if !resp.Ok() {
		t.Errorf("Expected success, got code %d", resp.Code)
	}
}

func TestHandlerFailureKeepsConnection(t *testing.T) {
	cause := "database exploded: secret internals"

	socket := startTestServer(t, testSecret, func(routes *registry.Registry) {
		registerEcho(routes)
		routes.Register("fails", func(ctx *registry.Context) (any, error) {
			return nil, errors.New(cause)
		})
		routes.Register("panics", func(ctx *registry.Context) (any, error) {
			panic("boom")
		})
	})
	c := newTestClient(t, socket, testSecret, 5)

	for _, route := range []string{"fails", "panics"} {
		resp, err := c.Request(route, nil)
		if err != nil {
			t.Fatalf("Request to %q failed: %v", route, err)
		}
		if resp.Code != common.CodeHandlerError {
			t.Errorf("Expected code %d from %q, got %d", common.CodeHandlerError, route, resp.Code)
		}

		// The cause must not leak across the IPC boundary
		if resp.Error != "internal error in route handler" {
			t.Errorf("Expected generic error message, got %q", resp.Error)
		}

		// The connection survives the handler failure
		echo, err := c.Request("echo", map[string]any{"alive": true})
		if err != nil {
			t.Fatalf("Follow-up request after %q failed: %v", route, err)
		}
		if !echo.Ok() {
			t.Errorf("Expected success on follow-up after %q, got code %d", route, echo.Code)
		}
	}
}

func TestConcurrentRequestsSingleFlight(t *testing.T) {
	socket := startTestServer(t, testSecret, func(routes *registry.Registry) {
		routes.Register("echo_slow", func(ctx *registry.Context) (any, error) {
			// Vary handler duration so fast requests would overtake slow
			// ones if the single-flight discipline were broken
			time.Sleep(time.Duration(10+int(ctx.Data["n"].(float64))*7) * time.Millisecond)
			return ctx.Data, nil
		})
	})
	c := newTestClient(t, socket, testSecret, 10)

	const callers = 8

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()

			resp, err := c.Request("echo_slow", map[string]any{"n": n})
			if err != nil {
				t.Errorf("Request %d failed: %v", n, err)
				return
			}
			if !resp.Ok() {
				t.Errorf("Request %d got code %d", n, resp.Code)
				return
			}

			// Every caller must receive exactly the response to its own
			// request, for any interleaving of completion times
			data, ok := resp.Response.(map[string]any)
			if !ok || data["n"] != float64(n) {
				t.Errorf("Request %d received foreign response: %+v", n, resp.Response)
			}
		}(i)
	}
	wg.Wait()
}

func TestMulticastFanout(t *testing.T) {
	auditCh := make(chan map[string]any, 1)
	flushCh := make(chan map[string]any, 1)

	socket := startTestServer(t, testSecret, func(routes *registry.Registry) {
		routes.Register("announce", func(ctx *registry.Context) (any, error) {
			return map[string]any{"announced": true}, nil
		})
		routes.RegisterMulticast("audit", func(ctx *registry.Context) (any, error) {
			auditCh <- ctx.Data
			return "audit done", nil
		})
		routes.RegisterMulticast("cache_flush", func(ctx *registry.Context) (any, error) {
			flushCh <- ctx.Data
			return "flush done", nil
		})
	})
	c := newTestClient(t, socket, testSecret, 5)

	payload := map[string]any{"event": "restart"}
	resp, err := c.Notify("announce", payload)
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}

	// The caller receives exactly the direct route's response
	if !resp.Ok() {
		t.Fatalf("Expected success, got code %d (%s)", resp.Code, resp.Error)
	}
	data, ok := resp.Response.(map[string]any)
	if !ok || data["announced"] != true {
		t.Errorf("Expected direct route response, got: %+v", resp.Response)
	}

	// Both multicast handlers observe the call with the request payload
	for name, ch := range map[string]chan map[string]any{"audit": auditCh, "cache_flush": flushCh} {
		select {
		case got := <-ch:
			if got["event"] != "restart" {
				t.Errorf("Multicast route %q received wrong payload: %+v", name, got)
			}
		case <-time.After(2 * time.Second):
			t.Errorf("Multicast route %q was not invoked", name)
		}
	}
}

func TestMulticastDirectRouteInvokedOnce(t *testing.T) {
	calls := make(chan struct{}, 8)

	socket := startTestServer(t, testSecret, func(routes *registry.Registry) {
		routes.RegisterMulticast("notify_all", func(ctx *registry.Context) (any, error) {
			calls <- struct{}{}
			return "ok", nil
		})
	})
	c := newTestClient(t, socket, testSecret, 5)

	resp, err := c.Notify("notify_all", nil)
	if err != nil {
		t.Fatalf("Notify failed: %v", err)
	}
	if !resp.Ok() {
		t.Fatalf("Expected success, got code %d", resp.Code)
	}

	// The directly addressed route runs on the direct path only, the
	// fan-out must not invoke it a second time
	<-calls
	select {
	case <-calls:
		t.Error("Directly addressed multicast route was invoked twice")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestTransportFailureAndReconnect(t *testing.T) {
	socket := startTestServer(t, testSecret, func(routes *registry.Registry) {
		registerEcho(routes)
		routes.Register("slow", func(ctx *registry.Context) (any, error) {
			time.Sleep(3 * time.Second)
			return "done", nil
		})
	})

	// Client with a timeout shorter than the slow handler
	c := newTestClient(t, socket, testSecret, 1)

	_, err := c.Request("slow", nil)
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !errors.Is(err, common.ErrTransport) {
		t.Errorf("Expected ErrTransport, got: %v", err)
	}

	// The failed request is not retried, but the next request transparently
	// reconnects and re-authenticates
	resp, err := c.Request("echo", map[string]any{"back": true})
	if err != nil {
		t.Fatalf("Request after reconnect failed: %v", err)
	}
	if !resp.Ok() {
		t.Errorf("Expected success after reconnect, got code %d", resp.Code)
	}
}

func TestHandshakeAcknowledgement(t *testing.T) {
	socket := startTestServer(t, testSecret, registerEcho)

	// Drive the handshake by hand through a raw transport to inspect the
	// acknowledgement envelope
	tr := unix.NewUnixClientTransport()
	if err := tr.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConfig{Endpoint: socket},
	}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	s := serializer.NewJSONSerializer()
	req, err := s.EncodeMessage(*common.NewHandshake(testSecret))
	if err != nil {
		t.Fatalf("Failed to encode handshake: %v", err)
	}

	respBytes, err := tr.Send(req)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	var resp common.Response
	if err := s.DecodeResponse(respBytes, &resp); err != nil {
		t.Fatalf("Failed to decode acknowledgement: %v", err)
	}
	if !resp.Ok() {
		t.Fatalf("Expected acknowledgement, got code %d (%s)", resp.Code, resp.Error)
	}

	ack, ok := resp.Response.(map[string]any)
	if !ok || ack["message"] != "connection success" {
		t.Errorf("Unexpected acknowledgement payload: %+v", resp.Response)
	}
}

func TestMalformedPayloadAfterHandshake(t *testing.T) {
	socket := startTestServer(t, testSecret, registerEcho)

	tr := unix.NewUnixClientTransport()
	if err := tr.Connect(common.ClientConfig{
		TimeoutSecond: 5,
		Transport:     common.ClientTransportConfig{Endpoint: socket},
	}); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	defer tr.Close()

	s := serializer.NewJSONSerializer()

	// Authenticate first
	req, _ := s.EncodeMessage(*common.NewHandshake(testSecret))
	if _, err := tr.Send(req); err != nil {
		t.Fatalf("Handshake failed: %v", err)
	}

	// A well-framed but undecodable payload yields a malformed payload
	// response and keeps the connection open
	respBytes, err := tr.Send([]byte(`[not json`))
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	var resp common.Response
	if err := s.DecodeResponse(respBytes, &resp); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if resp.Code != common.CodeMalformedPayload {
		t.Errorf("Expected code %d, got %d", common.CodeMalformedPayload, resp.Code)
	}

	// Connection still usable
	req, _ = s.EncodeMessage(*common.NewRequest("echo", map[string]any{"still": "here"}))
	respBytes, err = tr.Send(req)
	if err != nil {
		t.Fatalf("Follow-up send failed: %v", err)
	}
	if err := s.DecodeResponse(respBytes, &resp); err != nil {
		t.Fatalf("Failed to decode follow-up response: %v", err)
	}
	if !resp.Ok() {
		t.Errorf("Expected success on follow-up, got code %d", resp.Code)
	}
}

func ExampleServer() {
	routes := registry.New()
	routes.Register("guild_count", func(ctx *registry.Context) (any, error) {
		return map[string]any{"count": 42}, nil
	})

	srv := NewIPCServer(
		common.ServerConfig{
			SecretKey: "my-secret",
			Transport: common.ServerTransportConfig{Endpoint: "/tmp/bot.sock"},
		},
		unix.NewUnixDefaultServerTransport(),
		serializer.NewJSONSerializer(),
		routes,
	)

	fmt.Println(srv != nil)
	// Output: true
}
