package registry

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ValentinKolb/routeipc/ipc/common"
)

func noopHandler(_ *Context) (any, error) {
	return nil, nil
}

func TestRegisterAndResolve(t *testing.T) {
	r := New()

	if err := r.Register("echo", func(ctx *Context) (any, error) {
		return ctx.Data, nil
	}); err != nil {
		t.Fatalf("Failed to register route: %v", err)
	}

	handler, err := r.Resolve("echo")
	if err != nil {
		t.Fatalf("Failed to resolve route: %v", err)
	}

	// The resolved handler must be invokable with a request context
	result, err := handler(&Context{
		Endpoint:   "echo",
		Data:       map[string]any{"x": float64(5)},
		RemoteAddr: "test",
	})
	if err != nil {
		t.Fatalf("Handler returned error: %v", err)
	}

	data, ok := result.(map[string]any)
	if !ok || data["x"] != float64(5) {
		t.Errorf("Handler returned unexpected result: %+v", result)
	}
}

func TestResolveUnknownRoute(t *testing.T) {
	r := New()

	_, err := r.Resolve("missing")
	if err == nil {
		t.Fatal("Expected error but got none")
	}
	if !errors.Is(err, common.ErrRouteNotFound) {
		t.Errorf("Expected ErrRouteNotFound, got: %v", err)
	}
}

func TestDuplicateRoute(t *testing.T) {
	r := New()

	if err := r.Register("ping", noopHandler); err != nil {
		t.Fatalf("Failed to register route: %v", err)
	}

	// Same name again, also across the multicast variant
	if err := r.Register("ping", noopHandler); !errors.Is(err, common.ErrDuplicateRoute) {
		t.Errorf("Expected ErrDuplicateRoute, got: %v", err)
	}
	if err := r.RegisterMulticast("ping", noopHandler); !errors.Is(err, common.ErrDuplicateRoute) {
		t.Errorf("Expected ErrDuplicateRoute, got: %v", err)
	}
}

func TestRegisterInvalidArgs(t *testing.T) {
	r := New()

	if err := r.Register("", noopHandler); err == nil {
		t.Error("Expected error for empty route name")
	}
	if err := r.Register("nilhandler", nil); err == nil {
		t.Error("Expected error for nil handler")
	}
}

func TestMulticastEnumeration(t *testing.T) {
	r := New()

	if err := r.Register("direct", noopHandler); err != nil {
		t.Fatalf("Failed to register route: %v", err)
	}
	for i := 0; i < 3; i++ {
		name := fmt.Sprintf("listener-%d", i)
		if err := r.RegisterMulticast(name, noopHandler); err != nil {
			t.Fatalf("Failed to register multicast route %s: %v", name, err)
		}
	}

	routes := r.Multicast()
	if len(routes) != 3 {
		t.Fatalf("Expected 3 multicast routes, got %d", len(routes))
	}
	for _, route := range routes {
		if !route.Multicast {
			t.Errorf("Route %s not flagged as multicast", route.Name)
		}
		if route.Name == "direct" {
			t.Error("Non-multicast route included in multicast enumeration")
		}
	}

	if len(r.Names()) != 4 {
		t.Errorf("Expected 4 registered names, got %d", len(r.Names()))
	}
}
