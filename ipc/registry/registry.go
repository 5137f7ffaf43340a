package registry

import (
	"fmt"

	"github.com/ValentinKolb/routeipc/ipc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("registry")

// --------------------------------------------------------------------------
// Handler Contract
// --------------------------------------------------------------------------

// Context is handed to a route handler for each invocation. It exposes the
// request payload plus the connection metadata a handler may need.
type Context struct {
	// Endpoint is the route name the request was addressed to
	Endpoint string

	// Data is the request payload, an opaque key-value mapping owned by the
	// host application
	Data map[string]any

	// RemoteAddr is the address of the calling client
	RemoteAddr string
}

// Get returns a payload value by key, or nil if absent.
func (c *Context) Get(key string) any {
	if c.Data == nil {
		return nil
	}
	return c.Data[key]
}

// HandlerFunc is the handler contract the host application implements for a
// route. The returned value must be serializable by the configured
// serializer; a returned error is reported to the client as a generic
// internal handler error (the cause is only logged server-side).
type HandlerFunc func(ctx *Context) (any, error)

// --------------------------------------------------------------------------
// Route Registry
// --------------------------------------------------------------------------

// Route is a single named, registered handler.
type Route struct {
	Name      string
	Handler   HandlerFunc
	Multicast bool
}

// Registry maps route names to handlers. Registration happens once at
// process startup before the server is started; afterwards the registry is
// read-only and safely shared across all connections without locking.
type Registry struct {
	routes map[string]*Route
}

// New creates an empty route registry.
func New() *Registry {
	return &Registry{
		routes: make(map[string]*Route),
	}
}

// Register adds a route under the given name. It fails with
// common.ErrDuplicateRoute if the name is already taken.
func (r *Registry) Register(name string, handler HandlerFunc) error {
	return r.register(name, handler, false)
}

// RegisterMulticast adds a route that is additionally invoked on every
// multicast-flagged request, regardless of the endpoint the request was
// addressed to.
func (r *Registry) RegisterMulticast(name string, handler HandlerFunc) error {
	return r.register(name, handler, true)
}

func (r *Registry) register(name string, handler HandlerFunc, multicast bool) error {
	if name == "" {
		return fmt.Errorf("route name must not be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler for route %q must not be nil", name)
	}
	if _, ok := r.routes[name]; ok {
		return fmt.Errorf("%w: %s", common.ErrDuplicateRoute, name)
	}

	r.routes[name] = &Route{
		Name:      name,
		Handler:   handler,
		Multicast: multicast,
	}

	Logger.Debugf("registered route %q (multicast=%t)", name, multicast)
	return nil
}

// Resolve returns the handler registered under the given name. It fails with
// common.ErrRouteNotFound if the name is absent.
func (r *Registry) Resolve(name string) (HandlerFunc, error) {
	route, ok := r.routes[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", common.ErrRouteNotFound, name)
	}
	return route.Handler, nil
}

// Multicast returns all multicast-registered routes.
func (r *Registry) Multicast() []*Route {
	var routes []*Route
	for _, route := range r.routes {
		if route.Multicast {
			routes = append(routes, route)
		}
	}
	return routes
}

// Names returns the names of all registered routes (e.g. for diagnostics).
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.routes))
	for name := range r.routes {
		names = append(names, name)
	}
	return names
}
