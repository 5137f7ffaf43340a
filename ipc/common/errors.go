package common

import (
	"errors"
	"fmt"
)

// --------------------------------------------------------------------------
// Error Taxonomy
// --------------------------------------------------------------------------

var (
	// ErrAuthenticationFailed is returned when the handshake token does not
	// match the server's secret key. The connection is closed afterwards.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRouteNotFound is returned when a request names an endpoint that is
	// not registered on the server.
	ErrRouteNotFound = errors.New("route not found")

	// ErrMalformedPayload is returned when an envelope cannot be decoded.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrHandlerError is returned when a route handler failed. The underlying
	// cause is only logged on the server, never sent across the wire.
	ErrHandlerError = errors.New("internal handler error")

	// ErrTransport is returned when the connection was lost or refused. The
	// failed request is not retried, callers decide whether to retry.
	ErrTransport = errors.New("transport failure")

	// ErrDuplicateRoute is returned at registration time when a route name
	// is already taken. This error never crosses the wire.
	ErrDuplicateRoute = errors.New("duplicate route")
)

// --------------------------------------------------------------------------
// Wire Codes
// --------------------------------------------------------------------------

// Response codes carried in the Code field of every Response envelope.
const (
	CodeSuccess              = 200
	CodeMalformedPayload     = 400
	CodeAuthenticationFailed = 403
	CodeRouteNotFound        = 404
	CodeHandlerError         = 500
)

// CodeFor maps a taxonomy error to its wire code. Unrecognized errors map
// to CodeHandlerError since they can only originate from host logic.
func CodeFor(err error) int {
	switch {
	case err == nil:
		return CodeSuccess
	case errors.Is(err, ErrMalformedPayload):
		return CodeMalformedPayload
	case errors.Is(err, ErrAuthenticationFailed):
		return CodeAuthenticationFailed
	case errors.Is(err, ErrRouteNotFound):
		return CodeRouteNotFound
	default:
		return CodeHandlerError
	}
}

// errorForCode is the inverse mapping, used on the client side to convert an
// error-coded Response into a typed error the caller can test with errors.Is.
func errorForCode(code int, msg string) error {
	switch code {
	case CodeSuccess:
		return nil
	case CodeMalformedPayload:
		return fmt.Errorf("%w: %s", ErrMalformedPayload, msg)
	case CodeAuthenticationFailed:
		return fmt.Errorf("%w: %s", ErrAuthenticationFailed, msg)
	case CodeRouteNotFound:
		return fmt.Errorf("%w: %s", ErrRouteNotFound, msg)
	default:
		return fmt.Errorf("%w: %s", ErrHandlerError, msg)
	}
}
