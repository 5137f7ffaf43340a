package common

// --------------------------------------------------------------------------
// Message Structure (client -> server)
// --------------------------------------------------------------------------

// HandshakeEndpoint is the endpoint name the client puts on the handshake
// message. The server recognizes the handshake positionally (first message
// on a fresh connection), the name is informational only and never resolves
// to a registered route.
const HandshakeEndpoint = "__handshake__"

// Headers carries the out-of-band metadata of a request. Unlike the Data
// payload the headers are fully typed: the protocol itself depends on them.
type Headers struct {
	// Authorization holds the shared secret. Only evaluated during the
	// handshake, ignored on subsequent messages.
	Authorization string `json:"Authorization,omitempty"`

	// Multicast marks the request for fan-out to all multicast routes.
	Multicast bool `json:"multicast,omitempty"`
}

// Message is the request envelope sent from client to server. Endpoint names
// the route to invoke, Data is the route-specific payload and is deliberately
// schema-less (handlers define their own shape), Headers carry protocol
// metadata.
type Message struct {
	Endpoint string         `json:"endpoint"`
	Data     map[string]any `json:"data,omitempty"`
	Headers  Headers        `json:"headers"`
}

// --------------------------------------------------------------------------
// Response Structure (server -> client)
// --------------------------------------------------------------------------

// Response is the reply envelope sent from server to client. Exactly one of
// Response/Error is meaningful, discriminated by Code: on CodeSuccess the
// Response field holds the handler's return value, otherwise Error holds a
// short description of the failure.
type Response struct {
	Response any    `json:"response,omitempty"`
	Error    string `json:"error,omitempty"`
	Code     int    `json:"code"`
}

// Ok reports whether the response carries a successful result.
func (r *Response) Ok() bool {
	return r.Code == CodeSuccess
}

// Err converts an error-coded response into the matching taxonomy error.
// It returns nil for successful responses.
func (r *Response) Err() error {
	return errorForCode(r.Code, r.Error)
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewRequest creates a request message for the given route.
func NewRequest(endpoint string, data map[string]any) *Message {
	return &Message{
		Endpoint: endpoint,
		Data:     data,
	}
}

// NewMulticastRequest creates a request message with the multicast header set.
func NewMulticastRequest(endpoint string, data map[string]any) *Message {
	return &Message{
		Endpoint: endpoint,
		Data:     data,
		Headers:  Headers{Multicast: true},
	}
}

// NewHandshake creates the authentication handshake message.
func NewHandshake(secretKey string) *Message {
	return &Message{
		Endpoint: HandshakeEndpoint,
		Headers:  Headers{Authorization: secretKey},
	}
}

// NewSuccessResponse creates a success response wrapping a handler result.
func NewSuccessResponse(result any) *Response {
	return &Response{
		Response: result,
		Code:     CodeSuccess,
	}
}

// NewAckResponse creates the handshake acknowledgement response.
func NewAckResponse() *Response {
	return &Response{
		Response: map[string]any{"message": "connection success"},
		Code:     CodeSuccess,
	}
}

// NewErrorResponse creates an error response with the given code.
func NewErrorResponse(code int, msg string) *Response {
	return &Response{
		Error: msg,
		Code:  code,
	}
}
