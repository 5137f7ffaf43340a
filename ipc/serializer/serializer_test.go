package serializer

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ValentinKolb/routeipc/ipc/common"
)

// testSerializers is a map of serializer name to factory function
var testSerializers = map[string]func() ISerializer{
	"JSON": NewJSONSerializer,
	"GOB":  NewGOBSerializer,
}

// testMessages creates a set of request envelopes with different fields
// filled. Payload values are limited to the JSON-representable shapes
// (string, float64, bool, nested maps and slices) so the same expectations
// hold for every serializer.
func testMessages() []common.Message {
	return []common.Message{
		// Handshake message
		{
			Endpoint: common.HandshakeEndpoint,
			Headers:  common.Headers{Authorization: "secret"},
		},

		// Plain request without payload
		{
			Endpoint: "ping",
		},

		// Request with a flat payload
		{
			Endpoint: "echo",
			Data:     map[string]any{"x": float64(5), "name": "test"},
		},

		// Multicast request with a nested payload
		{
			Endpoint: "notify_all",
			Data: map[string]any{
				"event": "guild_update",
				"meta":  map[string]any{"id": "1234", "dirty": true},
				"tags":  []any{"a", "b"},
			},
			Headers: common.Headers{Multicast: true},
		},
	}
}

// testResponses creates a set of reply envelopes covering all defined codes
func testResponses() []common.Response {
	return []common.Response{
		{Response: map[string]any{"message": "connection success"}, Code: common.CodeSuccess},
		{Response: map[string]any{"x": float64(5)}, Code: common.CodeSuccess},
		{Error: "received unauthorized request", Code: common.CodeAuthenticationFailed},
		{Error: "no route named foo", Code: common.CodeRouteNotFound},
		{Error: "failed to decode request", Code: common.CodeMalformedPayload},
		{Error: "internal error in route handler", Code: common.CodeHandlerError},
	}
}

// TestMessageRoundTrip tests that request envelopes survive a round trip
func TestMessageRoundTrip(t *testing.T) {
	messages := testMessages()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			for i, msg := range messages {
				// Encode
				data, err := s.EncodeMessage(msg)
				if err != nil {
					t.Errorf("Failed to encode message %d: %v", i, err)
					continue
				}

				// Decode
				var result common.Message
				err = s.DecodeMessage(data, &result)
				if err != nil {
					t.Errorf("Failed to decode message %d: %v", i, err)
					continue
				}

				// Compare
				if !reflect.DeepEqual(msg, result) {
					t.Errorf("Message %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, msg, result)
				}
			}
		})
	}
}

// TestResponseRoundTrip tests that reply envelopes survive a round trip
func TestResponseRoundTrip(t *testing.T) {
	responses := testResponses()

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			for i, resp := range responses {
				data, err := s.EncodeResponse(resp)
				if err != nil {
					t.Errorf("Failed to encode response %d: %v", i, err)
					continue
				}

				var result common.Response
				err = s.DecodeResponse(data, &result)
				if err != nil {
					t.Errorf("Failed to decode response %d: %v", i, err)
					continue
				}

				if !reflect.DeepEqual(resp, result) {
					t.Errorf("Response %d doesn't match after round trip:\nOriginal: %+v\nResult: %+v",
						i, resp, result)
				}
			}
		})
	}
}

// TestDecodeMalformed tests that structurally invalid input is reported as
// a malformed payload error and never as a success or a panic
func TestDecodeMalformed(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{name: "Garbage bytes", data: []byte{0xff, 0x00, 0x42, 0x13, 0x37}},
		{name: "JSON array top level", data: []byte(`[1,2,3]`)},
		{name: "JSON string top level", data: []byte(`"hello"`)},
		{name: "Truncated JSON object", data: []byte(`{"endpoint": "echo", "data"`)},
	}

	for name, factory := range testSerializers {
		t.Run(name, func(t *testing.T) {
			s := factory()

			for _, tc := range testCases {
				t.Run(tc.name, func(t *testing.T) {
					var msg common.Message
					err := s.DecodeMessage(tc.data, &msg)
					if err == nil {
						t.Fatalf("Expected error but got none")
					}
					if !errors.Is(err, common.ErrMalformedPayload) {
						t.Errorf("Expected ErrMalformedPayload, got: %v", err)
					}

					var resp common.Response
					err = s.DecodeResponse(tc.data, &resp)
					if err == nil {
						t.Fatalf("Expected error but got none")
					}
					if !errors.Is(err, common.ErrMalformedPayload) {
						t.Errorf("Expected ErrMalformedPayload, got: %v", err)
					}
				})
			}
		})
	}
}

// TestDecodeEmptyObject tests that an empty but well-formed envelope decodes
// without error (the dispatch layer decides what an empty endpoint means)
func TestDecodeEmptyObject(t *testing.T) {
	s := NewJSONSerializer()

	var msg common.Message
	if err := s.DecodeMessage([]byte(`{}`), &msg); err != nil {
		t.Fatalf("Did not expect error but got: %v", err)
	}
	if msg.Endpoint != "" || msg.Data != nil {
		t.Errorf("Expected zero message, got: %+v", msg)
	}
}
