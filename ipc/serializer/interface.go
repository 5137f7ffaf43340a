package serializer

import "github.com/ValentinKolb/routeipc/ipc/common"

// ISerializer is the interface for all envelope serializers. Requests and
// responses have distinct envelope shapes, so both directions get their own
// encode/decode pair. Implementations must be stateless and safe for
// concurrent use.
//
// Decoding structurally invalid input (non-object top level, undecodable
// bytes) fails with an error wrapping common.ErrMalformedPayload.
type ISerializer interface {
	// EncodeMessage serializes a request envelope into a byte array
	EncodeMessage(msg common.Message) ([]byte, error)
	// DecodeMessage deserializes a byte array into a request envelope
	DecodeMessage(b []byte, msg *common.Message) error
	// EncodeResponse serializes a reply envelope into a byte array
	EncodeResponse(resp common.Response) ([]byte, error)
	// DecodeResponse deserializes a byte array into a reply envelope
	DecodeResponse(b []byte, resp *common.Response) error
}
