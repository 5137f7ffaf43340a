// Package serializer provides envelope serialization for the IPC layer. It
// defines a common interface and multiple implementations for converting the
// Message and Response envelopes to and from byte arrays.
//
// The package focuses on:
//   - Providing a consistent interface for different serialization formats
//   - Round-trip stability: decoding an encoded envelope reproduces its
//     semantic content (key-value equality, not ordering)
//   - Reporting structurally invalid input as common.ErrMalformedPayload
//
// Key Components:
//
//   - ISerializer: Core interface that all serializer implementations must
//     satisfy, with separate encode/decode pairs for the two envelope shapes.
//
//   - jsonSerializerImpl: Implementation using JSON encoding. This is the
//     canonical wire format: the schema-less Data payload maps naturally onto
//     JSON objects and the output is human-readable for debugging.
//
//   - gobSerializerImpl: Implementation using Go's built-in gob encoding,
//     usable when both endpoints are Go processes. Composite payload shapes
//     are pre-registered with gob so interface-typed fields encode cleanly.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	Serializers are typically created once and reused throughout the application:
//
//	  s := serializer.NewJSONSerializer()
//	  data, err := s.EncodeMessage(msg)
//	  // ... send data ...
//	  var received common.Message
//	  err = s.DecodeMessage(receivedData, &received)
package serializer
