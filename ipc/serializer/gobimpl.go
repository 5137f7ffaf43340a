package serializer

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"github.com/ValentinKolb/routeipc/ipc/common"
)

func init() {
	// The Data payload and the Response result are schema-less. gob refuses
	// to encode interface values of unregistered concrete types, so the
	// composite shapes produced by handlers (and by a JSON round trip) are
	// registered up front.
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// NewGOBSerializer creates a new serializer using Go's binary gob format
func NewGOBSerializer() ISerializer {
	return &gobSerializerImpl{}
}

// gobSerializerImpl implements the ISerializer interface using gob encoding
type gobSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializer)
// --------------------------------------------------------------------------

func (g gobSerializerImpl) EncodeMessage(msg common.Message) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(msg); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) DecodeMessage(b []byte, msg *common.Message) error {
	buf := bytes.NewBuffer(b)
	dec := gob.NewDecoder(buf)
	if err := dec.Decode(msg); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}
	return nil
}

func (g gobSerializerImpl) EncodeResponse(resp common.Response) ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(resp); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g gobSerializerImpl) DecodeResponse(b []byte, resp *common.Response) error {
	buf := bytes.NewBuffer(b)
	dec := gob.NewDecoder(buf)
	if err := dec.Decode(resp); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}
	return nil
}
