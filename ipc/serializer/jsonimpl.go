package serializer

import (
	"encoding/json"
	"fmt"

	"github.com/ValentinKolb/routeipc/ipc/common"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() ISerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the ISerializer interface using json encoding
type jsonSerializerImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.ISerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) EncodeMessage(msg common.Message) ([]byte, error) {
	return json.Marshal(msg)
}

func (j jsonSerializerImpl) DecodeMessage(b []byte, msg *common.Message) error {
	if err := json.Unmarshal(b, msg); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}
	return nil
}

func (j jsonSerializerImpl) EncodeResponse(resp common.Response) ([]byte, error) {
	return json.Marshal(resp)
}

func (j jsonSerializerImpl) DecodeResponse(b []byte, resp *common.Response) error {
	if err := json.Unmarshal(b, resp); err != nil {
		return fmt.Errorf("%w: %v", common.ErrMalformedPayload, err)
	}
	return nil
}
