package cbor

import (
	"github.com/fxamacker/cbor/v2"

	"github.com/omalloc/courier/pkg/encoding"
)

func init() {
	encoding.RegisterCodec(CBORCodec{})
}

// CBORCodec is a Codec implementation backed by fxamacker/cbor.
type CBORCodec struct{}

func (CBORCodec) Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func (CBORCodec) Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

func (CBORCodec) Name() string {
	return "cbor"
}
