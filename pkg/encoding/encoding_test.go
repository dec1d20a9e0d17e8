package encoding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omalloc/courier/pkg/encoding"
	_ "github.com/omalloc/courier/pkg/encoding/cbor"
	_ "github.com/omalloc/courier/pkg/encoding/json"
)

type sample struct {
	Key  string `json:"key" cbor:"1,keyasint"`
	Size int    `json:"size" cbor:"2,keyasint"`
}

func TestCodecRegistry(t *testing.T) {
	assert.NotNil(t, encoding.GetCodec("json"))
	assert.NotNil(t, encoding.GetCodec("cbor"))
	assert.Nil(t, encoding.GetCodec("xml"))
}

func TestCodecRoundTrip(t *testing.T) {
	for _, name := range []string{"json", "cbor"} {
		codec := encoding.GetCodec(name)
		require.NotNil(t, codec, name)

		in := sample{Key: "http://origin.test/a", Size: 42}
		data, err := codec.Marshal(in)
		require.NoError(t, err, name)

		var out sample
		require.NoError(t, codec.Unmarshal(data, &out), name)
		assert.Equal(t, in, out, name)
	}
}
