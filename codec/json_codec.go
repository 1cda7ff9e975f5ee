package codec

import (
	"encoding/json"
	"io"

	"github.com/andreluisos/jnvim/message"
)

// JSONCodec writes the same array-shaped messages as msgpack, as JSON text.
// Pros: human-readable, trivial to inspect on the wire.
// Cons: slower, larger, and numbers lose their integer/float distinction.
type JSONCodec struct{}

func (c *JSONCodec) Type() Type { return TypeJSON }

func (c *JSONCodec) NewEncoder(w io.Writer) Encoder {
	return &jsonEncoder{enc: json.NewEncoder(w)}
}

func (c *JSONCodec) NewDecoder(r io.Reader) Decoder {
	return &jsonDecoder{dec: json.NewDecoder(r)}
}

type jsonEncoder struct {
	enc *json.Encoder
}

func (e *jsonEncoder) Encode(msg message.Message) error {
	arr, err := toWire(msg)
	if err != nil {
		return err
	}
	return e.enc.Encode(arr)
}

type jsonDecoder struct {
	dec *json.Decoder
}

func (d *jsonDecoder) Decode() (message.Message, error) {
	var v any
	if err := d.dec.Decode(&v); err != nil {
		return nil, err
	}
	return fromWire(v)
}
