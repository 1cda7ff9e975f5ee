package codec

import (
	"io"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreluisos/jnvim/message"
)

// MsgpackCodec is the protocol's native format. Msgpack values are
// self-delimiting, so no length prefix or frame header is needed: the decoder
// always knows where one message ends and the next begins.
type MsgpackCodec struct{}

func (c *MsgpackCodec) Type() Type { return TypeMsgpack }

func (c *MsgpackCodec) NewEncoder(w io.Writer) Encoder {
	return &msgpackEncoder{enc: msgpack.NewEncoder(w)}
}

func (c *MsgpackCodec) NewDecoder(r io.Reader) Decoder {
	return &msgpackDecoder{dec: msgpack.NewDecoder(r)}
}

type msgpackEncoder struct {
	enc *msgpack.Encoder
}

func (e *msgpackEncoder) Encode(msg message.Message) error {
	arr, err := toWire(msg)
	if err != nil {
		return err
	}
	return e.enc.Encode(arr)
}

type msgpackDecoder struct {
	dec *msgpack.Decoder
}

// Decode reads one complete msgpack value and interprets it as a message.
// Reading the value first keeps the stream consistent even for malformed
// frames, which is what allows the listener to skip them.
func (d *msgpackDecoder) Decode() (message.Message, error) {
	v, err := d.dec.DecodeInterfaceLoose()
	if err != nil {
		return nil, err
	}
	return fromWire(v)
}
