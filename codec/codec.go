// Package codec serializes messages to and from byte streams.
//
// Both codecs write the same positional-array shape (type discriminant first,
// see package message); they differ only in the byte format. Msgpack is the
// protocol's native format, JSON is kept as a human-readable alternative for
// debugging and interop.
package codec

import (
	"fmt"
	"io"

	"github.com/andreluisos/jnvim/message"
)

type Type byte

const (
	TypeMsgpack Type = 0
	TypeJSON    Type = 1
)

// Codec produces stream-bound encoders and decoders. Encoders and decoders
// are stateful (they buffer); create one per stream and keep using it.
type Codec interface {
	Type() Type
	NewEncoder(w io.Writer) Encoder
	NewDecoder(r io.Reader) Decoder
}

// Encoder writes one message per Encode call onto its stream.
type Encoder interface {
	Encode(msg message.Message) error
}

// Decoder reads one message per Decode call from its stream.
//
// A frame that parses as a value but does not have the shape of any message
// variant yields a *FrameError; the stream is then positioned at the next
// frame, so the caller may keep decoding. Any other error is terminal for
// the stream.
type Decoder interface {
	Decode() (message.Message, error)
}

// Get returns the codec for the given type.
func Get(t Type) Codec {
	if t == TypeJSON {
		return &JSONCodec{}
	}
	return &MsgpackCodec{}
}

// FrameError reports a single malformed frame. It never indicates stream
// corruption: decoding may continue with the next frame.
type FrameError struct {
	Reason string
}

func (e *FrameError) Error() string {
	return "malformed frame: " + e.Reason
}

func frameErrorf(format string, args ...any) *FrameError {
	return &FrameError{Reason: fmt.Sprintf(format, args...)}
}
