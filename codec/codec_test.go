package codec

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/andreluisos/jnvim/message"
)

func TestGet(t *testing.T) {
	if Get(TypeMsgpack).Type() != TypeMsgpack {
		t.Fatal("expect msgpack codec for TypeMsgpack")
	}
	if Get(TypeJSON).Type() != TypeJSON {
		t.Fatal("expect JSON codec for TypeJSON")
	}
}

// The canonical round trip: Request{id=7, method="sum", args=[1,2]} must come
// back equivalent through both codecs.
func TestRequestRoundTrip(t *testing.T) {
	for _, c := range []Codec{&MsgpackCodec{}, &JSONCodec{}} {
		var buf bytes.Buffer
		enc := c.NewEncoder(&buf)
		dec := c.NewDecoder(&buf)

		req := message.NewRequest("sum", 1, 2).Build(7)
		if err := enc.Encode(req); err != nil {
			t.Fatalf("codec %d: encode failed: %v", c.Type(), err)
		}

		decoded, err := dec.Decode()
		if err != nil {
			t.Fatalf("codec %d: decode failed: %v", c.Type(), err)
		}
		got, ok := decoded.(message.Request)
		if !ok {
			t.Fatalf("codec %d: expect Request, got %T", c.Type(), decoded)
		}
		if got.ID != 7 || got.Method != "sum" {
			t.Fatalf("codec %d: unexpected request: %+v", c.Type(), got)
		}
		if len(got.Args) != 2 {
			t.Fatalf("codec %d: expect 2 args, got %v", c.Type(), got.Args)
		}
		// Decoded numbers are int64 (msgpack) or float64 (JSON).
		for i, want := range []int64{1, 2} {
			n, ok := asInt64(got.Args[i])
			if !ok || n != want {
				t.Fatalf("codec %d: arg %d: expect %d, got %v", c.Type(), i, want, got.Args[i])
			}
		}
	}
}

func TestResponseRoundTrip(t *testing.T) {
	for _, c := range []Codec{&MsgpackCodec{}, &JSONCodec{}} {
		var buf bytes.Buffer
		enc := c.NewEncoder(&buf)
		dec := c.NewDecoder(&buf)

		if err := enc.Encode(message.NewResponse(3, nil, "ok")); err != nil {
			t.Fatal(err)
		}
		rpcErr := &message.Error{Code: 42, Message: "broken"}
		if err := enc.Encode(message.NewResponse(4, rpcErr, nil)); err != nil {
			t.Fatal(err)
		}

		first, err := dec.Decode()
		if err != nil {
			t.Fatal(err)
		}
		resp, ok := first.(message.Response)
		if !ok || resp.ID != 3 || resp.Err != nil || resp.Result != "ok" {
			t.Fatalf("codec %d: unexpected success response: %+v", c.Type(), first)
		}

		second, err := dec.Decode()
		if err != nil {
			t.Fatal(err)
		}
		resp, ok = second.(message.Response)
		if !ok || resp.ID != 4 {
			t.Fatalf("codec %d: unexpected error response: %+v", c.Type(), second)
		}
		if resp.Err == nil || resp.Err.Code != 42 || resp.Err.Message != "broken" {
			t.Fatalf("codec %d: error did not survive: %v", c.Type(), resp.Err)
		}
	}
}

func TestNotificationRoundTrip(t *testing.T) {
	for _, c := range []Codec{&MsgpackCodec{}, &JSONCodec{}} {
		var buf bytes.Buffer
		if err := c.NewEncoder(&buf).Encode(message.NewNotification("tick", "now")); err != nil {
			t.Fatal(err)
		}
		decoded, err := c.NewDecoder(&buf).Decode()
		if err != nil {
			t.Fatal(err)
		}
		n, ok := decoded.(message.Notification)
		if !ok || n.Method != "tick" || len(n.Args) != 1 || n.Args[0] != "now" {
			t.Fatalf("codec %d: unexpected notification: %+v", c.Type(), decoded)
		}
	}
}

// A frame that parses but has the wrong shape must yield a FrameError and
// leave the stream usable for the next frame.
func TestMsgpackMalformedFrameIsSkippable(t *testing.T) {
	var buf bytes.Buffer

	junk, err := msgpack.Marshal("not a message")
	if err != nil {
		t.Fatal(err)
	}
	buf.Write(junk)

	c := &MsgpackCodec{}
	if err := c.NewEncoder(&buf).Encode(message.NewRequest("echo").Build(1)); err != nil {
		t.Fatal(err)
	}

	dec := c.NewDecoder(&buf)
	_, err = dec.Decode()
	var fe *FrameError
	if !errors.As(err, &fe) {
		t.Fatalf("expect FrameError, got %v", err)
	}

	decoded, err := dec.Decode()
	if err != nil {
		t.Fatalf("stream should survive a malformed frame, got %v", err)
	}
	if req, ok := decoded.(message.Request); !ok || req.ID != 1 {
		t.Fatalf("expect request id 1 after skip, got %+v", decoded)
	}
}

func TestJSONMalformedFrameIsSkippable(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("[0]\n") // an array, but not a message shape

	c := &JSONCodec{}
	if err := c.NewEncoder(&buf).Encode(message.NewNotification("tick")); err != nil {
		t.Fatal(err)
	}

	dec := c.NewDecoder(&buf)
	_, err := dec.Decode()
	var fe *FrameError
	if !errors.As(err, &fe) {
		t.Fatalf("expect FrameError, got %v", err)
	}
	if _, err := dec.Decode(); err != nil {
		t.Fatalf("stream should survive a malformed frame, got %v", err)
	}
}

func TestDecodeEOF(t *testing.T) {
	dec := (&MsgpackCodec{}).NewDecoder(bytes.NewReader(nil))
	if _, err := dec.Decode(); !errors.Is(err, io.EOF) {
		t.Fatalf("expect EOF on empty stream, got %v", err)
	}
}

func TestUnknownTypeIsFrameError(t *testing.T) {
	var buf bytes.Buffer
	raw, err := msgpack.Marshal([]any{9, 1, "m", []any{}})
	if err != nil {
		t.Fatal(err)
	}
	buf.Write(raw)

	_, err = (&MsgpackCodec{}).NewDecoder(&buf).Decode()
	var fe *FrameError
	if !errors.As(err, &fe) {
		t.Fatalf("expect FrameError for unknown type, got %v", err)
	}
}
