package codec

import (
	"math"

	"github.com/andreluisos/jnvim/message"
)

// toWire flattens a message into its positional-array form. The field order
// is fixed per variant and is the wire contract shared by all codecs.
func toWire(msg message.Message) ([]any, error) {
	switch m := msg.(type) {
	case message.Request:
		return []any{int(message.TypeRequest), m.ID, m.Method, nonNilArgs(m.Args)}, nil
	case message.Notification:
		return []any{int(message.TypeNotification), m.Method, nonNilArgs(m.Args)}, nil
	case message.Response:
		var errv any
		if m.Err != nil {
			errv = []any{m.Err.Code, m.Err.Message}
		}
		return []any{int(message.TypeResponse), m.ID, errv, m.Result}, nil
	default:
		return nil, frameErrorf("unknown message variant %T", msg)
	}
}

// fromWire rebuilds a message from a decoded generic value. All shape
// violations come back as *FrameError because by the time this runs the
// stream has already consumed a complete value.
func fromWire(v any) (message.Message, error) {
	arr, ok := v.([]any)
	if !ok || len(arr) == 0 {
		return nil, frameErrorf("expected non-empty array, got %T", v)
	}
	typ, ok := asInt64(arr[0])
	if !ok {
		return nil, frameErrorf("type discriminant is %T, not an integer", arr[0])
	}

	switch message.Type(typ) {
	case message.TypeRequest:
		if len(arr) != 4 {
			return nil, frameErrorf("request has %d elements, want 4", len(arr))
		}
		id, ok := asUint32(arr[1])
		if !ok {
			return nil, frameErrorf("request id is %T, not an integer", arr[1])
		}
		method, ok := arr[2].(string)
		if !ok {
			return nil, frameErrorf("request method is %T, not a string", arr[2])
		}
		args, ok := asArgs(arr[3])
		if !ok {
			return nil, frameErrorf("request arguments are %T, not an array", arr[3])
		}
		return message.Request{ID: id, Method: method, Args: args}, nil

	case message.TypeResponse:
		if len(arr) != 4 {
			return nil, frameErrorf("response has %d elements, want 4", len(arr))
		}
		id, ok := asUint32(arr[1])
		if !ok {
			return nil, frameErrorf("response id is %T, not an integer", arr[1])
		}
		rpcErr, err := asRPCError(arr[2])
		if err != nil {
			return nil, err
		}
		return message.Response{ID: id, Err: rpcErr, Result: arr[3]}, nil

	case message.TypeNotification:
		if len(arr) != 3 {
			return nil, frameErrorf("notification has %d elements, want 3", len(arr))
		}
		method, ok := arr[1].(string)
		if !ok {
			return nil, frameErrorf("notification method is %T, not a string", arr[1])
		}
		args, ok := asArgs(arr[2])
		if !ok {
			return nil, frameErrorf("notification arguments are %T, not an array", arr[2])
		}
		return message.Notification{Method: method, Args: args}, nil

	default:
		return nil, frameErrorf("unknown message type %d", typ)
	}
}

func nonNilArgs(args []any) []any {
	if args == nil {
		return []any{}
	}
	return args
}

func asArgs(v any) ([]any, bool) {
	if v == nil {
		return []any{}, true
	}
	arr, ok := v.([]any)
	return arr, ok
}

func asRPCError(v any) (*message.Error, error) {
	if v == nil {
		return nil, nil
	}
	arr, ok := v.([]any)
	if !ok || len(arr) != 2 {
		return nil, frameErrorf("response error is %T, not a [code, message] pair", v)
	}
	code, ok := asInt64(arr[0])
	if !ok {
		return nil, frameErrorf("error code is %T, not an integer", arr[0])
	}
	msg, ok := arr[1].(string)
	if !ok {
		return nil, frameErrorf("error message is %T, not a string", arr[1])
	}
	return &message.Error{Code: code, Message: msg}, nil
}

// asInt64 accepts every integer width the codecs may produce. JSON surfaces
// numbers as float64, so integral floats are accepted too.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}

func asUint32(v any) (uint32, bool) {
	n, ok := asInt64(v)
	if !ok || n < 0 || n > math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}
