package endpoint

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/andreluisos/jnvim/message"
)

var (
	ctxType   = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType = reflect.TypeOf((*error)(nil)).Elem()
)

type methodType struct {
	method    reflect.Method
	argTypes  []reflect.Type // declared parameters, receiver and ctx excluded
	hasCtx    bool
	hasResult bool
}

// service exposes the exported methods of a receiver struct as RPC targets.
// Accepted signatures, with an optional leading context.Context:
//
//	func (r *Recv) M(a A, b B) error
//	func (r *Recv) M(a A, b B) (Result, error)
type service struct {
	name    string
	rcvr    reflect.Value
	methods map[string]*methodType
}

func newService(rcvr any) (*service, error) {
	typ := reflect.TypeOf(rcvr)
	if typ == nil || typ.Kind() != reflect.Ptr {
		return nil, errors.New("endpoint: receiver must be a pointer to a struct")
	}
	if typ.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("endpoint: receiver must point to a struct, got %s", typ.Elem().Kind())
	}
	s := &service{
		name:    typ.Elem().Name(),
		rcvr:    reflect.ValueOf(rcvr),
		methods: make(map[string]*methodType),
	}
	for i := 0; i < typ.NumMethod(); i++ {
		m := typ.Method(i)
		if mt, ok := scanMethod(m); ok {
			s.methods[m.Name] = mt
		}
	}
	if len(s.methods) == 0 {
		return nil, fmt.Errorf("endpoint: %s has no usable RPC methods", s.name)
	}
	return s, nil
}

func scanMethod(m reflect.Method) (*methodType, bool) {
	t := m.Type
	switch t.NumOut() {
	case 1:
		if t.Out(0) != errorType {
			return nil, false
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, false
		}
	default:
		return nil, false
	}

	mt := &methodType{method: m, hasResult: t.NumOut() == 2}
	first := 1 // skip the receiver
	if t.NumIn() > 1 && t.In(1) == ctxType {
		mt.hasCtx = true
		first = 2
	}
	for i := first; i < t.NumIn(); i++ {
		mt.argTypes = append(mt.argTypes, t.In(i))
	}
	return mt, true
}

// call invokes the named method with positional arguments converted to the
// declared parameter types.
func (s *service) call(ctx context.Context, name string, args []any) (any, *message.Error) {
	mt, ok := s.methods[name]
	if !ok {
		return nil, &message.Error{
			Code:    message.CodeUnknownMethod,
			Message: fmt.Sprintf("unknown method %s.%s", s.name, name),
		}
	}
	if len(args) != len(mt.argTypes) {
		return nil, &message.Error{
			Code:    message.CodeBadArguments,
			Message: fmt.Sprintf("%s.%s takes %d arguments, got %d", s.name, name, len(mt.argTypes), len(args)),
		}
	}

	in := make([]reflect.Value, 0, len(args)+2)
	in = append(in, s.rcvr)
	if mt.hasCtx {
		in = append(in, reflect.ValueOf(ctx))
	}
	for i, arg := range args {
		v, err := convertArg(arg, mt.argTypes[i])
		if err != nil {
			return nil, &message.Error{
				Code:    message.CodeBadArguments,
				Message: fmt.Sprintf("argument %d: %v", i, err),
			}
		}
		in = append(in, v)
	}

	out := mt.method.Func.Call(in)
	errv := out[len(out)-1]
	if !errv.IsNil() {
		return nil, toRPCError(errv.Interface().(error))
	}
	if mt.hasResult {
		return out[0].Interface(), nil
	}
	return nil, nil
}

// convertArg bridges the untyped decoded value to the declared parameter
// type. Decoded integers arrive as int64 (msgpack) or float64 (JSON), so
// numeric conversions are allowed; everything else must be assignable.
func convertArg(v any, t reflect.Type) (reflect.Value, error) {
	if v == nil {
		switch t.Kind() {
		case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func:
			return reflect.Zero(t), nil
		default:
			return reflect.Value{}, fmt.Errorf("nil is not a valid %s", t)
		}
	}
	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(t) {
		return rv, nil
	}
	if isNumeric(rv.Kind()) && isNumeric(t.Kind()) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", v, t)
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	default:
		return false
	}
}

// toRPCError keeps a handler-supplied *message.Error as-is and wraps any
// other error as internal.
func toRPCError(err error) *message.Error {
	var rpcErr *message.Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}
	return &message.Error{Code: message.CodeInternal, Message: err.Error()}
}
