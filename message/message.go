// Package message defines the msgpack-rpc message model: requests, responses
// and notifications, plus the id generator used to correlate requests with
// their responses.
//
// Every message is a positional array on the wire, with the type discriminant
// first so a decoder can pick the variant while streaming:
//
//	Request      [0, id, method, args]
//	Response     [1, id, error, result]
//	Notification [2, method, args]
//
// Values are immutable once built. Requests are produced through
// RequestBuilder so the id can be attached late, immediately before the
// message is handed to the sender.
package message

import "fmt"

// Type discriminates the three message variants. The numeric values are the
// msgpack-rpc wire values and must not change.
type Type int

const (
	TypeRequest      Type = 0
	TypeResponse     Type = 1
	TypeNotification Type = 2
)

func (t Type) String() string {
	switch t {
	case TypeRequest:
		return "request"
	case TypeResponse:
		return "response"
	case TypeNotification:
		return "notification"
	default:
		return fmt.Sprintf("type(%d)", int(t))
	}
}

// Message is the sum type over Request, Response and Notification.
type Message interface {
	Type() Type
}

// Request is a method invocation expecting a response with the same id.
// Args are positional; their order is part of the call's meaning.
type Request struct {
	ID     uint32
	Method string
	Args   []any
}

func (Request) Type() Type { return TypeRequest }

func (r Request) String() string {
	return fmt.Sprintf("Request{id=%d, method=%q, args=%v}", r.ID, r.Method, r.Args)
}

// Response answers the request with the same ID. Exactly one of Err and
// Result is expected to be set, but this is not validated: when both are
// present a non-nil Err takes precedence, and both absent is a legal (if
// useless) empty success.
type Response struct {
	ID     uint32
	Err    *Error
	Result any
}

func (Response) Type() Type { return TypeResponse }

func (r Response) String() string {
	return fmt.Sprintf("Response{id=%d, err=%v, result=%v}", r.ID, r.Err, r.Result)
}

// Notification is a one-way invocation. It carries no id and never
// produces a response.
type Notification struct {
	Method string
	Args   []any
}

func (Notification) Type() Type { return TypeNotification }

func (n Notification) String() string {
	return fmt.Sprintf("Notification{method=%q, args=%v}", n.Method, n.Args)
}

// Error is an application-level RPC failure carried inside a Response.
// Code classifies the failure; it lives in a different namespace than
// message ids.
type Error struct {
	Code    int64
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// NewResponse builds a response for the given request id. Either err or
// result may be nil; see Response for the precedence rule.
func NewResponse(id uint32, err *Error, result any) Response {
	return Response{ID: id, Err: err, Result: result}
}

// NewNotification builds a one-way notification.
func NewNotification(method string, args ...any) Notification {
	return Notification{Method: method, Args: argsCopy(args)}
}

// RequestBuilder accumulates a method name and positional arguments for a
// Request. The id is attached by Build, which the streamer calls just before
// handing the message to the sender; callers normally never pick ids
// themselves.
type RequestBuilder struct {
	method string
	args   []any
}

// NewRequest starts a builder for the given method, optionally with initial
// arguments. More arguments may be appended with Arg and Args.
func NewRequest(method string, args ...any) *RequestBuilder {
	return &RequestBuilder{method: method, args: argsCopy(args)}
}

// Arg appends a single positional argument.
func (b *RequestBuilder) Arg(arg any) *RequestBuilder {
	b.args = append(b.args, arg)
	return b
}

// Args appends all given arguments in order.
func (b *RequestBuilder) Args(args ...any) *RequestBuilder {
	b.args = append(b.args, args...)
	return b
}

// Method returns the method name the builder was created with.
func (b *RequestBuilder) Method() string { return b.method }

// Build produces an independent Request with the given id. Multiple calls
// return distinct instances that do not share argument storage.
func (b *RequestBuilder) Build(id uint32) Request {
	return Request{ID: id, Method: b.method, Args: argsCopy(b.args)}
}

func argsCopy(args []any) []any {
	out := make([]any, len(args))
	copy(out, args)
	return out
}
