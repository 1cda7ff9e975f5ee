package message

import (
	"fmt"
	"testing"
)

func TestRequestBuilder(t *testing.T) {
	b := NewRequest("echo").Arg("hi").Args(1, true)

	req := b.Build(7)
	if req.Type() != TypeRequest {
		t.Fatalf("expect type %v, got %v", TypeRequest, req.Type())
	}
	if req.ID != 7 {
		t.Fatalf("expect id 7, got %d", req.ID)
	}
	if req.Method != "echo" {
		t.Fatalf("expect method echo, got %s", req.Method)
	}
	if len(req.Args) != 3 || req.Args[0] != "hi" || req.Args[1] != 1 || req.Args[2] != true {
		t.Fatalf("unexpected args: %v", req.Args)
	}
}

func TestRequestBuilderIndependentInstances(t *testing.T) {
	b := NewRequest("echo", "a")

	first := b.Build(0)
	second := b.Build(1)

	// Appending after a build must not leak into already-built messages.
	b.Arg("b")
	third := b.Build(2)

	if len(first.Args) != 1 || len(second.Args) != 1 {
		t.Fatalf("earlier builds grew: %v / %v", first.Args, second.Args)
	}
	if len(third.Args) != 2 {
		t.Fatalf("expect 2 args in third build, got %v", third.Args)
	}
	if first.ID == second.ID {
		t.Fatalf("builds share the id %d", first.ID)
	}

	// Mutating one instance's arg storage must not touch its siblings.
	third.Args[0] = "mutated"
	fourth := b.Build(3)
	if fourth.Args[0] != "a" {
		t.Fatalf("builds share arg storage: %v", fourth.Args)
	}
}

func TestRequestBuilderInitialArgsCopied(t *testing.T) {
	initial := []any{1, 2}
	b := NewRequest("sum", initial...)
	initial[0] = 99

	req := b.Build(0)
	if req.Args[0] != 1 {
		t.Fatalf("builder shares the caller's slice: %v", req.Args)
	}
}

func TestResponseErrorPrecedence(t *testing.T) {
	rpcErr := &Error{Code: 3, Message: "boom"}
	resp := NewResponse(9, rpcErr, "ignored")

	if resp.Type() != TypeResponse {
		t.Fatalf("expect type %v, got %v", TypeResponse, resp.Type())
	}
	if resp.ID != 9 {
		t.Fatalf("expect id 9, got %d", resp.ID)
	}
	// Both fields may be set; a non-nil Err wins.
	if resp.Err == nil || resp.Err.Code != 3 {
		t.Fatalf("expect error code 3, got %v", resp.Err)
	}

	// Both absent is legal too.
	empty := NewResponse(1, nil, nil)
	if empty.Err != nil || empty.Result != nil {
		t.Fatalf("expect empty response, got %+v", empty)
	}
}

func TestNotification(t *testing.T) {
	n := NewNotification("tick", 1, 2)
	if n.Type() != TypeNotification {
		t.Fatalf("expect type %v, got %v", TypeNotification, n.Type())
	}
	if n.Method != "tick" || len(n.Args) != 2 {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestErrorImplementsError(t *testing.T) {
	var err error = &Error{Code: -1, Message: "nope"}
	if err.Error() != "rpc error -1: nope" {
		t.Fatalf("unexpected error text: %s", err.Error())
	}
}

func TestTypeString(t *testing.T) {
	cases := []struct {
		typ  Type
		want string
	}{
		{TypeRequest, "request"},
		{TypeResponse, "response"},
		{TypeNotification, "notification"},
		{Type(9), "type(9)"},
	}
	for _, tc := range cases {
		if got := fmt.Sprint(tc.typ); got != tc.want {
			t.Errorf("Type(%d): expect %q, got %q", int(tc.typ), tc.want, got)
		}
	}
}
