package rpc

import (
	"sync"
	"unsafe"

	"github.com/andreluisos/jnvim/message"
)

// ResponseCallback fires exactly once, with the response whose id matches the
// originating request.
type ResponseCallback func(id uint32, resp message.Response)

// RequestCallback observes every inbound request.
type RequestCallback func(req message.Request)

// NotificationCallback observes every inbound notification.
type NotificationCallback func(n message.Notification)

// callbackSet is an insertion-ordered set keyed by callback identity.
// Registering the same function value twice is a no-op, removing an absent
// one is a no-op. Broadcast iterates over a snapshot, so observers may be
// added or removed from inside a callback without corrupting the iteration.
type callbackSet[T any] struct {
	mu      sync.Mutex
	entries []callbackEntry[T]
}

type callbackEntry[T any] struct {
	key uintptr
	cb  T
}

// callbackKey returns the identity of a callback value: the address of its
// underlying function object. reflect's Pointer would give the code pointer
// instead, which closures built from the same literal share, so it cannot
// tell two closure instances apart. The function-object address can: every
// closure allocation is its own object, while a named function or repeated
// references to the same func value share one.
func callbackKey[T any](cb T) uintptr {
	return *(*uintptr)(unsafe.Pointer(&cb))
}

func (s *callbackSet[T]) add(cb T) bool {
	key := callbackKey(cb)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.entries {
		if e.key == key {
			return false
		}
	}
	s.entries = append(s.entries, callbackEntry[T]{key: key, cb: cb})
	return true
}

func (s *callbackSet[T]) remove(cb T) bool {
	key := callbackKey(cb)
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.entries {
		if e.key == key {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (s *callbackSet[T]) snapshot() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]T, len(s.entries))
	for i, e := range s.entries {
		out[i] = e.cb
	}
	return out
}
