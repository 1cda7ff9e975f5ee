// Package middleware decorates endpoint handlers. Middlewares compose as an
// onion: Chain(A, B, C)(handler) runs A before B before C before the handler,
// and unwinds in reverse.
package middleware

import (
	"context"

	"github.com/andreluisos/jnvim/message"
)

// HandlerFunc processes one inbound request and produces either a result or
// an RPC error to be carried back in the response.
type HandlerFunc func(ctx context.Context, req message.Request) (any, *message.Error)

// Middleware wraps a handler with extra behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middlewares into one, applied left to right.
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}
