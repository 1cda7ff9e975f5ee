package middleware

import (
	"context"
	"time"

	"github.com/andreluisos/jnvim/message"
)

type handlerResult struct {
	result any
	err    *message.Error
}

// Timeout bounds handler execution. A handler that overruns gets its context
// cancelled and the caller receives a CodeTimeout error; the handler
// goroutine is left to finish on its own.
func Timeout(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req message.Request) (any, *message.Error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan handlerResult, 1)
			go func() {
				result, err := next(ctx, req)
				done <- handlerResult{result: result, err: err}
			}()

			select {
			case r := <-done:
				return r.result, r.err
			case <-ctx.Done():
				return nil, &message.Error{Code: message.CodeTimeout, Message: "request timed out"}
			}
		}
	}
}
