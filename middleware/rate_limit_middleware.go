package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/andreluisos/jnvim/message"
)

// RateLimit rejects requests beyond a token-bucket budget of r per second
// with a burst allowance, answering them with CodeRateLimited.
func RateLimit(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req message.Request) (any, *message.Error) {
			if !limiter.Allow() {
				return nil, &message.Error{Code: message.CodeRateLimited, Message: "rate limit exceeded"}
			}
			return next(ctx, req)
		}
	}
}
