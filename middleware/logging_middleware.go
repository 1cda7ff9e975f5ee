package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/andreluisos/jnvim/message"
)

// Logging records every handled request with its method, duration and
// outcome.
func Logging(log *zap.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req message.Request) (any, *message.Error) {
			start := time.Now()
			result, rpcErr := next(ctx, req)
			fields := []zap.Field{
				zap.String("method", req.Method),
				zap.Uint32("id", req.ID),
				zap.Duration("duration", time.Since(start)),
			}
			if rpcErr != nil {
				fields = append(fields, zap.Int64("code", rpcErr.Code), zap.String("error", rpcErr.Message))
				log.Warn("request failed", fields...)
				return result, rpcErr
			}
			log.Info("request handled", fields...)
			return result, nil
		}
	}
}
