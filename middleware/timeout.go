package middleware

import (
	"context"
	"time"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

// Timeout returns middleware that bounds each request. The deadline reaches
// the outbound Telegram call through the context, which then fails with
// context.DeadlineExceeded.
func Timeout(d time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if d <= 0 {
				return next(ctx, req)
			}
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return next(ctx, req)
		}
	}
}
