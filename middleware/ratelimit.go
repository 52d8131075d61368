package middleware

import (
	"context"
	"net"
	"time"

	"github.com/felixgeelhaar/fortify/ratelimit"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

// RateLimitOption configures the rate limiter.
type RateLimitOption func(*rateLimitConfig)

type rateLimitConfig struct {
	keyFunc func(context.Context, *protocol.Request) string
	skip    func(*protocol.Request) bool
	logger  Logger
}

// WithRateLimitKeyFunc sets the function that picks the bucket for a request.
func WithRateLimitKeyFunc(fn func(context.Context, *protocol.Request) string) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.keyFunc = fn
	}
}

// WithRateLimitLogger sets the logger for rate limit events.
func WithRateLimitLogger(l Logger) RateLimitOption {
	return func(o *rateLimitConfig) {
		o.logger = l
	}
}

// RateLimit returns middleware that limits inbound requests with a token
// bucket of rate requests per second and the given burst. Requests over the
// limit fail with a rate limited error and never reach the handler.
func RateLimit(rate int, burst int, opts ...RateLimitOption) Middleware {
	cfg := &rateLimitConfig{
		keyFunc: func(context.Context, *protocol.Request) string { return "global" },
	}
	for _, opt := range opts {
		opt(cfg)
	}

	limiter := ratelimit.New(&ratelimit.Config{
		Rate:     rate,
		Burst:    burst,
		Interval: time.Second,
	})

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if cfg.skip != nil && cfg.skip(req) {
				return next(ctx, req)
			}

			key := cfg.keyFunc(ctx, req)
			if !limiter.Allow(ctx, key) {
				if cfg.logger != nil {
					cfg.logger.Warn("rate limit exceeded",
						F("method", req.Method),
						F("tool", req.ToolName()),
						F("key", key),
					)
				}
				return nil, protocol.NewRateLimited("rate limit exceeded")
			}

			return next(ctx, req)
		}
	}
}

// RateLimitToolCalls limits tools/call requests only, with one bucket per
// tool. Handshake and listing requests pass through.
func RateLimitToolCalls(rate int, burst int, opts ...RateLimitOption) Middleware {
	allOpts := append([]RateLimitOption{
		WithRateLimitKeyFunc(func(_ context.Context, req *protocol.Request) string {
			return "tool:" + req.ToolName()
		}),
		skipNonToolCalls,
	}, opts...)
	return RateLimit(rate, burst, allOpts...)
}

// RateLimitByClient limits tools/call requests per peer host, keyed on the
// remote address recorded by the transport without its port. Stdio requests
// share one bucket.
func RateLimitByClient(rate int, burst int, opts ...RateLimitOption) Middleware {
	allOpts := append([]RateLimitOption{
		WithRateLimitKeyFunc(func(ctx context.Context, _ *protocol.Request) string {
			addr := protocol.GetRequestMeta(ctx, protocol.MetaRemoteAddr)
			if addr == "" {
				return "client:local"
			}
			if host, _, err := net.SplitHostPort(addr); err == nil {
				addr = host
			}
			return "client:" + addr
		}),
		skipNonToolCalls,
	}, opts...)
	return RateLimit(rate, burst, allOpts...)
}

func skipNonToolCalls(o *rateLimitConfig) {
	o.skip = func(req *protocol.Request) bool { return req.Method != protocol.MethodToolsCall }
}
