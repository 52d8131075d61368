package middleware

import "time"

// Rate limit keys for StackOptions.RateLimitBy.
const (
	RateLimitPerTool   = "tool"
	RateLimitPerClient = "client"
)

// StackOptions selects the optional parts of the default stack. Zero values
// disable the corresponding middleware.
type StackOptions struct {
	Timeout   time.Duration
	RateLimit int
	RateBurst int
	MaxBytes  int64
	Telemetry []OTelOption

	// RateLimitBy is RateLimitPerTool (default) or RateLimitPerClient.
	RateLimitBy string

	// EnableOTel installs the OTel middleware.
	EnableOTel bool
}

// DefaultStack returns the production stack for the telegram server:
// recovery, request IDs, tracing, logging, then the optional size limit,
// rate limit and timeout.
func DefaultStack(logger Logger, opts StackOptions) []Middleware {
	stack := []Middleware{
		Recover(WithPanicLogger(logger)),
		RequestID(),
	}
	if opts.EnableOTel {
		stack = append(stack, OTel(opts.Telemetry...))
	}
	stack = append(stack, Logging(logger))
	if opts.MaxBytes > 0 {
		stack = append(stack, SizeLimit(opts.MaxBytes, WithSizeLimitLogger(logger)))
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = opts.RateLimit
		}
		limit := RateLimitToolCalls
		if opts.RateLimitBy == RateLimitPerClient {
			limit = RateLimitByClient
		}
		stack = append(stack, limit(opts.RateLimit, burst, WithRateLimitLogger(logger)))
	}
	if opts.Timeout > 0 {
		stack = append(stack, Timeout(opts.Timeout))
	}
	return stack
}
