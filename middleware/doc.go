// Package middleware wraps MCP request handling with cross-cutting behaviour.
//
// Middleware follows the usual wrapping pattern: each one receives the next
// handler and returns a new one.
//
//	handler := middleware.Chain(
//	    middleware.Recover(),
//	    middleware.RequestID(),
//	    middleware.Logging(middleware.NewSlogLogger(logger)),
//	)(srv.Handle)
//
// Available middleware:
//
//   - Recover: turns handler panics into internal errors
//   - RequestID: stores a per-request UUID in the context
//   - Timeout: bounds how long a request (and its Telegram call) may run
//   - Logging: records method, tool, duration and outcome
//   - SizeLimit: rejects oversized params
//   - RateLimit: token bucket on inbound requests
//   - OTel: spans and metrics
//
// DefaultStack assembles these from StackOptions.
package middleware
