package middleware

import (
	"context"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

// HandlerFunc handles one JSON-RPC request. server.Server.Handle has this
// signature.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// Middleware wraps a handler with additional behavior.
type Middleware func(next HandlerFunc) HandlerFunc

// Chain composes middleware so that Chain(m1, m2, m3)(h) runs m1, then m2,
// then m3, then h.
func Chain(middlewares ...Middleware) Middleware {
	return func(final HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			if middlewares[i] == nil {
				continue
			}
			final = middlewares[i](final)
		}
		return final
	}
}
