package transport

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

// Handler processes incoming MCP requests.
type Handler interface {
	HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error)
}

// HandlerFunc is an adapter to allow ordinary functions as handlers.
type HandlerFunc func(ctx context.Context, req *protocol.Request) (*protocol.Response, error)

// HandleRequest calls f(ctx, req).
func (f HandlerFunc) HandleRequest(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	return f(ctx, req)
}

// Transport defines the communication layer interface.
type Transport interface {
	// Serve blocks until ctx is canceled, the peer goes away or an error
	// occurs.
	Serve(ctx context.Context, handler Handler) error

	// Addr returns the transport's address description.
	Addr() string
}

// dispatch decodes one JSON-RPC message, runs it through handler and returns
// the response to write, or nil when nothing must be written.
func dispatch(ctx context.Context, handler Handler, raw []byte, logger *slog.Logger) *protocol.Response {
	var req protocol.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		logger.Debug("discarding malformed message", slog.String("error", err.Error()))
		return protocol.NewErrorResponse(nil, protocol.NewParseError(err.Error()))
	}
	if req.Method == "" {
		if req.IsNotification() {
			// A stray response from the client; nothing to answer.
			return nil
		}
		return protocol.NewErrorResponse(req.ID, protocol.NewInvalidRequest("missing method"))
	}

	resp, err := handler.HandleRequest(ctx, &req)
	if req.IsNotification() {
		return nil
	}
	if err != nil {
		return protocol.ErrorResponse(req.ID, err)
	}
	return resp
}
