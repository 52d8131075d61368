package server

import (
	"context"
	"encoding/json"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

type callParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Handle answers one JSON-RPC request. Its signature matches
// middleware.HandlerFunc and transport.HandlerFunc. Notifications yield a nil
// response.
func (s *Server) Handle(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	switch req.Method {
	case protocol.MethodInitialize:
		return protocol.NewResponse(req.ID, s.initializeResult()), nil
	case protocol.MethodPing:
		return protocol.NewResponse(req.ID, map[string]any{}), nil
	case protocol.MethodToolsList:
		return protocol.NewResponse(req.ID, map[string]any{"tools": s.Tools()}), nil
	case protocol.MethodToolsCall:
		return s.handleToolsCall(ctx, req)
	}

	if req.IsNotification() {
		// initialized, cancelled and anything else we do not act on.
		return nil, nil
	}
	return nil, protocol.NewMethodNotFound(req.Method)
}

func (s *Server) handleToolsCall(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	var params callParams
	if len(req.Params) == 0 {
		return nil, protocol.NewInvalidParams("missing params")
	}
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, protocol.NewInvalidParams(err.Error())
	}
	if params.Name == "" {
		return nil, protocol.NewInvalidParams("missing tool name")
	}

	tool, ok := s.GetTool(params.Name)
	if !ok {
		return nil, protocol.NewNotFound("tool not found: " + params.Name)
	}

	result, err := tool.Execute(ctx, params.Arguments)
	if err != nil {
		return nil, err
	}
	return protocol.NewResponse(req.ID, result), nil
}
