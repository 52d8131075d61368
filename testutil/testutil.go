// Package testutil drives an MCP handler in memory for tests.
//
//	srv := server.New(server.Info{Name: "telegram"})
//	tools.Register(srv, fakeAPI)
//
//	tc := testutil.NewTestClient(t, srv)
//	res, err := tc.CallTool("sendMessage", map[string]any{"chatId": 1, "text": "hi"})
//
// Requests and responses are encoded to JSON and back, so tests observe the
// same shapes a real client would.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
	"github.com/felixgeelhaar/telegram-mcp/server"
	"github.com/felixgeelhaar/telegram-mcp/transport"
)

// TestClient is an in-memory MCP client.
type TestClient struct {
	t       testing.TB
	handler transport.Handler
	reqID   atomic.Int64
}

// Tool is a tools/list entry as seen by a client.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
	Annotations map[string]any  `json:"annotations,omitempty"`
}

// CallResult is a decoded tools/call result.
type CallResult struct {
	Content []server.Content `json:"content"`
	IsError bool             `json:"isError"`
}

// Text joins the text of all content blocks.
func (r *CallResult) Text() string {
	var sb strings.Builder
	for _, c := range r.Content {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// NewTestClient creates a client for srv and performs the initialize
// handshake.
func NewTestClient(t testing.TB, srv *server.Server) *TestClient {
	t.Helper()
	tc := NewTestClientWithHandler(t, transport.HandlerFunc(srv.Handle))
	if _, err := tc.Initialize(); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	return tc
}

// NewTestClientWithHandler creates a client for an arbitrary handler, such as
// a server wrapped in middleware. No handshake is performed.
func NewTestClientWithHandler(t testing.TB, handler transport.Handler) *TestClient {
	t.Helper()
	return &TestClient{t: t, handler: handler}
}

// SendRequest sends method with params and returns the response with Result
// holding the raw JSON result. Handler errors are turned into error
// responses the way a transport would.
func (tc *TestClient) SendRequest(method string, params any) (*protocol.Response, error) {
	tc.t.Helper()

	req := &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      json.RawMessage(fmt.Sprintf("%d", tc.reqID.Add(1))),
		Method:  method,
	}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("marshal params: %w", err)
		}
		req.Params = data
	}

	wire, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var decoded protocol.Request
	if err := json.Unmarshal(wire, &decoded); err != nil {
		return nil, err
	}

	resp, err := tc.handler.HandleRequest(context.Background(), &decoded)
	if err != nil {
		resp = protocol.ErrorResponse(decoded.ID, err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response to %s", method)
	}

	data, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("marshal response: %w", err)
	}
	var out struct {
		ID     json.RawMessage `json:"id"`
		Result json.RawMessage `json:"result"`
		Error  *protocol.Error `json:"error"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return &protocol.Response{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      out.ID,
		Result:  out.Result,
		Error:   out.Error,
	}, nil
}

func (tc *TestClient) call(method string, params any, out any) error {
	tc.t.Helper()
	resp, err := tc.SendRequest(method, params)
	if err != nil {
		return err
	}
	if resp.Error != nil {
		return resp.Error
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(resp.Result.(json.RawMessage), out)
}

// Initialize sends an initialize request.
func (tc *TestClient) Initialize() (map[string]any, error) {
	tc.t.Helper()
	var result map[string]any
	err := tc.call(protocol.MethodInitialize, map[string]any{
		"protocolVersion": protocol.MCPVersion,
		"clientInfo":      map[string]any{"name": "test-client", "version": "1.0.0"},
		"capabilities":    map[string]any{},
	}, &result)
	return result, err
}

// Ping sends a ping request.
func (tc *TestClient) Ping() error {
	tc.t.Helper()
	return tc.call(protocol.MethodPing, nil, nil)
}

// ListTools lists the registered tools.
func (tc *TestClient) ListTools() ([]Tool, error) {
	tc.t.Helper()
	var result struct {
		Tools []Tool `json:"tools"`
	}
	if err := tc.call(protocol.MethodToolsList, nil, &result); err != nil {
		return nil, err
	}
	return result.Tools, nil
}

// CallTool invokes a tool. A tool that fails still returns a result with
// IsError set; err is non-nil only for JSON-RPC errors.
func (tc *TestClient) CallTool(name string, args any) (*CallResult, error) {
	tc.t.Helper()
	var result CallResult
	err := tc.call(protocol.MethodToolsCall, map[string]any{
		"name":      name,
		"arguments": args,
	}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// AssertToolExists fails the test unless a tool named name is listed.
func (tc *TestClient) AssertToolExists(name string) {
	tc.t.Helper()
	tools, err := tc.ListTools()
	if err != nil {
		tc.t.Fatalf("ListTools failed: %v", err)
	}
	for _, tool := range tools {
		if tool.Name == name {
			return
		}
	}
	tc.t.Errorf("tool %q not found", name)
}
