package testutil_test

import (
	"context"
	"errors"
	"testing"

	"github.com/felixgeelhaar/telegram-mcp/middleware"
	"github.com/felixgeelhaar/telegram-mcp/protocol"
	"github.com/felixgeelhaar/telegram-mcp/server"
	"github.com/felixgeelhaar/telegram-mcp/testutil"
	"github.com/felixgeelhaar/telegram-mcp/transport"
)

type greetInput struct {
	Name string `json:"name" jsonschema:"required"`
}

func newServer(t *testing.T) *server.Server {
	t.Helper()
	srv := server.New(server.Info{Name: "test-server", Version: "1.0.0"})
	srv.Tool("greet").
		Description("Greet someone").
		ReadOnly().
		Handler(func(ctx context.Context, in greetInput) (string, error) {
			return "Hello, " + in.Name + "!", nil
		})
	srv.Tool("fail").
		Handler(func(ctx context.Context, in struct{}) (string, error) {
			return "", errors.New("intentional error")
		})
	srv.Tool("panic").
		Handler(func(ctx context.Context, in struct{}) (string, error) {
			panic("kaboom")
		})
	return srv
}

func TestTestClient(t *testing.T) {
	client := testutil.NewTestClient(t, newServer(t))

	t.Run("Initialize", func(t *testing.T) {
		result, err := client.Initialize()
		if err != nil {
			t.Fatalf("Initialize failed: %v", err)
		}
		info, _ := result["serverInfo"].(map[string]any)
		if info["name"] != "test-server" {
			t.Errorf("serverInfo = %v", result["serverInfo"])
		}
	})

	t.Run("Ping", func(t *testing.T) {
		if err := client.Ping(); err != nil {
			t.Fatalf("Ping failed: %v", err)
		}
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := client.ListTools()
		if err != nil {
			t.Fatalf("ListTools failed: %v", err)
		}
		if len(tools) != 3 || tools[0].Name != "greet" {
			t.Fatalf("tools = %+v", tools)
		}
		if tools[0].Annotations["readOnlyHint"] != true {
			t.Errorf("annotations = %v", tools[0].Annotations)
		}
		client.AssertToolExists("fail")
	})

	t.Run("CallTool", func(t *testing.T) {
		res, err := client.CallTool("greet", map[string]any{"name": "World"})
		if err != nil {
			t.Fatalf("CallTool failed: %v", err)
		}
		if res.IsError || res.Text() != "Hello, World!" {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("CallTool error result", func(t *testing.T) {
		res, err := client.CallTool("fail", map[string]any{})
		if err != nil {
			t.Fatalf("CallTool failed: %v", err)
		}
		if !res.IsError || res.Text() != "Error: intentional error" {
			t.Errorf("result = %+v", res)
		}
	})

	t.Run("CallTool unknown tool", func(t *testing.T) {
		_, err := client.CallTool("missing", map[string]any{})
		if !errors.Is(err, protocol.NewNotFound("")) {
			t.Errorf("error = %v, want not found", err)
		}
	})
}

func TestTestClientWithHandler(t *testing.T) {
	srv := newServer(t)
	handler := middleware.Chain(middleware.Recover())(srv.Handle)
	client := testutil.NewTestClientWithHandler(t, transport.HandlerFunc(handler))

	_, err := client.CallTool("panic", map[string]any{})
	var rpcErr *protocol.Error
	if !errors.As(err, &rpcErr) || rpcErr.Code != protocol.CodeInternalError {
		t.Fatalf("error = %v, want internal error", err)
	}
	if rpcErr.Message != "panic: kaboom" {
		t.Errorf("message = %q", rpcErr.Message)
	}
}
