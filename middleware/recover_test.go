package middleware

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

func TestRecover(t *testing.T) {
	t.Run("passes through normal responses", func(t *testing.T) {
		resp, err := Recover()(okHandler)(context.Background(), toolCall("getChat"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp == nil {
			t.Fatal("expected response")
		}
	})

	t.Run("passes through errors", func(t *testing.T) {
		expectedErr := errors.New("handler error")
		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			return nil, expectedErr
		})

		_, err := Recover()(handler)(context.Background(), toolCall("getChat"))
		if !errors.Is(err, expectedErr) {
			t.Errorf("error = %v, want %v", err, expectedErr)
		}
	})

	panics := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "something went wrong", "panic: something went wrong"},
		{"error", errors.New("panic error"), "panic: panic error"},
		{"arbitrary value", 42, "panic: 42"},
	}
	for _, tt := range panics {
		t.Run("catches panic with "+tt.name, func(t *testing.T) {
			handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
				panic(tt.value)
			})

			_, err := Recover()(handler)(context.Background(), toolCall("sendPhoto"))

			var mcpErr *protocol.Error
			if !errors.As(err, &mcpErr) {
				t.Fatalf("expected protocol.Error, got %T", err)
			}
			if mcpErr.Code != protocol.CodeInternalError {
				t.Errorf("error code = %d, want %d", mcpErr.Code, protocol.CodeInternalError)
			}
			if mcpErr.Message != tt.want {
				t.Errorf("message = %q, want %q", mcpErr.Message, tt.want)
			}
		})
	}

	t.Run("logs the panic", func(t *testing.T) {
		logger := &mockLogger{}
		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			panic("nil map")
		})

		_, _ = Recover(WithPanicLogger(logger))(handler)(context.Background(), toolCall("deleteMessage"))

		if len(logger.entries) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(logger.entries))
		}
		entry := logger.entries[0]
		if v, _ := entry.field("tool"); v != "deleteMessage" {
			t.Errorf("tool = %v", v)
		}
		if v, _ := entry.field("stack"); !strings.Contains(v.(string), "goroutine") {
			t.Errorf("stack = %v", v)
		}
	})

	t.Run("calls custom handler on panic", func(t *testing.T) {
		var capturedPanic any
		var capturedReq *protocol.Request
		custom := func(ctx context.Context, req *protocol.Request, panicVal any) (*protocol.Response, error) {
			capturedPanic = panicVal
			capturedReq = req
			return nil, protocol.NewInternalError("custom: handled panic")
		}
		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			panic("test panic")
		})

		req := toolCall("getUpdates")
		_, err := Recover(WithPanicHandler(custom))(handler)(context.Background(), req)

		if err == nil {
			t.Fatal("expected error")
		}
		if capturedPanic != "test panic" {
			t.Errorf("capturedPanic = %v, want %q", capturedPanic, "test panic")
		}
		if capturedReq != req {
			t.Error("request was not passed to handler")
		}
	})
}
