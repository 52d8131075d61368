package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

// mockLogger captures log calls for testing.
type mockLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

type logEntry struct {
	level   string
	message string
	fields  []Field
}

func (l *mockLogger) add(level, msg string, fields []Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level: level, message: msg, fields: fields})
}

func (l *mockLogger) Info(msg string, fields ...Field)  { l.add("info", msg, fields) }
func (l *mockLogger) Error(msg string, fields ...Field) { l.add("error", msg, fields) }
func (l *mockLogger) Debug(msg string, fields ...Field) { l.add("debug", msg, fields) }
func (l *mockLogger) Warn(msg string, fields ...Field)  { l.add("warn", msg, fields) }

func (e logEntry) field(key string) (any, bool) {
	for _, f := range e.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

func TestLogging(t *testing.T) {
	t.Run("logs successful tool calls", func(t *testing.T) {
		logger := &mockLogger{}

		ctx := protocol.ContextWithRequestMeta(context.Background(), protocol.RequestMeta{protocol.MetaTransport: "stdio"})
		_, _ = Logging(logger)(okHandler)(ctx, toolCall("sendMessage"))

		if len(logger.entries) != 1 {
			t.Fatalf("expected 1 log entry, got %d", len(logger.entries))
		}
		entry := logger.entries[0]
		if entry.level != "info" || entry.message != "request completed" {
			t.Errorf("entry = %+v", entry)
		}
		if v, _ := entry.field("method"); v != protocol.MethodToolsCall {
			t.Errorf("method = %v", v)
		}
		if v, _ := entry.field("tool"); v != "sendMessage" {
			t.Errorf("tool = %v", v)
		}
		if v, _ := entry.field("transport"); v != "stdio" {
			t.Errorf("transport = %v", v)
		}
		if v, _ := entry.field("duration"); v == nil {
			t.Error("expected 'duration' field in log")
		} else if _, ok := v.(time.Duration); !ok {
			t.Errorf("duration has type %T", v)
		}
	})

	t.Run("logs errors at error level", func(t *testing.T) {
		logger := &mockLogger{}
		handler := HandlerFunc(func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			return nil, errors.New("handler failed")
		})

		_, _ = Logging(logger)(handler)(context.Background(), &protocol.Request{ID: []byte(`1`), Method: "tools/list"})

		entry := logger.entries[0]
		if entry.level != "error" {
			t.Errorf("level = %q, want error", entry.level)
		}
		if v, _ := entry.field("error"); v != "handler failed" {
			t.Errorf("error field = %v", v)
		}
		if _, ok := entry.field("tool"); ok {
			t.Error("non-tool requests should not carry a tool field")
		}
	})

	t.Run("notifications log at debug", func(t *testing.T) {
		logger := &mockLogger{}
		_, _ = Logging(logger)(okHandler)(context.Background(), &protocol.Request{Method: protocol.MethodInitialized})

		if logger.entries[0].level != "debug" {
			t.Errorf("level = %q, want debug", logger.entries[0].level)
		}
	})

	t.Run("includes request ID if present", func(t *testing.T) {
		logger := &mockLogger{}
		ctx := ContextWithRequestID(context.Background(), "test-request-123")
		_, _ = Logging(logger)(okHandler)(ctx, &protocol.Request{ID: []byte(`1`), Method: "ping"})

		if v, _ := logger.entries[0].field("request_id"); v != "test-request-123" {
			t.Errorf("request_id = %v", v)
		}
	})

	t.Run("nil logger is allowed", func(t *testing.T) {
		if _, err := Logging(nil)(okHandler)(context.Background(), toolCall("getChat")); err != nil {
			t.Fatal(err)
		}
	})
}

func TestSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	logger.Debug("d", F("k", 1))
	logger.Info("i", F("tool", "getUpdates"))
	logger.Warn("w")
	logger.Error("e", F("error", "boom"))

	out := buf.String()
	for _, want := range []string{"level=DEBUG msg=d k=1", "level=INFO msg=i tool=getUpdates", "level=WARN msg=w", "level=ERROR msg=e error=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestField(t *testing.T) {
	f := F("key", "value")
	if f.Key != "key" || f.Value != "value" {
		t.Errorf("F() = %+v", f)
	}
}
