package middleware

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

func captureRequestID(dst *string) HandlerFunc {
	return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
		*dst = RequestIDFromContext(ctx)
		return protocol.NewResponse(req.ID, "ok"), nil
	}
}

func TestRequestID(t *testing.T) {
	t.Run("injects a UUID into the context", func(t *testing.T) {
		var receivedID string
		_, _ = RequestID()(captureRequestID(&receivedID))(context.Background(), toolCall("getChat"))

		if _, err := uuid.Parse(receivedID); err != nil {
			t.Errorf("request ID %q is not a UUID: %v", receivedID, err)
		}
	})

	t.Run("generates unique IDs for each request", func(t *testing.T) {
		ids := make(map[string]bool)
		var id string
		wrapped := RequestID()(captureRequestID(&id))

		for i := 0; i < 100; i++ {
			_, _ = wrapped(context.Background(), toolCall("getUpdates"))
			ids[id] = true
		}

		if len(ids) != 100 {
			t.Errorf("expected 100 unique IDs, got %d", len(ids))
		}
	})

	t.Run("preserves existing request ID from context", func(t *testing.T) {
		ctx := ContextWithRequestID(context.Background(), "existing-request-id")

		var receivedID string
		_, _ = RequestID()(captureRequestID(&receivedID))(ctx, toolCall("getChat"))

		if receivedID != "existing-request-id" {
			t.Errorf("request ID = %q, want %q", receivedID, "existing-request-id")
		}
	})

	t.Run("uses custom generator", func(t *testing.T) {
		var receivedID string
		gen := func() string { return "custom-id-123" }
		_, _ = RequestIDWithGenerator(gen)(captureRequestID(&receivedID))(context.Background(), toolCall("getChat"))

		if receivedID != "custom-id-123" {
			t.Errorf("request ID = %q, want %q", receivedID, "custom-id-123")
		}
	})
}

func TestRequestIDFromContext(t *testing.T) {
	if id := RequestIDFromContext(context.Background()); id != "" {
		t.Errorf("expected empty string, got %q", id)
	}
}
