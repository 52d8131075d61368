package telegrammcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/felixgeelhaar/telegram-mcp/middleware"
	"github.com/felixgeelhaar/telegram-mcp/protocol"
	"github.com/felixgeelhaar/telegram-mcp/telegram"
)

// echoAPI answers every call without touching the network.
type echoAPI struct{ apiFunc }

func (echoAPI) SendMessage(_ context.Context, chatID telegram.ChatID, text string) (*telegram.Message, error) {
	return &telegram.Message{MessageID: 42, Text: text}, nil
}

func BenchmarkSendMessage_Execute(b *testing.B) {
	srv, err := NewServer(echoAPI{apiFunc(func() {})})
	if err != nil {
		b.Fatal(err)
	}
	tool, _ := srv.GetTool("sendMessage")
	args := json.RawMessage(`{"chatId":12345,"text":"hi"}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := tool.Execute(context.Background(), args); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSendMessage_DefaultStack(b *testing.B) {
	srv, err := NewServer(echoAPI{apiFunc(func() {})})
	if err != nil {
		b.Fatal(err)
	}
	stack := middleware.DefaultStack(middleware.NopLogger{}, middleware.StackOptions{MaxBytes: middleware.MB})
	handler := NewHandler(srv, stack...)
	req := &protocol.Request{
		JSONRPC: protocol.JSONRPCVersion,
		ID:      json.RawMessage(`1`),
		Method:  protocol.MethodToolsCall,
		Params:  json.RawMessage(`{"name":"sendMessage","arguments":{"chatId":"-100123","text":"hi"}}`),
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := handler.HandleRequest(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}
