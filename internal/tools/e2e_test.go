package tools_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/felixgeelhaar/telegram-mcp/internal/tools"
	"github.com/felixgeelhaar/telegram-mcp/middleware"
	"github.com/felixgeelhaar/telegram-mcp/server"
	"github.com/felixgeelhaar/telegram-mcp/telegram"
	"github.com/felixgeelhaar/telegram-mcp/testutil"
	"github.com/felixgeelhaar/telegram-mcp/transport"
)

const botToken = "987654:e2e-SECRET"

type botRequest struct {
	Method string
	Path   string
	Query  map[string][]string
	Body   map[string]any
}

// botAPI is a stub Telegram Bot API answering each method with a fixed
// status and body.
type botAPI struct {
	mu        sync.Mutex
	requests  []botRequest
	responses map[string]string
	status    int
}

func (b *botAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req := botRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.Query()}
	if r.Method == http.MethodPost {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &req.Body)
	}
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()

	method := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	body, ok := b.responses[method]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
		return
	}
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (b *botAPI) seen() []botRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]botRequest(nil), b.requests...)
}

func newBot(t *testing.T, api *botAPI) *testutil.TestClient {
	t.Helper()
	ts := httptest.NewServer(api)
	t.Cleanup(ts.Close)

	client, err := telegram.New(telegram.Config{
		Token:     botToken,
		BaseURL:   ts.URL,
		ParseMode: telegram.ParseModeMarkdown,
	})
	if err != nil {
		t.Fatalf("telegram.New: %v", err)
	}

	srv := server.New(server.Info{Name: "telegram", Version: "e2e"})
	if err := tools.Register(srv, client); err != nil {
		t.Fatalf("Register: %v", err)
	}
	handler := middleware.Chain(middleware.DefaultStack(middleware.NopLogger{}, middleware.StackOptions{})...)(srv.Handle)
	return testutil.NewTestClientWithHandler(t, transport.HandlerFunc(handler))
}

func TestEndToEnd_SendMessage(t *testing.T) {
	api := &botAPI{responses: map[string]string{
		"sendMessage": `{"ok":true,"result":{"message_id":42,"date":1700000000,"chat":{"id":12345,"type":"private"},"text":"hi"}}`,
	}}
	bot := newBot(t, api)

	res, err := bot.CallTool(tools.SendMessage, map[string]any{"chatId": 12345, "text": "hi"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.IsError || !strings.Contains(res.Text(), "42") {
		t.Errorf("result = %+v", res)
	}

	reqs := api.seen()
	if len(reqs) != 1 {
		t.Fatalf("got %d requests, want 1", len(reqs))
	}
	want := botRequest{
		Method: http.MethodPost,
		Path:   "/bot" + botToken + "/sendMessage",
		Query:  map[string][]string{},
		Body:   map[string]any{"chat_id": "12345", "text": "hi", "parse_mode": "Markdown"},
	}
	if diff := cmp.Diff(want, reqs[0]); diff != "" {
		t.Errorf("request mismatch (-want +got):\n%s", diff)
	}
}

func TestEndToEnd_SendPhotoWithoutCaption(t *testing.T) {
	api := &botAPI{responses: map[string]string{
		"sendPhoto": `{"ok":true,"result":{"message_id":8,"date":1700000000,"chat":{"id":1,"type":"private"}}}`,
	}}
	bot := newBot(t, api)

	res, err := bot.CallTool(tools.SendPhoto, map[string]any{"chatId": "1", "photoUrl": "https://example.com/p.png"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if res.Text() != "Photo sent! ID: 8" {
		t.Errorf("text = %q", res.Text())
	}

	body := api.seen()[0].Body
	if _, ok := body["caption"]; ok {
		t.Errorf("body has a caption key: %v", body)
	}
	if body["photo"] != "https://example.com/p.png" || body["chat_id"] != "1" {
		t.Errorf("body = %v", body)
	}
}

func TestEndToEnd_DeleteMessageNotOK(t *testing.T) {
	api := &botAPI{responses: map[string]string{
		"deleteMessage": `{"ok":false}`,
	}}
	bot := newBot(t, api)

	res, err := bot.CallTool(tools.DeleteMessage, map[string]any{"chatId": 1, "messageId": 99})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError || !strings.HasPrefix(res.Text(), "Error: ") {
		t.Errorf("result = %+v, want error result", res)
	}
	if body := api.seen()[0].Body; body["message_id"] != float64(99) {
		t.Errorf("body = %v", body)
	}
}

func TestEndToEnd_GetUpdates(t *testing.T) {
	api := &botAPI{responses: map[string]string{
		"getUpdates": `{"ok":true,"result":[{"update_id":100,"message":{"message_id":1,"text":"/start"}}]}`,
	}}
	bot := newBot(t, api)

	t.Run("defaults", func(t *testing.T) {
		res, err := bot.CallTool(tools.GetUpdates, map[string]any{})
		if err != nil {
			t.Fatalf("CallTool: %v", err)
		}
		if res.IsError || !strings.Contains(res.Text(), `"update_id": 100`) {
			t.Errorf("result = %+v", res)
		}
		reqs := api.seen()
		got := reqs[len(reqs)-1]
		if got.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", got.Method)
		}
		if diff := cmp.Diff(map[string][]string{"limit": {"10"}}, got.Query); diff != "" {
			t.Errorf("query mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("offset", func(t *testing.T) {
		if _, err := bot.CallTool(tools.GetUpdates, map[string]any{"offset": 101, "limit": 5}); err != nil {
			t.Fatalf("CallTool: %v", err)
		}
		reqs := api.seen()
		want := map[string][]string{"limit": {"5"}, "offset": {"101"}}
		if diff := cmp.Diff(want, reqs[len(reqs)-1].Query); diff != "" {
			t.Errorf("query mismatch (-want +got):\n%s", diff)
		}
	})
}

func TestEndToEnd_GetChatError(t *testing.T) {
	api := &botAPI{
		status:    http.StatusBadRequest,
		responses: map[string]string{"getChat": `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`},
	}
	bot := newBot(t, api)

	res, err := bot.CallTool(tools.GetChat, map[string]any{"chatId": "@nobody_here"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError || !strings.Contains(res.Text(), "chat not found") {
		t.Errorf("result = %+v", res)
	}
	if strings.Contains(res.Text(), botToken) {
		t.Errorf("result leaks the bot token: %q", res.Text())
	}
	if got := api.seen()[0].Query["chat_id"]; len(got) != 1 || got[0] != "@nobody_here" {
		t.Errorf("chat_id = %v", got)
	}
}

func TestEndToEnd_UnreachableAPI(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	base := ts.URL
	ts.Close()

	client, err := telegram.New(telegram.Config{Token: botToken, BaseURL: base})
	if err != nil {
		t.Fatal(err)
	}
	srv := server.New(server.Info{Name: "telegram"})
	if err := tools.Register(srv, client); err != nil {
		t.Fatal(err)
	}
	bot := testutil.NewTestClient(t, srv)

	res, err := bot.CallTool(tools.SendMessage, map[string]any{"chatId": 1, "text": "hi"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Fatalf("result = %+v, want error", res)
	}
	if strings.Contains(res.Text(), botToken) {
		t.Errorf("network error leaks the bot token: %q", res.Text())
	}
}

func TestEndToEnd_ValidationMakesNoCall(t *testing.T) {
	api := &botAPI{responses: map[string]string{"sendMessage": `{"ok":true,"result":{"message_id":1}}`}}
	bot := newBot(t, api)

	res, err := bot.CallTool(tools.SendMessage, map[string]any{"chatId": "not a chat", "text": "hi"})
	if err != nil {
		t.Fatalf("CallTool: %v", err)
	}
	if !res.IsError {
		t.Errorf("result = %+v, want error", res)
	}
	if n := len(api.seen()); n != 0 {
		t.Errorf("stub received %d requests, want 0", n)
	}
}
