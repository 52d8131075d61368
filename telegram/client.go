package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public Bot API endpoint.
	DefaultBaseURL = "https://api.telegram.org"

	// DefaultUpdatesLimit is the number of updates fetched when no limit is given.
	DefaultUpdatesLimit = 10

	// ParseModeMarkdown is the parse mode applied to outgoing text by default.
	ParseModeMarkdown = "Markdown"

	maxResponseBytes = 10 << 20
	maxErrorBody     = 512
)

// Config configures a Client. Only Token is required.
type Config struct {
	Token string
	// BaseURL defaults to DefaultBaseURL.
	BaseURL string
	// ParseMode is sent with sendMessage and sendPhoto when non-empty.
	ParseMode string
	// HTTPClient defaults to a client without a timeout.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client calls the Telegram Bot API on behalf of one bot. It is safe for
// concurrent use; nothing in it changes after New returns.
type Client struct {
	endpoint  string // <base>/bot<token>
	parseMode string
	httpc     *http.Client
	scrubber  *strings.Replacer
	log       *slog.Logger
}

// New returns a client for the bot identified by cfg.Token.
func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, ErrNoToken
	}

	base := cfg.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("telegram: invalid base URL: %w", err)
	}

	c := &Client{
		endpoint:  strings.TrimRight(base, "/") + "/bot" + cfg.Token,
		parseMode: cfg.ParseMode,
		httpc:     cfg.HTTPClient,
		scrubber:  strings.NewReplacer(cfg.Token, "[REDACTED]"),
		log:       cfg.Logger,
	}
	if c.httpc == nil {
		c.httpc = &http.Client{}
	}
	if c.log == nil {
		c.log = slog.New(slog.DiscardHandler)
	}
	return c, nil
}

// SendMessage sends a text message and returns the created message.
func (c *Client) SendMessage(ctx context.Context, chatID ChatID, text string) (*Message, error) {
	env, err := post[Message](ctx, c, "sendMessage", sendMessageRequest{
		ChatID:    chatID,
		Text:      text,
		ParseMode: c.parseMode,
	})
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

// SendPhoto sends a photo by URL or file_id. An empty caption is omitted.
func (c *Client) SendPhoto(ctx context.Context, chatID ChatID, photo, caption string) (*Message, error) {
	env, err := post[Message](ctx, c, "sendPhoto", sendPhotoRequest{
		ChatID:    chatID,
		Photo:     photo,
		Caption:   caption,
		ParseMode: c.parseMode,
	})
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

// DeleteMessage deletes a message. The returned bool is the envelope's ok
// flag; an ok=false envelope is reported as an *APIError.
func (c *Client) DeleteMessage(ctx context.Context, chatID ChatID, messageID int64) (bool, error) {
	env, err := post[json.RawMessage](ctx, c, "deleteMessage", deleteMessageRequest{
		ChatID:    chatID,
		MessageID: messageID,
	})
	if err != nil {
		return false, err
	}
	return env.OK, nil
}

// GetUpdates fetches pending updates.
func (c *Client) GetUpdates(ctx context.Context, p GetUpdatesParams) ([]Update, error) {
	limit := p.Limit
	if limit == 0 {
		limit = DefaultUpdatesLimit
	}

	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if p.Offset != nil {
		q.Set("offset", strconv.FormatInt(*p.Offset, 10))
	}

	env, err := get[[]Update](ctx, c, "getUpdates", q)
	if err != nil {
		return nil, err
	}
	if env.Result == nil {
		return []Update{}, nil
	}
	return env.Result, nil
}

// GetChat returns up-to-date information about a chat.
func (c *Client) GetChat(ctx context.Context, chatID ChatID) (*Chat, error) {
	q := url.Values{}
	q.Set("chat_id", chatID.String())

	env, err := get[Chat](ctx, c, "getChat", q)
	if err != nil {
		return nil, err
	}
	return &env.Result, nil
}

func post[T any](ctx context.Context, c *Client, method string, payload any) (*Envelope[T], error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("telegram: marshal %s request: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("telegram: create %s request: %w", method, c.scrub(err))
	}
	req.Header.Set("Content-Type", "application/json")
	return do[T](c, method, req)
}

func get[T any](ctx context.Context, c *Client, method string, query url.Values) (*Envelope[T], error) {
	u := c.endpoint + "/" + method
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("telegram: create %s request: %w", method, c.scrub(err))
	}
	return do[T](c, method, req)
}

// do performs req once and decodes the envelope.
func do[T any](c *Client, method string, req *http.Request) (*Envelope[T], error) {
	start := time.Now()
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.log.DebugContext(req.Context(), "telegram request failed",
			slog.String("method", method), slog.Duration("duration", time.Since(start)))
		return nil, fmt.Errorf("telegram: %s request failed: %w", method, c.scrub(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("telegram: read %s response: %w", method, c.scrub(err))
	}

	c.log.DebugContext(req.Context(), "telegram request",
		slog.String("method", method),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)))

	var env Envelope[T]
	decodeErr := json.Unmarshal(data, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr == nil && env.Description != "" {
			return nil, newAPIError(method, resp.StatusCode, &env)
		}
		return nil, &HTTPError{
			Method:     method,
			StatusCode: resp.StatusCode,
			Body:       c.scrubber.Replace(truncate(string(data), maxErrorBody)),
		}
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("telegram: decode %s response: %w", method, decodeErr)
	}
	if !env.OK {
		return nil, newAPIError(method, resp.StatusCode, &env)
	}
	return &env, nil
}

func newAPIError[T any](method string, status int, env *Envelope[T]) *APIError {
	apiErr := &APIError{
		Method:      method,
		StatusCode:  status,
		Code:        env.ErrorCode,
		Description: env.Description,
	}
	if env.Parameters != nil {
		apiErr.RetryAfter = env.Parameters.RetryAfter
	}
	return apiErr
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
