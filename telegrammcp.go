// Package telegrammcp serves the Telegram Bot API as MCP tools.
//
// It assembles the pieces found in the sub-packages: a telegram.Client, the
// tool registry from internal/tools, the middleware stack and a stdio or
// websocket transport. Most programs only need Run:
//
//	cfg, _ := config.Load(config.LoadOptions{})
//	logger, _ := logging.New(logging.Options{Secrets: []string{cfg.Telegram.Token}})
//	err := telegrammcp.Run(ctx, cfg, logger)
//
// NewServer and NewHandler are exposed for embedding the tools in another
// transport or for driving them from tests.
package telegrammcp

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/felixgeelhaar/telegram-mcp/internal/config"
	"github.com/felixgeelhaar/telegram-mcp/internal/telemetry"
	"github.com/felixgeelhaar/telegram-mcp/internal/tools"
	"github.com/felixgeelhaar/telegram-mcp/middleware"
	"github.com/felixgeelhaar/telegram-mcp/server"
	"github.com/felixgeelhaar/telegram-mcp/telegram"
	"github.com/felixgeelhaar/telegram-mcp/transport"
)

// ServerName is reported to clients during initialize.
const ServerName = "telegram"

// Version is reported to clients during initialize. Set by ldflags.
var Version = "dev"

const shutdownTimeout = 5 * time.Second

// NewServer returns an MCP server with the five Telegram tools registered
// against api.
func NewServer(api tools.API) (*server.Server, error) {
	srv := server.New(server.Info{Name: ServerName, Version: Version})
	if err := tools.Register(srv, api); err != nil {
		return nil, err
	}
	return srv, nil
}

// NewHandler adapts srv to a transport.Handler, running every request
// through mws in order.
func NewHandler(srv *server.Server, mws ...middleware.Middleware) transport.Handler {
	h := middleware.HandlerFunc(srv.Handle)
	if len(mws) > 0 {
		h = middleware.Chain(mws...)(h)
	}
	return transport.HandlerFunc(h)
}

// ServeOption configures Run.
type ServeOption func(*serveOptions)

type serveOptions struct {
	middleware []middleware.Middleware
	stdin      io.Reader
	stdout     io.Writer
	httpClient *http.Client
	api        tools.API
}

// WithMiddleware appends middleware after the default stack.
func WithMiddleware(m ...middleware.Middleware) ServeOption {
	return func(o *serveOptions) {
		o.middleware = append(o.middleware, m...)
	}
}

// WithStdio replaces os.Stdin and os.Stdout for the stdio transport.
func WithStdio(in io.Reader, out io.Writer) ServeOption {
	return func(o *serveOptions) {
		o.stdin = in
		o.stdout = out
	}
}

// WithHTTPClient sets the client used for Bot API calls. Its timeout wins
// over telegram.timeout.
func WithHTTPClient(c *http.Client) ServeOption {
	return func(o *serveOptions) {
		o.httpClient = c
	}
}

// WithAPI serves the tools against api instead of a client built from the
// configuration.
func WithAPI(api tools.API) ServeOption {
	return func(o *serveOptions) {
		o.api = api
	}
}

// Run validates cfg, builds the client and the server, and serves on the
// configured transport until ctx is canceled or the peer goes away. A
// missing token is reported as config.ErrMissingToken before anything is
// started.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...ServeOption) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	o := &serveOptions{}
	for _, opt := range opts {
		opt(o)
	}

	api := o.api
	if api == nil {
		client, err := newClient(cfg, logger, o.httpClient)
		if err != nil {
			return err
		}
		api = client
	}

	srv, err := NewServer(api)
	if err != nil {
		return err
	}

	tcfg := telemetry.Config{
		Endpoint:       cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.Insecure,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: Version,
	}
	providers, shutdown, err := telemetry.Setup(ctx, tcfg)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdown(sctx); err != nil {
			logger.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	stack := middleware.DefaultStack(middleware.NewSlogLogger(logger), middleware.StackOptions{
		Timeout:     cfg.Server.RequestTimeout,
		RateLimit:   cfg.Server.RateLimit,
		RateBurst:   cfg.Server.RateBurst,
		RateLimitBy: cfg.Server.RateLimitBy,
		MaxBytes:    cfg.Server.MaxRequestBytes,
		EnableOTel:  tcfg.Enabled(),
		Telemetry: []middleware.OTelOption{
			middleware.WithTracerProvider(providers.Tracer),
			middleware.WithMeterProvider(providers.Meter),
			middleware.WithOTelServiceName(tcfg.ServiceName),
		},
	})
	handler := NewHandler(srv, append(stack, o.middleware...)...)

	t := newTransport(cfg, logger, o)
	logger.Info("serving",
		"transport", cfg.Server.Transport,
		"addr", t.Addr(),
		"tools", len(srv.Tools()),
		"version", Version,
	)
	return t.Serve(ctx, handler)
}

func newClient(cfg *config.Config, logger *slog.Logger, httpc *http.Client) (*telegram.Client, error) {
	if httpc == nil {
		httpc = &http.Client{Timeout: cfg.Telegram.Timeout}
	}
	client, err := telegram.New(telegram.Config{
		Token:      cfg.Telegram.Token,
		BaseURL:    cfg.Telegram.APIBase,
		ParseMode:  cfg.EffectiveParseMode(),
		HTTPClient: httpc,
		Logger:     logger.With("component", "telegram"),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram client: %w", err)
	}
	return client, nil
}

func newTransport(cfg *config.Config, logger *slog.Logger, o *serveOptions) transport.Transport {
	if cfg.Server.Transport == config.TransportWebSocket {
		return transport.NewWebSocket(cfg.Server.Addr,
			transport.WithWebSocketLogger(logger),
			transport.WithWebSocketAllowedOrigins(cfg.Server.AllowedOrigins...),
		)
	}

	stdioOpts := []transport.StdioOption{transport.WithStdioLogger(logger)}
	if o.stdin != nil {
		stdioOpts = append(stdioOpts, transport.WithStdin(o.stdin))
	}
	if o.stdout != nil {
		stdioOpts = append(stdioOpts, transport.WithStdout(o.stdout))
	}
	return transport.NewStdio(stdioOpts...)
}
