package transport

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

// WebSocket implements MCP transport over WebSocket connections. Each text
// frame carries one JSON-RPC message.
type WebSocket struct {
	addr     string
	upgrader websocket.Upgrader
	logger   *slog.Logger

	readTimeout  time.Duration
	writeTimeout time.Duration

	mu       sync.RWMutex
	listener net.Listener
	clients  map[*wsClient]struct{}
}

// wsClient represents a single WebSocket connection.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// WebSocketOption configures a WebSocket transport.
type WebSocketOption func(*WebSocket)

// WithWebSocketReadTimeout sets how long a connection may stay idle.
func WithWebSocketReadTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.readTimeout = d
	}
}

// WithWebSocketWriteTimeout sets the write deadline for each frame.
func WithWebSocketWriteTimeout(d time.Duration) WebSocketOption {
	return func(ws *WebSocket) {
		ws.writeTimeout = d
	}
}

// WithWebSocketCheckOrigin replaces the origin check for upgrades. By
// default a browser Origin must match the request host or be listed with
// WithWebSocketAllowedOrigins.
func WithWebSocketCheckOrigin(fn func(r *http.Request) bool) WebSocketOption {
	return func(ws *WebSocket) {
		ws.upgrader.CheckOrigin = fn
	}
}

// WithWebSocketAllowedOrigins accepts upgrades from the given origins
// (scheme://host[:port]) in addition to same-host requests. "*" allows any
// origin.
func WithWebSocketAllowedOrigins(origins ...string) WebSocketOption {
	return func(ws *WebSocket) {
		ws.upgrader.CheckOrigin = allowOrigins(origins)
	}
}

// allowOrigins accepts requests without an Origin header (non-browser
// clients), same-host origins and the listed ones.
func allowOrigins(allowed []string) func(r *http.Request) bool {
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[strings.ToLower(strings.TrimRight(o, "/"))] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		if _, ok := set[strings.ToLower(origin)]; ok {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(u.Host, r.Host)
	}
}

// WithWebSocketLogger sets the logger for connection events.
func WithWebSocketLogger(l *slog.Logger) WebSocketOption {
	return func(ws *WebSocket) {
		ws.logger = l
	}
}

// NewWebSocket creates a new WebSocket transport listening on addr.
func NewWebSocket(addr string, opts ...WebSocketOption) *WebSocket {
	ws := &WebSocket{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     allowOrigins(nil),
		},
		logger:       slog.New(slog.DiscardHandler),
		readTimeout:  5 * time.Minute,
		writeTimeout: 10 * time.Second,
		clients:      make(map[*wsClient]struct{}),
	}
	for _, opt := range opts {
		opt(ws)
	}
	return ws
}

// Addr returns the listening address once Serve has bound it, or the
// configured address before that.
func (ws *WebSocket) Addr() string {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	if ws.listener != nil {
		return ws.listener.Addr().String()
	}
	return ws.addr
}

// Serve listens on the configured address and serves until ctx is canceled.
func (ws *WebSocket) Serve(ctx context.Context, handler Handler) error {
	ln, err := net.Listen("tcp", ws.addr)
	if err != nil {
		return err
	}
	ws.mu.Lock()
	ws.listener = ln
	ws.mu.Unlock()

	server := &http.Server{
		Handler:           ws.HTTPHandler(ctx, handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ws.logger.Info("websocket transport listening", slog.String("addr", ln.Addr().String()))

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		ws.closeAllClients()
		return server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// HTTPHandler returns the upgrade handler so the transport can be mounted on
// an existing server. Requests run with ctx as their parent.
func (ws *WebSocket) HTTPHandler(ctx context.Context, handler Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws.handleConnection(ctx, w, r, handler)
	})
}

func (ws *WebSocket) handleConnection(ctx context.Context, w http.ResponseWriter, r *http.Request, handler Handler) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	client := &wsClient{conn: conn}
	ws.mu.Lock()
	ws.clients[client] = struct{}{}
	ws.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	defer func() {
		cancel()
		wg.Wait()
		ws.mu.Lock()
		delete(ws.clients, client)
		ws.mu.Unlock()
		_ = conn.Close()
	}()

	ctx = protocol.ContextWithRequestMeta(ctx, protocol.RequestMeta{
		protocol.MetaTransport:  "websocket",
		protocol.MetaRemoteAddr: r.RemoteAddr,
	})
	ws.logger.Debug("websocket client connected", slog.String("remote_addr", r.RemoteAddr))

	for {
		if ws.readTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(ws.readTimeout))
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ws.logger.Debug("websocket read ended", slog.String("remote_addr", r.RemoteAddr), slog.String("error", err.Error()))
			}
			return
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if resp := dispatch(ctx, handler, message, ws.logger); resp != nil {
				if err := client.writeJSON(resp, ws.writeTimeout); err != nil {
					ws.logger.Debug("websocket write failed", slog.String("error", err.Error()))
				}
			}
		}()
	}
}

func (ws *WebSocket) closeAllClients() {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	for client := range ws.clients {
		client.close()
	}
}

func (c *wsClient) writeJSON(v any, timeout time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if timeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	return c.conn.WriteJSON(v)
}

func (c *wsClient) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	_ = c.conn.Close()
}
