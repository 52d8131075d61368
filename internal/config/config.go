// Package config holds the server configuration. It is built once at
// startup from defaults, an optional YAML file, an optional .env file, the
// process environment and command-line flags, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/felixgeelhaar/telegram-mcp/internal/logging"
	"github.com/felixgeelhaar/telegram-mcp/telegram"
)

// ErrMissingToken is returned by Validate when no bot token is configured.
var ErrMissingToken = errors.New("config: TELEGRAM_BOT_TOKEN is not set")

// Transport kinds.
const (
	TransportStdio     = "stdio"
	TransportWebSocket = "websocket"
)

// Rate limit keys: one bucket per tool or one per client host.
const (
	RateLimitByTool   = "tool"
	RateLimitByClient = "client"
)

// DefaultAddr is the websocket listen address. It is loopback only.
const DefaultAddr = "127.0.0.1:8765"

// ParseModeNone disables the parse mode when used in YAML or the environment.
const ParseModeNone = "none"

// Config is the complete server configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Server    ServerConfig    `yaml:"server"`
	Log       LogConfig       `yaml:"log"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// TelegramConfig configures the Bot API client.
type TelegramConfig struct {
	Token     string        `yaml:"token"`
	APIBase   string        `yaml:"api_base"`
	ParseMode string        `yaml:"parse_mode"`
	Timeout   time.Duration `yaml:"timeout"`
}

// ServerConfig configures the MCP side.
type ServerConfig struct {
	Transport       string        `yaml:"transport"`
	Addr            string        `yaml:"addr"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	RateLimit       int           `yaml:"rate_limit"`
	RateBurst       int           `yaml:"rate_burst"`
	MaxRequestBytes int64         `yaml:"max_request_bytes"`
	RateLimitBy     string        `yaml:"rate_limit_by"`

	// AllowedOrigins lists browser origins that may open a websocket in
	// addition to same-host pages.
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// TelemetryConfig configures trace export. Tracing is off unless
// OTLPEndpoint is set.
type TelemetryConfig struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	Insecure     bool   `yaml:"insecure"`
	ServiceName  string `yaml:"service_name"`
}

// Default returns the configuration used when nothing else is given.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			APIBase:   telegram.DefaultBaseURL,
			ParseMode: telegram.ParseModeMarkdown,
		},
		Server: ServerConfig{
			Transport:       TransportStdio,
			Addr:            DefaultAddr,
			MaxRequestBytes: 1 << 20,
			RateLimitBy:     RateLimitByTool,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{
			ServiceName: "telegram-mcp",
		},
	}
}

// EffectiveParseMode returns the parse mode to send, "" when disabled.
func (c *Config) EffectiveParseMode() string {
	if strings.EqualFold(c.Telegram.ParseMode, ParseModeNone) {
		return ""
	}
	return c.Telegram.ParseMode
}

// Validate checks the configuration. A missing token yields ErrMissingToken;
// every other problem is reported together.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Telegram.Token) == "" {
		return ErrMissingToken
	}

	var errs []error
	if u, err := url.Parse(c.Telegram.APIBase); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("telegram.api_base %q is not an absolute URL", c.Telegram.APIBase))
	}
	if c.Telegram.Timeout < 0 {
		errs = append(errs, errors.New("telegram.timeout must not be negative"))
	}
	switch c.Server.Transport {
	case TransportStdio:
	case TransportWebSocket:
		if c.Server.Addr == "" {
			errs = append(errs, errors.New("server.addr is required for the websocket transport"))
		}
	default:
		errs = append(errs, fmt.Errorf("server.transport %q must be %q or %q", c.Server.Transport, TransportStdio, TransportWebSocket))
	}
	if c.Server.RequestTimeout < 0 {
		errs = append(errs, errors.New("server.request_timeout must not be negative"))
	}
	if c.Server.RateLimit < 0 || c.Server.RateBurst < 0 {
		errs = append(errs, errors.New("server.rate_limit and server.rate_burst must not be negative"))
	}
	switch c.Server.RateLimitBy {
	case "", RateLimitByTool, RateLimitByClient:
	default:
		errs = append(errs, fmt.Errorf("server.rate_limit_by %q must be %q or %q", c.Server.RateLimitBy, RateLimitByTool, RateLimitByClient))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}
