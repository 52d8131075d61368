package transport

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

// DefaultMaxMessageSize bounds a single stdin line.
const DefaultMaxMessageSize = 4 << 20

// Stdio implements MCP transport over stdin/stdout.
type Stdio struct {
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	maxMessageSize int

	mu sync.Mutex
}

// StdioOption configures a Stdio transport.
type StdioOption func(*Stdio)

// WithStdin sets a custom stdin reader.
func WithStdin(r io.Reader) StdioOption {
	return func(s *Stdio) {
		s.in = r
	}
}

// WithStdout sets a custom stdout writer.
func WithStdout(w io.Writer) StdioOption {
	return func(s *Stdio) {
		s.out = w
	}
}

// WithStdioLogger sets the logger for transport diagnostics.
func WithStdioLogger(l *slog.Logger) StdioOption {
	return func(s *Stdio) {
		s.logger = l
	}
}

// WithMaxMessageSize overrides DefaultMaxMessageSize.
func WithMaxMessageSize(n int) StdioOption {
	return func(s *Stdio) {
		s.maxMessageSize = n
	}
}

// NewStdio creates a new stdio transport.
func NewStdio(opts ...StdioOption) *Stdio {
	s := &Stdio{
		in:             os.Stdin,
		out:            os.Stdout,
		logger:         slog.New(slog.DiscardHandler),
		maxMessageSize: DefaultMaxMessageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Addr returns the transport address.
func (s *Stdio) Addr() string {
	return "stdio"
}

// Serve reads requests from stdin until EOF or until ctx is canceled. Each
// request is handled in its own goroutine. Serve returns only after every
// in-flight request has written its response.
func (s *Stdio) Serve(ctx context.Context, handler Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx = protocol.ContextWithRequestMeta(ctx, protocol.RequestMeta{protocol.MetaTransport: "stdio"})

	lines := make(chan []byte)
	scanErr := make(chan error, 1)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.in)
		scanner.Buffer(make([]byte, 0, min(64*1024, s.maxMessageSize)), s.maxMessageSize)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			// The scanner reuses its buffer.
			msg := append([]byte(nil), line...)
			select {
			case lines <- msg:
			case <-ctx.Done():
				return
			}
		}
		if err := scanner.Err(); err != nil {
			scanErr <- err
		}
	}()

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				if resp := dispatch(ctx, handler, line, s.logger); resp != nil {
					s.writeResponse(resp)
				}
			}()
		}
	}
}

func (s *Stdio) writeResponse(resp *protocol.Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error("encode response", slog.String("error", err.Error()))
		data, _ = json.Marshal(protocol.NewErrorResponse(resp.ID, protocol.NewInternalError("encode response")))
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.out.Write(data); err != nil {
		s.logger.Error("write response", slog.String("error", err.Error()))
	}
}
