package middleware

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/felixgeelhaar/telegram-mcp/protocol"
)

const instrumentationName = "github.com/felixgeelhaar/telegram-mcp/middleware"

// Outcome values recorded as the mcp.outcome attribute.
const (
	OutcomeOK        = "ok"
	OutcomeToolError = "tool_error"
	OutcomeRPCError  = "rpc_error"
)

// OTelOption configures the OpenTelemetry middleware.
type OTelOption func(*otelConfig)

type otelConfig struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	serviceName    string
	skip           map[string]struct{}
}

// WithTracerProvider sets the tracer provider. Defaults to the global one.
func WithTracerProvider(tp trace.TracerProvider) OTelOption {
	return func(c *otelConfig) {
		c.tracerProvider = tp
	}
}

// WithMeterProvider sets the meter provider. Defaults to the global one.
func WithMeterProvider(mp metric.MeterProvider) OTelOption {
	return func(c *otelConfig) {
		c.meterProvider = mp
	}
}

// WithOTelServiceName sets the service.name attribute.
func WithOTelServiceName(name string) OTelOption {
	return func(c *otelConfig) {
		c.serviceName = name
	}
}

// WithOTelSkipMethods disables instrumentation for the given methods.
func WithOTelSkipMethods(methods ...string) OTelOption {
	return func(c *otelConfig) {
		for _, m := range methods {
			c.skip[m] = struct{}{}
		}
	}
}

// toolFailure is implemented by tool results that can report a failed call
// inside a successful JSON-RPC response.
type toolFailure interface {
	Failed() bool
}

type instruments struct {
	requests     metric.Int64Counter
	duration     metric.Float64Histogram
	errors       metric.Int64Counter
	toolFailures metric.Int64Counter
}

func newInstruments(meter metric.Meter) instruments {
	var in instruments
	// Instrument constructors return usable no-op instruments alongside any
	// error, so the errors are ignored.
	in.requests, _ = meter.Int64Counter("mcp.server.requests",
		metric.WithDescription("MCP requests handled"),
		metric.WithUnit("{request}"))
	in.duration, _ = meter.Float64Histogram("mcp.server.request.duration",
		metric.WithDescription("Time spent handling MCP requests"),
		metric.WithUnit("ms"))
	in.errors, _ = meter.Int64Counter("mcp.server.errors",
		metric.WithDescription("MCP requests answered with a JSON-RPC error"),
		metric.WithUnit("{error}"))
	in.toolFailures, _ = meter.Int64Counter("mcp.server.tool.failures",
		metric.WithDescription("Tool calls that returned an isError result"),
		metric.WithUnit("{call}"))
	return in
}

// OTel returns middleware that opens a server span per request and records
// request counts, latency, JSON-RPC errors and failed tool calls. tools/call
// spans are named after the tool and carry the mcp.tool.name attribute. A
// tool call whose result has isError set marks the span as failed even
// though the JSON-RPC exchange succeeded.
func OTel(opts ...OTelOption) Middleware {
	cfg := &otelConfig{
		tracerProvider: otel.GetTracerProvider(),
		meterProvider:  otel.GetMeterProvider(),
		serviceName:    "telegram-mcp",
		skip:           make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	tracer := cfg.tracerProvider.Tracer(instrumentationName)
	inst := newInstruments(cfg.meterProvider.Meter(instrumentationName))

	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
			if _, ok := cfg.skip[req.Method]; ok {
				return next(ctx, req)
			}

			attrs := []attribute.KeyValue{
				attribute.String("mcp.method", req.Method),
				attribute.String("service.name", cfg.serviceName),
			}
			spanName := "mcp." + req.Method
			if tool := req.ToolName(); tool != "" {
				attrs = append(attrs, attribute.String("mcp.tool.name", tool))
				spanName = "mcp.tools/call " + tool
			}

			ctx, span := tracer.Start(ctx, spanName,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(attrs...),
			)
			defer span.End()
			if id := RequestIDFromContext(ctx); id != "" {
				span.SetAttributes(attribute.String("mcp.request_id", id))
			}

			start := time.Now()
			inst.requests.Add(ctx, 1, metric.WithAttributes(attrs...))

			resp, err := next(ctx, req)

			outcome := classify(span, resp, err)
			inst.duration.Record(ctx, float64(time.Since(start).Milliseconds()),
				metric.WithAttributes(append(attrs, attribute.String("mcp.outcome", outcome))...))

			switch outcome {
			case OutcomeRPCError:
				errAttrs := attrs
				if code, ok := errorCode(resp, err); ok {
					errAttrs = append(errAttrs, attribute.Int("mcp.error_code", code))
				}
				inst.errors.Add(ctx, 1, metric.WithAttributes(errAttrs...))
			case OutcomeToolError:
				inst.toolFailures.Add(ctx, 1, metric.WithAttributes(attrs...))
			}
			return resp, err
		}
	}
}

// classify sets the span status from the handler's result and returns the
// outcome.
func classify(span trace.Span, resp *protocol.Response, err error) string {
	if code, ok := errorCode(resp, err); ok {
		span.SetAttributes(attribute.Int("mcp.error_code", code))
	}

	switch {
	case err != nil:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return OutcomeRPCError
	case resp != nil && resp.Error != nil:
		span.SetStatus(codes.Error, resp.Error.Message)
		return OutcomeRPCError
	}

	if resp != nil {
		if r, ok := resp.Result.(toolFailure); ok && r.Failed() {
			span.SetStatus(codes.Error, "tool call failed")
			return OutcomeToolError
		}
	}
	span.SetStatus(codes.Ok, "")
	return OutcomeOK
}

func errorCode(resp *protocol.Response, err error) (int, bool) {
	var rpcErr *protocol.Error
	if errors.As(err, &rpcErr) {
		return rpcErr.Code, true
	}
	if err == nil && resp != nil && resp.Error != nil {
		return resp.Error.Code, true
	}
	return 0, false
}
