// Package transport carries JSON-RPC messages between an MCP client and a
// Handler.
//
// Stdio reads newline-delimited messages from stdin and writes responses to
// stdout; it is what MCP hosts use when they launch the server as a
// subprocess:
//
//	t := transport.NewStdio(transport.WithStdioLogger(logger))
//	err := t.Serve(ctx, handler)
//
// WebSocket serves the same protocol with one message per frame, for hosts
// that connect over the network:
//
//	t := transport.NewWebSocket("127.0.0.1:8765")
//	err := t.Serve(ctx, handler)
//
// Both transports handle requests concurrently. Responses may therefore be
// written in a different order than the requests arrived; clients match them
// by id.
package transport
