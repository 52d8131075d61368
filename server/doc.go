// Package server holds the MCP tool registry and answers the JSON-RPC
// methods a tool-only MCP server needs: initialize, ping, tools/list and
// tools/call.
//
// Tools are declared with a fluent builder and a typed handler. The input
// struct doubles as the tool's JSON Schema:
//
//	type getChatInput struct {
//	    ChatID telegram.ChatID `json:"chatId" jsonschema:"required"`
//	}
//
//	srv.Tool("getChat").
//	    Description("Get information about a chat").
//	    ReadOnly().
//	    Handler(func(ctx context.Context, in getChatInput) (*telegram.Chat, error) {
//	        return api.GetChat(ctx, in.ChatID)
//	    })
//
// Arguments are validated against the schema before the handler runs. Both
// invalid arguments and handler errors are returned to the client as a tool
// result with isError set; neither becomes a JSON-RPC error. Only a handler
// returning a *protocol.Error, an unknown tool name, or malformed call params
// produce JSON-RPC errors.
package server
