// Package protocol defines the JSON-RPC 2.0 messages exchanged with an MCP
// client, the error codes the server answers with, and the MCP method names
// the Telegram tool server understands.
//
// A request arriving on any transport decodes into a [Request]:
//
//	{"jsonrpc":"2.0","id":7,"method":"tools/call","params":{"name":"sendMessage","arguments":{...}}}
//
// Requests without an id are notifications and never receive a [Response].
//
// Errors that abort a request at the protocol level (unknown method, malformed
// params, unknown tool) are reported as [Error] values. Failures inside a tool,
// such as a rejected Telegram call, are not protocol errors: they travel back
// as a successful response whose tool result is flagged as an error.
package protocol
