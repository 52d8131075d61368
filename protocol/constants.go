package protocol

// MCPVersion is the protocol revision announced during initialization.
const MCPVersion = "2024-11-05"

// JSONRPCVersion is the JSON-RPC protocol version.
const JSONRPCVersion = "2.0"

// MCP request methods.
const (
	MethodInitialize = "initialize"
	MethodPing       = "ping"
	MethodToolsList  = "tools/list"
	MethodToolsCall  = "tools/call"
)

// MCP notification methods.
const (
	MethodInitialized = "notifications/initialized"
	MethodCancelled   = "notifications/cancelled"
)
