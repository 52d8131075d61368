// Package telegram is a minimal Telegram Bot API client covering the calls
// exposed as MCP tools: sendMessage, sendPhoto, deleteMessage, getUpdates and
// getChat.
//
// Each method issues exactly one HTTP request to
// <BaseURL>/bot<token>/<method>. Reads use GET with query parameters, writes
// use POST with a JSON body. A call fails when the transport fails, the status
// is not 2xx, or the response envelope reports ok=false. Nothing is retried.
//
// Error messages never contain the bot token.
package telegram
