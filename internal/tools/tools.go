// Package tools declares the Telegram tools exposed over MCP.
package tools

import (
	"context"
	"fmt"

	"github.com/felixgeelhaar/telegram-mcp/server"
	"github.com/felixgeelhaar/telegram-mcp/telegram"
)

// API is the subset of the Telegram Bot API the tools call. *telegram.Client
// implements it.
type API interface {
	SendMessage(ctx context.Context, chatID telegram.ChatID, text string) (*telegram.Message, error)
	SendPhoto(ctx context.Context, chatID telegram.ChatID, photo, caption string) (*telegram.Message, error)
	DeleteMessage(ctx context.Context, chatID telegram.ChatID, messageID int64) (bool, error)
	GetUpdates(ctx context.Context, p telegram.GetUpdatesParams) ([]telegram.Update, error)
	GetChat(ctx context.Context, chatID telegram.ChatID) (*telegram.Chat, error)
}

var _ API = (*telegram.Client)(nil)

// Tool names.
const (
	SendMessage   = "sendMessage"
	SendPhoto     = "sendPhoto"
	DeleteMessage = "deleteMessage"
	GetUpdates    = "getUpdates"
	GetChat       = "getChat"
)

// Names lists the tools in registration order.
var Names = []string{SendMessage, SendPhoto, DeleteMessage, GetUpdates, GetChat}

// SendMessageInput are the sendMessage arguments.
type SendMessageInput struct {
	ChatID telegram.ChatID `json:"chatId" jsonschema:"required,description=The chat ID or @username to send the message to"`
	Text   string          `json:"text" jsonschema:"required,description=The message text to send"`
}

// SendPhotoInput are the sendPhoto arguments.
type SendPhotoInput struct {
	ChatID   telegram.ChatID `json:"chatId" jsonschema:"required,description=The chat ID or @username to send the photo to"`
	PhotoURL string          `json:"photoUrl" jsonschema:"required,description=URL of the photo to send"`
	Caption  string          `json:"caption,omitempty" jsonschema:"description=Optional caption for the photo"`
}

// DeleteMessageInput are the deleteMessage arguments.
type DeleteMessageInput struct {
	ChatID    telegram.ChatID `json:"chatId" jsonschema:"required,description=The chat ID where the message is"`
	MessageID int64           `json:"messageId" jsonschema:"required,description=The message ID to delete"`
}

// GetUpdatesInput are the getUpdates arguments.
type GetUpdatesInput struct {
	Offset *int64 `json:"offset,omitempty" jsonschema:"description=Identifier of the first update to return"`
	Limit  int    `json:"limit,omitempty" jsonschema:"description=Maximum number of updates to return,minimum=1,maximum=100,default=10"`
}

// GetChatInput are the getChat arguments.
type GetChatInput struct {
	ChatID telegram.ChatID `json:"chatId" jsonschema:"required,description=The chat ID or @username to look up"`
}

// Register adds the five Telegram tools to srv. Each tool makes exactly one
// call on api.
func Register(srv *server.Server, api API) error {
	builders := []*server.ToolBuilder{
		srv.Tool(SendMessage).
			Description("Send a message to a Telegram chat").
			Title("Send message").
			Additive().
			OpenWorld().
			Handler(func(ctx context.Context, in SendMessageInput) (string, error) {
				msg, err := api.SendMessage(ctx, in.ChatID, in.Text)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Message sent! ID: %d", msg.MessageID), nil
			}),

		srv.Tool(SendPhoto).
			Description("Send a photo to a Telegram chat").
			Title("Send photo").
			Additive().
			OpenWorld().
			Handler(func(ctx context.Context, in SendPhotoInput) (string, error) {
				msg, err := api.SendPhoto(ctx, in.ChatID, in.PhotoURL, in.Caption)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("Photo sent! ID: %d", msg.MessageID), nil
			}),

		srv.Tool(DeleteMessage).
			Description("Delete a message from a Telegram chat").
			Title("Delete message").
			Destructive().
			Idempotent().
			OpenWorld().
			Handler(func(ctx context.Context, in DeleteMessageInput) (string, error) {
				ok, err := api.DeleteMessage(ctx, in.ChatID, in.MessageID)
				if err != nil {
					return "", err
				}
				if !ok {
					return "", fmt.Errorf("telegram did not confirm deletion of message %d", in.MessageID)
				}
				return "Message deleted successfully!", nil
			}),

		srv.Tool(GetUpdates).
			Description("Get incoming updates for the bot from Telegram").
			Title("Get updates").
			ReadOnly().
			OpenWorld().
			Handler(func(ctx context.Context, in GetUpdatesInput) ([]telegram.Update, error) {
				return api.GetUpdates(ctx, telegram.GetUpdatesParams{
					Offset: in.Offset,
					Limit:  in.Limit,
				})
			}),

		srv.Tool(GetChat).
			Description("Get information about a Telegram chat").
			Title("Get chat").
			ReadOnly().
			Idempotent().
			OpenWorld().
			Handler(func(ctx context.Context, in GetChatInput) (*telegram.Chat, error) {
				return api.GetChat(ctx, in.ChatID)
			}),
	}

	for _, b := range builders {
		if err := b.Err(); err != nil {
			return err
		}
	}
	return nil
}
