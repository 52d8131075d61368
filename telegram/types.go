package telegram

import "encoding/json"

// Envelope is the wrapper around every Bot API response. OK reports API-level
// success independently of the HTTP status.
type Envelope[T any] struct {
	OK          bool                `json:"ok"`
	Result      T                   `json:"result"`
	Description string              `json:"description,omitempty"`
	ErrorCode   int                 `json:"error_code,omitempty"`
	Parameters  *ResponseParameters `json:"parameters,omitempty"`
}

// ResponseParameters explains why a request failed.
type ResponseParameters struct {
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
	RetryAfter      int   `json:"retry_after,omitempty"`
}

// Message is a sent or received message. Raw keeps the object exactly as
// Telegram returned it.
type Message struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Chat      *Chat  `json:"chat,omitempty"`
	From      *User  `json:"from,omitempty"`
	Text      string `json:"text,omitempty"`
	Caption   string `json:"caption,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and retains the raw object.
func (m *Message) UnmarshalJSON(data []byte) error {
	type plain Message
	if err := json.Unmarshal(data, (*plain)(m)); err != nil {
		return err
	}
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the raw object when present.
func (m Message) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type plain Message
	return json.Marshal(plain(m))
}

// Chat describes a private chat, group, supergroup or channel.
type Chat struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Username    string `json:"username,omitempty"`
	FirstName   string `json:"first_name,omitempty"`
	LastName    string `json:"last_name,omitempty"`
	Description string `json:"description,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the known fields and retains the raw object.
func (c *Chat) UnmarshalJSON(data []byte) error {
	type plain Chat
	if err := json.Unmarshal(data, (*plain)(c)); err != nil {
		return err
	}
	c.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the raw object when present.
func (c Chat) MarshalJSON() ([]byte, error) {
	if len(c.Raw) > 0 {
		return c.Raw, nil
	}
	type plain Chat
	return json.Marshal(plain(c))
}

// User is a Telegram user or bot.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name,omitempty"`
	Username  string `json:"username,omitempty"`
}

// Update is one incoming update. Only the id is decoded; Raw carries the
// full object for pass-through.
type Update struct {
	UpdateID int64 `json:"update_id"`

	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON decodes the update id and retains the raw object.
func (u *Update) UnmarshalJSON(data []byte) error {
	type plain Update
	if err := json.Unmarshal(data, (*plain)(u)); err != nil {
		return err
	}
	u.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the raw object when present.
func (u Update) MarshalJSON() ([]byte, error) {
	if len(u.Raw) > 0 {
		return u.Raw, nil
	}
	type plain Update
	return json.Marshal(plain(u))
}

// GetUpdatesParams selects which updates to fetch. A nil Offset is left out
// of the request so Telegram starts from the oldest unconfirmed update. A
// zero Limit means DefaultUpdatesLimit.
type GetUpdatesParams struct {
	Offset *int64
	Limit  int
}

type sendMessageRequest struct {
	ChatID    ChatID `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type sendPhotoRequest struct {
	ChatID    ChatID `json:"chat_id"`
	Photo     string `json:"photo"`
	Caption   string `json:"caption,omitempty"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type deleteMessageRequest struct {
	ChatID    ChatID `json:"chat_id"`
	MessageID int64  `json:"message_id"`
}
