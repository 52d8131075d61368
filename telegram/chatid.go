package telegram

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/telegram-mcp/schema"
)

// ChatID identifies a chat. Callers may supply it as a JSON number or as a
// string (a numeric id or a public @username); it is always sent to Telegram
// as a string.
type ChatID struct {
	num     int64
	str     string
	numeric bool
}

// NumericChatID returns a ChatID for a numeric chat id.
func NumericChatID(id int64) ChatID {
	return ChatID{num: id, numeric: true}
}

// ParseChatID parses the string form of a chat id.
func ParseChatID(s string) (ChatID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ChatID{}, fmt.Errorf("chat id is empty")
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return ChatID{str: s}, nil
	}
	if isUsername(s) {
		return ChatID{str: s}, nil
	}
	return ChatID{}, fmt.Errorf("chat id %q is neither an integer nor an @username", s)
}

// isUsername reports whether s looks like a public chat username (@name).
func isUsername(s string) bool {
	name, ok := strings.CutPrefix(s, "@")
	if !ok || len(name) < 4 || len(name) > 32 {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
		default:
			return false
		}
	}
	return true
}

// IsZero reports whether the ChatID was never set.
func (c ChatID) IsZero() bool {
	return !c.numeric && c.str == ""
}

// IsNumeric reports whether the id was supplied as a JSON number.
func (c ChatID) IsNumeric() bool {
	return c.numeric
}

// String returns the form sent to Telegram.
func (c ChatID) String() string {
	if c.numeric {
		return strconv.FormatInt(c.num, 10)
	}
	return c.str
}

// MarshalJSON encodes the id as a JSON string.
func (c ChatID) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON accepts a JSON integer or a JSON string.
func (c *ChatID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return fmt.Errorf("chat id is required")
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := ParseChatID(s)
		if err != nil {
			return err
		}
		*c = parsed
		return nil
	}

	n, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		// Clients sometimes send 12345.0 or 1.2345e4.
		f, ferr := strconv.ParseFloat(string(data), 64)
		if ferr != nil || f != math.Trunc(f) || math.Abs(f) > maxExactFloat {
			return fmt.Errorf("chat id %s is not an integer", data)
		}
		n = int64(f)
	}
	*c = NumericChatID(n)
	return nil
}

// maxExactFloat is the largest integer a float64 holds exactly (2^53).
const maxExactFloat = 1 << 53

// JSONSchema describes the accepted shapes.
func (ChatID) JSONSchema() *schema.Schema {
	return &schema.Schema{
		AnyOf: []*schema.Schema{
			{Type: "integer"},
			{Type: "string"},
		},
	}
}
