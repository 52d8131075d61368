package schema

import (
	"encoding/json"
	"testing"
)

func TestNormalizeIntegers(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "untouched", in: `{"messageId":99,"text":"1.0"}`, want: `{"messageId":99,"text":"1.0"}`},
		{name: "trailing zero", in: `{"chatId":1,"messageId":99.0}`, want: `{"chatId":1,"messageId":99}`},
		{name: "exponent", in: `{"limit":1e1}`, want: `{"limit":10}`},
		{name: "negative", in: `{"offset":-5.00}`, want: `{"offset":-5}`},
		{name: "decimal kept", in: `{"ratio":0.5}`, want: `{"ratio":0.5}`},
		{name: "nested", in: `{"ids":[1.0,2.5],"o":{"n":3E0}}`, want: `{"ids":[1,2.5],"o":{"n":3}}`},
		{name: "too large to be exact", in: `{"n":1e300}`, want: `{"n":1e300}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeIntegers(json.RawMessage(tt.in))
			if err != nil {
				t.Fatalf("NormalizeIntegers: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := NormalizeIntegers(json.RawMessage(`{"n":1.0`)); err == nil {
		t.Error("expected error for truncated JSON")
	}
}
