package server

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Content is one block of a tool result. Only text content is produced.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the payload of a tools/call response.
type ToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// TextResult returns a successful result carrying text.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: []Content{{Type: "text", Text: text}}}
}

// ErrorResult returns a failed result whose text is "Error: msg".
func ErrorResult(msg string) *ToolResult {
	return &ToolResult{
		Content: []Content{{Type: "text", Text: "Error: " + msg}},
		IsError: true,
	}
}

// Text joins the text of all content blocks.
func (r *ToolResult) Text() string {
	var sb strings.Builder
	for _, c := range r.Content {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// NewResult shapes a handler's return value. Strings are sent verbatim, a
// *ToolResult is passed through, anything else is sent as indented JSON.
func NewResult(v any) *ToolResult {
	switch v := v.(type) {
	case *ToolResult:
		if v == nil {
			return TextResult("")
		}
		return v
	case string:
		return TextResult(v)
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ErrorResult(fmt.Sprintf("encode result: %v", err))
	}
	return TextResult(string(data))
}

// Failed reports whether the result is a tool-level failure.
func (r *ToolResult) Failed() bool {
	return r != nil && r.IsError
}
