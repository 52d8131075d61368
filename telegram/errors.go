package telegram

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoToken is returned by New when no bot token is configured.
var ErrNoToken = errors.New("telegram: bot token is required")

// APIError is a failure reported by the Bot API itself (ok=false).
type APIError struct {
	Method      string
	StatusCode  int // HTTP status
	Code        int // error_code from the envelope
	Description string
	RetryAfter  int
}

func (e *APIError) Error() string {
	desc := e.Description
	if desc == "" {
		desc = "request was not successful"
	}
	if e.Code != 0 {
		return fmt.Sprintf("telegram: %s: %s (code %d)", e.Method, desc, e.Code)
	}
	return fmt.Sprintf("telegram: %s: %s", e.Method, desc)
}

// HTTPError is a non-2xx response that did not carry a Bot API envelope.
type HTTPError struct {
	Method     string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("telegram: %s: unexpected HTTP status %d", e.Method, e.StatusCode)
	}
	return fmt.Sprintf("telegram: %s: unexpected HTTP status %d: %s", e.Method, e.StatusCode, e.Body)
}

// scrubbedError hides the bot token, which net/http embeds in *url.Error.
type scrubbedError struct {
	err      error
	scrubber *strings.Replacer
}

func (e *scrubbedError) Error() string { return e.scrubber.Replace(e.err.Error()) }

func (e *scrubbedError) Unwrap() error { return e.err }

func (c *Client) scrub(err error) error {
	if err == nil {
		return nil
	}
	return &scrubbedError{err: err, scrubber: c.scrubber}
}
