package gateway

import (
	"fmt"
	"strings"
)

// TransportError means the request never produced an HTTP response
// (connection refused, DNS failure, timeout).
type TransportError struct {
	Method string
	URL    string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// HTTPError is a response with a non-2xx status.
type HTTPError struct {
	Method string
	URL    string
	Status int
	Body   Body
}

func (e *HTTPError) Error() string {
	msg := e.Message()
	if msg == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.URL, e.Status)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.URL, e.Status, msg)
}

// Message extracts the server's explanation: the "message" field, then the
// "error" field, then the raw body text.
func (e *HTTPError) Message() string {
	if e.Body.IsJSON() {
		var envelope struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := e.Body.Decode(&envelope); err == nil {
			if envelope.Message != "" {
				return envelope.Message
			}
			if envelope.Error != "" {
				return envelope.Error
			}
		}
	}
	return strings.TrimSpace(e.Body.Text())
}

// DecodeError is returned by Body.Decode when the body is not the JSON the
// caller asked for.
type DecodeError struct {
	Err  error
	Text string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode response: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
