package gateway

import (
	"encoding/json"
	"errors"
)

// Body is a response body after lenient parsing: empty, JSON, or text.
type Body struct {
	raw    []byte
	isJSON bool
}

// ParseBody classifies raw response bytes.
func ParseBody(raw []byte) Body {
	if len(raw) == 0 {
		return Body{}
	}
	return Body{raw: raw, isJSON: json.Valid(raw)}
}

// Empty reports an absent body. It is a success value, not an error.
func (b Body) Empty() bool { return len(b.raw) == 0 }

func (b Body) IsJSON() bool { return b.isJSON }

// Text returns the body as received.
func (b Body) Text() string { return string(b.raw) }

func (b Body) Bytes() []byte { return b.raw }

// Decode unmarshals a JSON body into v.
func (b Body) Decode(v any) error {
	if b.Empty() {
		return &DecodeError{Err: errors.New("empty body")}
	}
	if !b.isJSON {
		return &DecodeError{Err: errors.New("body is not JSON"), Text: b.Text()}
	}
	if err := json.Unmarshal(b.raw, v); err != nil {
		return &DecodeError{Err: err, Text: b.Text()}
	}
	return nil
}
