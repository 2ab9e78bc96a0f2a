package salonapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// TransportError covers failures with no usable server explanation: the
// backend was unreachable, timed out, returned non-2xx without a detail, or
// returned a body that could not be decoded.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: backend returned %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ValidationError is a non-2xx response that carried a server-supplied
// detail message.
type ValidationError struct {
	Op         string
	StatusCode int
	Detail     string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: backend rejected request (%d): %s", e.Op, e.StatusCode, e.Detail)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// DetailOf returns the server detail carried by err, if any.
func DetailOf(err error) (string, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) && ve.Detail != "" {
		return ve.Detail, true
	}
	return "", false
}

// extractDetail pulls a human message out of an error body. FastAPI emits
// {"detail": "..."} for HTTPException and {"detail": [{"msg": ...}]} for
// request validation; some proxies use {"message": "..."}.
func extractDetail(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var envelope struct {
		Detail  json.RawMessage `json:"detail"`
		Message string          `json:"message"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	if len(envelope.Detail) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Detail, &text); err == nil && strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &items); err == nil {
			msgs := make([]string, 0, len(items))
			for _, item := range items {
				if m := strings.TrimSpace(item.Msg); m != "" {
					msgs = append(msgs, m)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
	}
	return strings.TrimSpace(envelope.Message)
}
