package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jrsteele09/go-schooltracker-client/internal/errors"
	"github.com/jrsteele09/go-schooltracker-client/internal/utils"
)

const networkErrorMessage = "Network error. Please check your network connection."

// HTTPError is returned for any non-2xx response that is not recovered by a
// token refresh.
type HTTPError struct {
	Status int
	Body   []byte
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("http %d: %s", e.Status, e.Message())
}

// Message extracts the most specific human readable text from the error body:
// field-level validation messages, then detail, then error, then the raw
// body, then the status code.
func (e *HTTPError) Message() string {
	if fields := e.FieldMessages(); fields != "" {
		return fields
	}

	var generic struct {
		Detail any `json:"detail"`
		Error  any `json:"error"`
	}
	if err := json.Unmarshal(e.Body, &generic); err == nil {
		if s := strings.Join(utils.ToStringSlice(generic.Detail), " "); s != "" {
			return s
		}
		if s := strings.Join(utils.ToStringSlice(generic.Error), " "); s != "" {
			return s
		}
	}

	raw := strings.TrimSpace(string(e.Body))
	var quoted string
	if err := json.Unmarshal(e.Body, &quoted); err == nil {
		raw = quoted
	}
	if raw != "" && !strings.HasPrefix(raw, "{") && !strings.HasPrefix(raw, "[") {
		return raw
	}
	return fmt.Sprintf("Request failed with status code %d", e.Status)
}

// FieldMessages renders per-field validation arrays as
// "field: msg1, msg2; field2: msg3", keeping the order the server sent.
// It returns "" when the body carries no field-keyed arrays.
func (e *HTTPError) FieldMessages() string {
	fields, ok := orderedObject(e.Body)
	if !ok {
		return ""
	}

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		if f.key == "detail" || f.key == "error" {
			continue
		}
		list, isList := f.value.([]any)
		if !isList {
			continue
		}
		msgs := utils.ToStringSlice(list)
		if len(msgs) == 0 {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", f.key, strings.Join(msgs, ", ")))
	}
	return strings.Join(parts, "; ")
}

type field struct {
	key   string
	value any
}

func orderedObject(body []byte) ([]field, bool) {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, false
	}

	var fields []field
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, false
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, false
		}
		fields = append(fields, field{key: key, value: v})
	}
	return fields, true
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return 0
}

// UserMessage turns any gateway error into text suitable for inline display.
// Errors with their own UserMessage method win; fallback is used when err
// carries nothing more specific.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var described interface{ UserMessage() string }
	if errors.As(err, &described) {
		return described.UserMessage()
	}
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Message()
	}
	if errors.Is(err, errors.ErrTransport) {
		return networkErrorMessage
	}
	if errors.Is(err, errors.ErrUnauthenticated) || errors.Is(err, errors.ErrRefreshFailed) {
		return err.Error()
	}
	if fallback != "" {
		return fallback
	}
	return err.Error()
}
