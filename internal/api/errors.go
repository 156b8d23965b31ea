package api

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies a client error once, where the response is read.
// Downstream code switches on Kind instead of matching rendered text.
type Kind int

const (
	// KindTransport covers connection failures, timeouts and responses
	// that could not be parsed.
	KindTransport Kind = iota
	// KindAuth covers 401/403 responses.
	KindAuth
	// KindNotFound covers 404 responses.
	KindNotFound
	// KindValidation covers 4xx responses carrying field-level messages.
	KindValidation
	// KindServer covers 5xx responses.
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAuth:
		return "auth"
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	case KindServer:
		return "server"
	}
	return "unknown"
}

// Error is a classified failure from the remote service.
type Error struct {
	Kind    Kind
	Status  int // HTTP status, 0 for transport failures
	Message string
	// Fields holds per-field validation messages when the response body
	// followed the {field: [messages]} shape.
	Fields map[string][]string
	cause  error
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return e.Message + ": " + e.FieldSummary()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// FieldSummary renders the validation fields as "field: msg; field: msg"
// in stable order.
func (e *Error) FieldSummary() string {
	if len(e.Fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var parts []string
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strings.Join(e.Fields[name], ", ")))
	}
	return strings.Join(parts, "; ")
}

// transportError wraps a failure that never produced a usable response.
func transportError(err error) *Error {
	return &Error{
		Kind:    KindTransport,
		Message: fmt.Sprintf("request failed: %v", err),
		cause:   err,
	}
}

// statusError classifies a non-2xx response. Validation bodies of the
// {field: [messages]} shape are extracted field by field; anything else
// surfaces the raw body.
func statusError(status int, body []byte) *Error {
	e := &Error{Status: status}

	switch {
	case status == 401 || status == 403:
		e.Kind = KindAuth
		e.Message = fmt.Sprintf("authentication failed (HTTP %d)", status)
	case status == 404:
		e.Kind = KindNotFound
		e.Message = "not found"
	case status >= 500:
		e.Kind = KindServer
		e.Message = fmt.Sprintf("server error (HTTP %d)", status)
	default:
		e.Kind = KindValidation
		e.Message = fmt.Sprintf("request rejected (HTTP %d)", status)
		if fields := parseFieldErrors(body); len(fields) > 0 {
			e.Fields = fields
			return e
		}
	}

	if len(body) > 0 && e.Fields == nil && e.Kind == KindValidation {
		e.Message = fmt.Sprintf("request rejected (HTTP %d): %s", status, strings.TrimSpace(string(body)))
	}
	return e
}

// parseFieldErrors tries the {"error": {field: [msgs]}} and bare
// {field: [msgs]} shapes. Returns nil if the body is anything else.
func parseFieldErrors(body []byte) map[string][]string {
	var wrapped struct {
		Error json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil && len(wrapped.Error) > 0 {
		if fields := decodeFieldMap(wrapped.Error); fields != nil {
			return fields
		}
	}
	return decodeFieldMap(body)
}

func decodeFieldMap(raw []byte) map[string][]string {
	var fields map[string][]string
	if err := json.Unmarshal(raw, &fields); err != nil || len(fields) == 0 {
		return nil
	}
	return fields
}
