// Package reconcile merges heterogeneous, partially-overlapping provider
// records about one lead into consistent professional and financial views.
// Provider payloads are untyped documents at this boundary and nowhere
// else: everything downstream works on the typed model structs.
package reconcile

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// Document is an untyped provider payload fragment. Accessors tolerate the
// field-name drift seen across provider versions by taking alternate keys
// in precedence order.
type Document map[string]any

// ParsePayload decodes a raw provider response into a Document. The
// provider wraps everything in a "data" envelope on some plans; unwrap it
// when present.
func ParsePayload(raw json.RawMessage) (Document, error) {
	if len(raw) == 0 {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, eris.Wrap(err, "reconcile: parse provider payload")
	}
	if inner := doc.Doc("data"); len(inner) > 0 {
		return inner, nil
	}
	return doc, nil
}

// Str returns the first non-empty string value among the given keys.
func (d Document) Str(keys ...string) string {
	for _, k := range keys {
		switch v := d[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}

// Num returns the first value among the given keys that parses as a
// number. Non-numeric values are skipped, not errors.
func (d Document) Num(keys ...string) (float64, bool) {
	for _, k := range keys {
		switch v := d[k].(type) {
		case float64:
			return v, true
		case int:
			return float64(v), true
		case json.Number:
			if f, err := v.Float64(); err == nil {
				return f, true
			}
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", ""))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return f, true
			}
		}
	}
	return 0, false
}

// Bool returns the first explicit boolean among the given keys. String
// forms "true"/"false" count as explicit; anything else does not.
func (d Document) Bool(keys ...string) (bool, bool) {
	for _, k := range keys {
		switch v := d[k].(type) {
		case bool:
			return v, true
		case string:
			switch strings.ToLower(strings.TrimSpace(v)) {
			case "true", "yes":
				return true, true
			case "false", "no":
				return false, true
			}
		}
	}
	return false, false
}

// Doc returns a nested object, or an empty Document.
func (d Document) Doc(key string) Document {
	if m, ok := d[key].(map[string]any); ok {
		return Document(m)
	}
	return Document{}
}

// Docs returns the first array of objects among the given keys.
func (d Document) Docs(keys ...string) []Document {
	for _, k := range keys {
		arr, ok := d[k].([]any)
		if !ok {
			continue
		}
		out := make([]Document, 0, len(arr))
		for _, item := range arr {
			if m, ok := item.(map[string]any); ok {
				out = append(out, Document(m))
			}
		}
		return out
	}
	return nil
}
