// Package tags turns the many shapes a client can send project tags in into
// one ordered []string, and encodes that list for storage.
//
// Accepted shapes, all normalizing to ["a","b"]:
//
//	["a", "b"]          a JSON array (or repeated multipart fields)
//	"[\"a\",\"b\"]"     a JSON array literal inside a string
//	"a, b"              comma separated text
//
// Structured parsing always wins over the comma fallback, so "[\"a,b\"]"
// is one tag "a,b" and not two.
package tags

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Normalize converts raw into an ordered tag list.
//
// The boolean is false when raw carries no information (nil, or text that is
// empty after trimming). Callers treat that as "unspecified": keep the stored
// tags on update, store no tags on create. A present result may still be an
// empty slice, e.g. for "[]" or ",,".
//
// raw is whatever the transport decoded: nil, a string, []string (multipart),
// []any (JSON), json.RawMessage, or any other scalar.
func Normalize(raw any) ([]string, bool) {
	switch v := raw.(type) {
	case nil:
		return nil, false
	case json.RawMessage:
		return normalizeRaw(v)
	case []string:
		if len(v) == 1 {
			return normalizeText(v[0])
		}
		out := make([]string, len(v))
		copy(out, v)
		return out, true
	case []any:
		return stringify(v), true
	case string:
		return normalizeText(v)
	default:
		return normalizeText(toString(v))
	}
}

// normalizeRaw handles a JSON value captured verbatim from a request body.
func normalizeRaw(data json.RawMessage) ([]string, bool) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}

	var v any
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return normalizeText(string(trimmed))
	}
	return Normalize(v)
}

func normalizeText(s string) ([]string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	// Structured first.
	var parsed any
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&parsed); err == nil && !dec.More() {
		if arr, ok := parsed.([]any); ok {
			return stringify(arr), true
		}
	}

	// Comma fallback.
	pieces := strings.Split(s, ",")
	out := make([]string, 0, len(pieces))
	for _, p := range pieces {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, true
}

// stringify keeps order and duplicates.
func stringify(items []any) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = toString(item)
	}
	return out
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case string:
		return x
	case json.Number:
		return x.String()
	case bool, float64, int, int64:
		return fmt.Sprint(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

// Encode serialises tags for the TEXT column. nil encodes as "[]".
func Encode(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, _ := json.Marshal(list)
	return string(b)
}

// Decode parses a stored tags column. An empty column decodes to an empty list.
func Decode(stored string) ([]string, error) {
	stored = strings.TrimSpace(stored)
	if stored == "" || stored == "null" {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(stored), &list); err != nil {
		return nil, fmt.Errorf("tags: decoding %q: %w", stored, err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}
