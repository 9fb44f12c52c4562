// Package optional provides a three-state field for partial-update payloads.
//
// A JSON object decoded into a struct of plain fields cannot tell
// "field omitted" from "field sent as null" from "field sent as the zero
// value". Update endpoints need all three:
//
//	{}                  → Field{}                       absent: keep stored value
//	{"name": null}      → Field{Set: true, Null: true}  clear the stored value
//	{"isRead": false}   → Field{Set: true, Value: false}
//
// encoding/json only calls UnmarshalJSON for keys that are present, so a
// zero Field after decoding means the key was absent.
package optional

import (
	"bytes"
	"encoding/json"
)

// Field holds an optional value of type T.
type Field[T any] struct {
	Value T
	Set   bool // the key was present in the payload
	Null  bool // the key was present with a JSON null
}

// Some returns a Field that is set to v.
func Some[T any](v T) Field[T] {
	return Field[T]{Value: v, Set: true}
}

// Null returns a Field that is present but explicitly null.
func Null[T any]() Field[T] {
	return Field[T]{Set: true, Null: true}
}

// Present reports whether the field carries a non-null value.
func (f Field[T]) Present() bool {
	return f.Set && !f.Null
}

// Get returns the value and whether it is present and non-null.
func (f Field[T]) Get() (T, bool) {
	return f.Value, f.Present()
}

// UnmarshalJSON implements json.Unmarshaler.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Null = true
		var zero T
		f.Value = zero
		return nil
	}
	f.Null = false
	return json.Unmarshal(data, &f.Value)
}

// MarshalJSON implements json.Marshaler. Absent and null both encode as null;
// use `omitzero` on the struct field to drop absent values entirely.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.Present() {
		return []byte("null"), nil
	}
	return json.Marshal(f.Value)
}

// IsZero reports whether the field was absent. It lets encoding/json's
// omitzero option skip absent fields.
func (f Field[T]) IsZero() bool {
	return !f.Set
}
