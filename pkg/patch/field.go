// Package patch models optional JSON fields whose absence, explicit null and
// concrete value all mean different things to a partial update.
package patch

import (
	"bytes"
	"encoding/json"
)

// Field is a tri-state optional value: unset (field omitted from the
// payload), null (field present with JSON null), or set to a value. The zero
// Field is the unset state, so plain struct literals behave like omitted
// fields.
type Field[T any] struct {
	present bool
	null    bool
	value   T
}

// Set returns a Field carrying the given value.
func Set[T any](value T) Field[T] {
	return Field[T]{present: true, value: value}
}

// Null returns a Field explicitly cleared to null.
func Null[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

// Present reports whether the field appeared in the payload at all.
func (f Field[T]) Present() bool {
	return f.present
}

// IsNull reports whether the field was present and explicitly null.
func (f Field[T]) IsNull() bool {
	return f.present && f.null
}

// Value returns the carried value and whether one was set. A present-but-null
// field reports false.
func (f Field[T]) Value() (T, bool) {
	if !f.present || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

// UnmarshalJSON is only invoked by encoding/json when the key is present,
// which is what distinguishes the unset state from the other two.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.present = true
	if bytes.Equal(data, []byte("null")) {
		f.null = true
		var zero T
		f.value = zero
		return nil
	}
	f.null = false
	return json.Unmarshal(data, &f.value)
}

// MarshalJSON round-trips the carried state; an unset field encodes as null
// (callers relying on omission should use pointer-to-Field with omitempty).
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.present || f.null {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}
