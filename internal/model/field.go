package model

import (
	"bytes"
	"encoding/json"
	"reflect"
)

// Field is a tagged optional value: Unset until a source observes it, Known
// afterwards, even when the observed value is empty.
type Field[T any] struct {
	value T
	known bool
}

// Known wraps an observed value.
func Known[T any](value T) Field[T] {
	return Field[T]{value: value, known: true}
}

// Unset returns a field that has not been observed.
func Unset[T any]() Field[T] {
	return Field[T]{}
}

// Get returns the value and whether it is known.
func (f Field[T]) Get() (T, bool) {
	return f.value, f.known
}

// IsKnown reports whether the field has been observed.
func (f Field[T]) IsKnown() bool { return f.known }

// IsZero reports an unset field; it drives the omitzero JSON option.
func (f Field[T]) IsZero() bool { return !f.known }

// Or returns the value when known and fallback otherwise.
func (f Field[T]) Or(fallback T) T {
	if f.known {
		return f.value
	}
	return fallback
}

// MarshalJSON encodes Unset as null and Known values as themselves. A known
// nil slice is written as an empty array so it stays Known after a round trip.
func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.known {
		return []byte("null"), nil
	}
	rv := reflect.ValueOf(f.value)
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return []byte("[]"), nil
	}
	return json.Marshal(f.value)
}

// UnmarshalJSON decodes null as Unset.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*f = Field[T]{}
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}
	*f = Known(value)
	return nil
}
