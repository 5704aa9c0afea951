package model

import "fmt"

// Language identifies the locale a text value or identifier belongs to.
type Language string

const (
	Japanese Language = "jp"
	English  Language = "en"
)

// Languages lists every supported language in canonical order.
var Languages = []Language{Japanese, English}

// ParseLanguage accepts the short codes used across sources.
func ParseLanguage(value string) (Language, error) {
	switch value {
	case "jp", "ja", "japanese", "JP", "JA":
		return Japanese, nil
	case "en", "english", "EN":
		return English, nil
	default:
		return "", fmt.Errorf("unknown language %q", value)
	}
}

// Other returns the counterpart language.
func (l Language) Other() Language {
	if l == English {
		return Japanese
	}
	return English
}

// Localized keeps one optional value per language. Values are replaced, never
// written through, so shallow copies can be shared safely.
type Localized[T any] struct {
	JP *T `json:"jp,omitempty"`
	EN *T `json:"en,omitempty"`
}

// Text is the localized string used for names and ability text.
type Text = Localized[string]

// Loc builds a Localized holding a single language value.
func Loc[T any](lang Language, value T) Localized[T] {
	var l Localized[T]
	l.Set(lang, value)
	return l
}

// Get returns the value for lang and whether it is present.
func (l Localized[T]) Get(lang Language) (T, bool) {
	p := l.ptr(lang)
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Value returns the value for lang or the zero value.
func (l Localized[T]) Value(lang Language) T {
	v, _ := l.Get(lang)
	return v
}

// Has reports whether lang carries a value.
func (l Localized[T]) Has(lang Language) bool {
	return l.ptr(lang) != nil
}

// Set stores value for lang.
func (l *Localized[T]) Set(lang Language, value T) {
	v := value
	if lang == English {
		l.EN = &v
		return
	}
	l.JP = &v
}

// Clear removes the value for lang.
func (l *Localized[T]) Clear(lang Language) {
	if lang == English {
		l.EN = nil
		return
	}
	l.JP = nil
}

// CopyFrom takes the value for lang from other, clearing it when other has none.
func (l *Localized[T]) CopyFrom(other Localized[T], lang Language) {
	if v, ok := other.Get(lang); ok {
		l.Set(lang, v)
		return
	}
	l.Clear(lang)
}

// IsZero reports whether no language carries a value.
func (l Localized[T]) IsZero() bool {
	return l.JP == nil && l.EN == nil
}

func (l Localized[T]) ptr(lang Language) *T {
	if lang == English {
		return l.EN
	}
	return l.JP
}
