// Package locquery turns free-text search input into a typed location query.
package locquery

import (
	"errors"
	"strings"
)

// Kind tags which shape a query holds.
type Kind string

const (
	KindPostcode Kind = "postcode"
	KindCityName Kind = "city"
)

var (
	// ErrEmptyQuery is returned for empty or whitespace-only input.
	ErrEmptyQuery = errors.New("please enter a city name or postcode")
	// ErrInvalidFormat is returned when input is neither a postcode nor a city name.
	ErrInvalidFormat = errors.New("please enter a valid city name or 4-digit postcode")
)

// Query is either a Postcode or a CityName. The zero value is invalid; build
// queries with Parse.
type Query struct {
	kind  Kind
	value string
}

// Kind reports the tag.
func (q Query) Kind() Kind { return q.kind }

// Value is the postcode digits or the trimmed city name.
func (q Query) Value() string { return q.value }

// IsPostcode reports whether the query holds a postcode.
func (q Query) IsPostcode() bool { return q.kind == KindPostcode }

// IsCityName reports whether the query holds a city name.
func (q Query) IsCityName() bool { return q.kind == KindCityName }

// String renders the query for logs.
func (q Query) String() string {
	if q.kind == "" {
		return "<invalid>"
	}
	return string(q.kind) + ":" + q.value
}

// Parse classifies search text. It never performs I/O.
func Parse(text string) (Query, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Query{}, ErrEmptyQuery
	}
	if isPostcode(trimmed) {
		return Query{kind: KindPostcode, value: trimmed}, nil
	}
	if isCityName(trimmed) {
		return Query{kind: KindCityName, value: trimmed}, nil
	}
	return Query{}, ErrInvalidFormat
}

// IsValidationError reports whether err came from Parse.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrInvalidFormat)
}

// Australian postcodes are exactly four ASCII digits.
func isPostcode(s string) bool {
	if len(s) != 4 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func isCityName(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == ' ', c == '\t':
		default:
			return false
		}
	}
	return true
}
