package services

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"unicode/utf8"

	"fincontrol/internal/core"
)

// MaxDescriptionLength bounds free-text descriptions, in runes.
const MaxDescriptionLength = 200

// ValidationError lists the offending fields. It matches core.ErrValidation.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, k := range slices.Sorted(maps.Keys(e.Fields)) {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation error: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return core.ErrValidation }

type checker struct {
	fields map[string]string
}

func (c *checker) fail(field, msg string) {
	if c.fields == nil {
		c.fields = map[string]string{}
	}
	if _, ok := c.fields[field]; !ok {
		c.fields[field] = msg
	}
}

func (c *checker) err() error {
	if len(c.fields) == 0 {
		return nil
	}
	return &ValidationError{Fields: c.fields}
}

func (c *checker) amount(m core.Money) {
	if m.IsNegative() {
		c.fail("amount", "must not be negative")
	}
}

// date rejects missing dates. Future dates are allowed.
func (c *checker) date(d core.Date) {
	if d.IsEmpty() {
		c.fail("date", "is required")
	}
}

func (c *checker) description(s string) {
	if utf8.RuneCountInString(s) > MaxDescriptionLength {
		c.fail("description", fmt.Sprintf("must be at most %d characters", MaxDescriptionLength))
	}
}
