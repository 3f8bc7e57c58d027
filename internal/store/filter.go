package store

import (
	"context"
	"strings"

	"fincontrol/internal/core"
)

// Filter bounds records by their date field, both ends inclusive. A zero
// bound is unconstrained.
type Filter struct {
	From core.Date
	To   core.Date
}

func (f Filter) bounded() bool {
	return !f.From.IsEmpty() || !f.To.IsEmpty()
}

// Contains reports whether d falls inside the filter. A record without a
// readable date only passes an unbounded filter.
func (f Filter) Contains(d core.Date, ok bool) bool {
	if !f.bounded() {
		return true
	}
	if !ok {
		return false
	}
	if !f.From.IsEmpty() && d.Before(f.From) {
		return false
	}
	if !f.To.IsEmpty() && d.After(f.To) {
		return false
	}
	return true
}

// RecordDate reads the date field of r.
func RecordDate(r Record) (core.Date, bool) {
	return core.DateFromValue(r[FieldDate])
}

// GetFiltered returns the records of c whose date falls in f.
func (s *Store) GetFiltered(ctx context.Context, c Collection, f Filter) ([]Record, error) {
	records, err := s.GetAll(ctx, c)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if f.Contains(RecordDate(r)) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Query combines a date filter with free-text search.
type Query struct {
	Filter
	Text string
}

// Find returns the records of c matching q. Text matches case-insensitively
// against client, category, description and the formatted amount.
func (s *Store) Find(ctx context.Context, c Collection, q Query) ([]Record, error) {
	records, err := s.GetFiltered(ctx, c, q.Filter)
	if err != nil {
		return nil, err
	}
	text := strings.ToLower(strings.TrimSpace(q.Text))
	if text == "" {
		return records, nil
	}
	out := records[:0]
	for _, r := range records {
		if Matches(r, text, s.locale) {
			out = append(out, r)
		}
	}
	return out, nil
}

var searchFields = []string{"client", "category", "description"}

// Matches reports whether lowered text occurs in one of the searchable
// fields of r or in its amount, either raw or formatted for loc.
func Matches(r Record, text string, loc core.Locale) bool {
	for _, f := range searchFields {
		if s, ok := r[f].(string); ok && strings.Contains(strings.ToLower(s), text) {
			return true
		}
	}
	amount := core.ParseAmount(r[FieldAmount])
	return strings.Contains(amount.String(), text) ||
		strings.Contains(strings.ToLower(loc.FormatCurrency(amount)), text)
}
