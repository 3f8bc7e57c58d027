package core

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"
	"time"
)

const (
	Payment  TransactionType = "payment"
	Increase TransactionType = "increase"
)

// DateLayout is the calendar date format used in persisted records and the API.
const DateLayout = "2006-01-02"

// DefaultCategories seeds the category set of a fresh document.
var DefaultCategories = []string{"Suministros", "Salarios", "Servicios", "Impuestos", "Otros"}

type (
	TransactionType string

	// Date is a calendar date without time of day, always in UTC.
	Date struct {
		time.Time
	}

	Sale struct {
		ID          int64     `json:"id"`
		Date        Date      `json:"date"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Client      string    `json:"client,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	Expense struct {
		ID          int64     `json:"id"`
		Date        Date      `json:"date"`
		Amount      Money     `json:"amount"`
		Description string    `json:"description"`
		Category    string    `json:"category"`
		Client      string    `json:"client,omitempty"`
		CreatedAt   time.Time `json:"createdAt"`
	}

	// Debt tracks money a client owes. Amount is the principal plus every
	// applied increase; Remaining is derived but persisted alongside.
	Debt struct {
		ID           int64         `json:"id"`
		Client       string        `json:"client"`
		Date         Date          `json:"date"`
		Amount       Money         `json:"amount"`
		Remaining    Money         `json:"remaining"`
		Description  string        `json:"description"`
		Transactions []Transaction `json:"transactions"`
		CreatedAt    time.Time     `json:"createdAt"`
	}

	Transaction struct {
		Type        TransactionType `json:"type"`
		Amount      Money           `json:"amount"`
		Date        Date            `json:"date"`
		Description string          `json:"description,omitempty"`
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses a calendar date, accepting full RFC3339 timestamps too.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return Date{Time: t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t.UTC()), nil
}

// DateFromValue reads a date out of a raw persisted value. ok is false when
// the value is missing or unparseable.
func DateFromValue(v any) (Date, bool) {
	s, isString := v.(string)
	if !isString {
		return Date{}, false
	}
	d, err := ParseDate(s)
	if err != nil {
		return Date{}, false
	}
	return d, true
}

// IsEmpty returns true if the date is zero
func (d Date) IsEmpty() bool {
	return d.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Before and After compare calendar dates only.
func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON never fails: unreadable dates decode to the zero Date so a
// single malformed record cannot make a whole collection unreadable.
func (d *Date) UnmarshalJSON(data []byte) error {
	*d = Date{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	if parsed, err := ParseDate(s); err == nil {
		*d = parsed
	}
	return nil
}

// IsOpen reports whether the debt still has an outstanding balance.
func (d Debt) IsOpen() bool {
	return d.Remaining.IsPositive()
}

// Paid is the total of all payments applied to the debt.
func (d Debt) Paid() Money {
	total := Zero()
	for _, tx := range d.Transactions {
		if tx.Type == Payment {
			total = total.Add(tx.Amount)
		}
	}
	return total
}

// SortedTransactions returns a copy of the history ordered by date. Entries
// sharing a date keep their append order.
func (d Debt) SortedTransactions() []Transaction {
	out := append([]Transaction(nil), d.Transactions...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

// ReplayRemaining applies the transactions in append order to principal,
// clamping at zero after each payment. It reproduces the stored Remaining of
// a debt whose principal was never edited directly.
func ReplayRemaining(principal Money, txs []Transaction) Money {
	remaining := principal
	for _, tx := range txs {
		switch tx.Type {
		case Payment:
			remaining = remaining.Sub(tx.Amount)
			if remaining.IsNegative() {
				remaining = Zero()
			}
		case Increase:
			remaining = remaining.Add(tx.Amount)
		}
	}
	return remaining
}

func (t TransactionType) IsValid() bool {
	return t == Payment || t == Increase
}
