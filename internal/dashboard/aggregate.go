// Package dashboard turns raw collections into the totals and chart series
// shown on the dashboard. Nothing here fails on bad data: unreadable amounts
// count as zero and unreadable dates drop out of dated views.
package dashboard

import (
	"cmp"
	"slices"
	"time"

	"fincontrol/internal/core"
	"fincontrol/internal/store"
)

type (
	Metrics struct {
		TotalSales          core.Money `json:"totalSales"`
		TotalExpenses       core.Money `json:"totalExpenses"`
		TotalDebtsRemaining core.Money `json:"totalDebtsRemaining"`
		Profit              core.Money `json:"profit"`
	}

	MonthBucket struct {
		Label    string     `json:"label"`
		Year     int        `json:"year"`
		Month    time.Month `json:"month"`
		Sales    core.Money `json:"sales"`
		Expenses core.Money `json:"expenses"`
	}

	CategoryBucket struct {
		Label string     `json:"label"`
		Value core.Money `json:"value"`
	}

	Report struct {
		Mode        Mode             `json:"mode"`
		Window      Window           `json:"window"`
		Metrics     Metrics          `json:"metrics"`
		Monthly     []MonthBucket    `json:"monthly"`
		ByCategory  []CategoryBucket `json:"byCategory"`
		GeneratedAt time.Time        `json:"generatedAt"`
	}
)

func amountOf(r store.Record, field string) core.Money {
	return core.ParseAmount(r[field])
}

func inWindow(records []store.Record, w Window) []store.Record {
	f := w.Filter()
	out := make([]store.Record, 0, len(records))
	for _, r := range records {
		if f.Contains(store.RecordDate(r)) {
			out = append(out, r)
		}
	}
	return out
}

func sum(records []store.Record, field string) core.Money {
	total := core.Zero()
	for _, r := range records {
		total = total.Add(amountOf(r, field))
	}
	return total
}

// Summarize totals the records dated inside w. Debts contribute their current
// remaining balance when their own date is in the window.
func Summarize(sales, expenses, debts []store.Record, w Window) Metrics {
	m := Metrics{
		TotalSales:          sum(inWindow(sales, w), store.FieldAmount),
		TotalExpenses:       sum(inWindow(expenses, w), store.FieldAmount),
		TotalDebtsRemaining: sum(inWindow(debts, w), "remaining"),
	}
	m.Profit = m.TotalSales.Sub(m.TotalExpenses)
	return m
}

// BucketByMonth sums sales and expenses per calendar month. Buckets appear in
// first-seen order, sales months first; use SortBucketsChronologically for
// display. Records without a readable date are skipped.
func BucketByMonth(sales, expenses []store.Record, loc core.Locale) []MonthBucket {
	var out []MonthBucket
	index := map[int]int{}

	add := func(r store.Record, isSale bool) {
		d, ok := store.RecordDate(r)
		if !ok {
			return
		}
		key := d.Year()*12 + int(d.Month()) - 1
		i, seen := index[key]
		if !seen {
			i = len(out)
			index[key] = i
			out = append(out, MonthBucket{
				Label:    loc.MonthLabel(d),
				Year:     d.Year(),
				Month:    d.Month(),
				Sales:    core.Zero(),
				Expenses: core.Zero(),
			})
		}
		if isSale {
			out[i].Sales = out[i].Sales.Add(amountOf(r, store.FieldAmount))
		} else {
			out[i].Expenses = out[i].Expenses.Add(amountOf(r, store.FieldAmount))
		}
	}

	for _, r := range sales {
		add(r, true)
	}
	for _, r := range expenses {
		add(r, false)
	}
	if out == nil {
		out = []MonthBucket{}
	}
	return out
}

// SortBucketsChronologically returns a copy of buckets ordered by year and
// month.
func SortBucketsChronologically(buckets []MonthBucket) []MonthBucket {
	out := slices.Clone(buckets)
	slices.SortStableFunc(out, func(a, b MonthBucket) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Month, b.Month)
	})
	return out
}

// BucketByCategory sums expenses per category label in first-seen order.
// Labels no longer in the category set still get their own bucket; a missing
// category is the empty label.
func BucketByCategory(expenses []store.Record) []CategoryBucket {
	out := []CategoryBucket{}
	index := map[string]int{}
	for _, r := range expenses {
		label, _ := r["category"].(string)
		i, seen := index[label]
		if !seen {
			i = len(out)
			index[label] = i
			out = append(out, CategoryBucket{Label: label, Value: core.Zero()})
		}
		out[i].Value = out[i].Value.Add(amountOf(r, store.FieldAmount))
	}
	return out
}

// Build produces the full dashboard report for w from a store snapshot. The
// chart series only see records inside the window.
func Build(doc *store.Document, mode Mode, w Window, loc core.Locale, now time.Time) Report {
	sales := inWindow(doc.Sales, w)
	expenses := inWindow(doc.Expenses, w)
	return Report{
		Mode:        mode,
		Window:      w,
		Metrics:     Summarize(doc.Sales, doc.Expenses, doc.Debts, w),
		Monthly:     BucketByMonth(sales, expenses, loc),
		ByCategory:  BucketByCategory(expenses),
		GeneratedAt: now,
	}
}
