package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fincontrol/internal/core"
	"fincontrol/internal/store"
)

var es = core.MustLocale("es-MX")

func TestSummarizeWindow(t *testing.T) {
	sales := []store.Record{{"date": "2024-01-10", "amount": 100}}
	expenses := []store.Record{{"date": "2024-01-10", "amount": 40}}
	w := Window{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31)}

	m := Summarize(sales, expenses, nil, w)
	assert.Equal(t, "100", m.TotalSales.String())
	assert.Equal(t, "40", m.TotalExpenses.String())
	assert.Equal(t, "60", m.Profit.String())
	assert.True(t, m.TotalDebtsRemaining.IsZero())
}

func TestSummarizeBoundsAreInclusive(t *testing.T) {
	sales := []store.Record{
		{"date": "2023-12-31", "amount": 1},
		{"date": "2024-01-01", "amount": 2},
		{"date": "2024-01-31", "amount": 4},
		{"date": "2024-02-01", "amount": 8},
		{"date": "bad", "amount": 16},
	}
	w := Window{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31)}
	assert.Equal(t, "6", Summarize(sales, nil, nil, w).TotalSales.String())
	assert.Equal(t, "31", Summarize(sales, nil, nil, Window{}).TotalSales.String())
}

func TestSummarizeIsDefensive(t *testing.T) {
	sales := []store.Record{
		{"date": "2024-01-10", "amount": "abc"},
		{"date": "2024-01-10"},
		{"date": "2024-01-10", "amount": "12,5"},
		{"date": "2024-01-10", "amount": map[string]any{}},
	}
	debts := []store.Record{
		{"date": "2024-01-05", "remaining": 70, "amount": 100},
		{"date": "2023-06-05", "remaining": 30, "amount": 30},
	}
	w := Window{Start: core.NewDate(2024, 1, 1)}
	m := Summarize(sales, nil, debts, w)
	assert.Equal(t, "12.5", m.TotalSales.String())
	assert.Equal(t, "70", m.TotalDebtsRemaining.String(), "debts count by their own date")
	assert.Equal(t, "12.5", m.Profit.String())
}

func TestBucketByCategory(t *testing.T) {
	expenses := []store.Record{
		{"category": "A", "amount": 10},
		{"category": "B", "amount": 5},
		{"category": "A", "amount": 3},
	}
	got := BucketByCategory(expenses)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Label)
	assert.Equal(t, "13", got[0].Value.String())
	assert.Equal(t, "B", got[1].Label)
	assert.Equal(t, "5", got[1].Value.String())
}

func TestBucketByCategoryKeepsOrphans(t *testing.T) {
	got := BucketByCategory([]store.Record{
		{"category": "Borrada", "amount": 1},
		{"amount": 2},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "Borrada", got[0].Label)
	assert.Equal(t, "", got[1].Label)
	assert.Empty(t, BucketByCategory(nil))
}

func TestBucketByMonthFirstSeenOrder(t *testing.T) {
	sales := []store.Record{
		{"date": "2024-03-02", "amount": 10},
		{"date": "2024-01-15", "amount": 5},
		{"date": "2024-03-20", "amount": 1},
	}
	expenses := []store.Record{
		{"date": "2024-02-10", "amount": 7},
		{"date": "2024-01-01", "amount": 2},
		{"date": "nope", "amount": 100},
	}
	got := BucketByMonth(sales, expenses, es)
	require.Len(t, got, 3)

	assert.Equal(t, "mar 24", got[0].Label)
	assert.Equal(t, "11", got[0].Sales.String())
	assert.True(t, got[0].Expenses.IsZero())

	assert.Equal(t, "ene 24", got[1].Label)
	assert.Equal(t, "5", got[1].Sales.String())
	assert.Equal(t, "2", got[1].Expenses.String())

	assert.Equal(t, "feb 24", got[2].Label, "expense-only month still appears")
	assert.True(t, got[2].Sales.IsZero())
	assert.Equal(t, "7", got[2].Expenses.String())

	sorted := SortBucketsChronologically(got)
	assert.Equal(t, []string{"ene 24", "feb 24", "mar 24"},
		[]string{sorted[0].Label, sorted[1].Label, sorted[2].Label})
	assert.Equal(t, "mar 24", got[0].Label, "input is not reordered")
}

func TestBucketByMonthSeparatesYears(t *testing.T) {
	got := BucketByMonth([]store.Record{
		{"date": "2024-12-01", "amount": 1},
		{"date": "2023-12-01", "amount": 1},
	}, nil, es)
	require.Len(t, got, 2)
	assert.Equal(t, "dic 24", got[0].Label)
	assert.Equal(t, "dic 23", got[1].Label)
	assert.Equal(t, "dic 23", SortBucketsChronologically(got)[0].Label)
}

func TestBuildFiltersChartSeries(t *testing.T) {
	doc := &store.Document{
		Sales: []store.Record{
			{"date": "2024-01-10", "amount": 100},
			{"date": "2023-11-10", "amount": 999},
		},
		Expenses: []store.Record{
			{"date": "2024-01-12", "amount": 40, "category": "Otros"},
			{"date": "2023-11-12", "amount": 999, "category": "Viejo"},
		},
	}
	w := Window{Start: core.NewDate(2024, 1, 1), End: core.NewDate(2024, 1, 31)}
	r := Build(doc, Range, w, es, time.Now())

	assert.Equal(t, "60", r.Metrics.Profit.String())
	require.Len(t, r.Monthly, 1)
	assert.Equal(t, "ene 24", r.Monthly[0].Label)
	require.Len(t, r.ByCategory, 1)
	assert.Equal(t, "Otros", r.ByCategory[0].Label)
}
