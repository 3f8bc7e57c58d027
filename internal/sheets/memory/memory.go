package memory

import (
	"context"
	"sync"

	"fincontrol/internal/sheets"
)

// Exporter keeps tabs in memory. Used when no spreadsheet is configured and
// in tests.
type Exporter struct {
	mu     sync.Mutex
	tabs   map[string][][]any
	writes map[string]int
}

func New() *Exporter {
	return &Exporter{tabs: map[string][][]any{}, writes: map[string]int{}}
}

func (e *Exporter) ReplaceRows(_ context.Context, tab string, rows [][]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}
	e.tabs[tab] = cp
	e.writes[tab]++
	return nil
}

// Rows returns the current content of tab.
func (e *Exporter) Rows(tab string) [][]any {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tabs[tab]
}

// Writes counts how many times tab was replaced.
func (e *Exporter) Writes(tab string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.writes[tab]
}

var _ sheets.Exporter = (*Exporter)(nil)
