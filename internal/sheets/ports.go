// Package sheets defines the spreadsheet mirror port.
package sheets

import "context"

// Exporter overwrites a whole tab with rows. The first row is the header.
// Calling it twice with the same rows leaves the same tab behind.
type Exporter interface {
	ReplaceRows(ctx context.Context, tab string, rows [][]any) error
}
