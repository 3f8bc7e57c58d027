package dashboard

import (
	"fmt"
	"strings"
	"time"

	"fincontrol/internal/core"
	"fincontrol/internal/store"
)

type Mode string

const (
	Weekly  Mode = "weekly"
	Monthly Mode = "monthly"
	All     Mode = "all"
	Range   Mode = "range"
)

// ParseMode accepts the mode names case-insensitively. Empty means monthly.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return Monthly, nil
	case Weekly, Monthly, All, Range:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown dashboard mode %q", core.ErrValidation, s)
	}
}

// Window is an inclusive date range. A zero bound is open.
type Window struct {
	Start core.Date `json:"start"`
	End   core.Date `json:"end"`
}

// Filter converts w into a record store filter.
func (w Window) Filter() store.Filter {
	return store.Filter{From: w.Start, To: w.End}
}

func (w Window) String() string {
	return w.Start.String() + ".." + w.End.String()
}

const weekDays = 7

// SelectWindow resolves mode against now. Weekly covers the seven calendar
// days ending today. Monthly starts one calendar month back. Neither has an
// upper bound. Range uses custom only when both ends are set and is unbounded
// otherwise.
func SelectWindow(mode Mode, now time.Time, custom Window) (Window, error) {
	today := core.DateOf(now)
	switch mode {
	case Weekly:
		return Window{Start: core.DateOf(today.AddDate(0, 0, -(weekDays - 1)))}, nil
	case Monthly:
		return Window{Start: subtractMonth(today)}, nil
	case All:
		return Window{}, nil
	case Range:
		if custom.Start.IsEmpty() || custom.End.IsEmpty() {
			return Window{}, nil
		}
		return custom, nil
	default:
		return Window{}, fmt.Errorf("%w: unknown dashboard mode %q", core.ErrValidation, mode)
	}
}

// subtractMonth goes back one calendar month, clamping to the last day of the
// shorter month (March 31 becomes the last day of February).
func subtractMonth(d core.Date) core.Date {
	y, m, day := d.Date()
	first := time.Date(y, m-1, 1, 0, 0, 0, 0, time.UTC)
	last := first.AddDate(0, 1, -1).Day()
	return core.NewDate(first.Year(), int(first.Month()), min(day, last))
}
