package core

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// DefaultLocale matches the currency and month names the dashboard shows.
const DefaultLocale = "es-MX"

var monthAbbreviations = map[string][12]string{
	"es": {"ene", "feb", "mar", "abr", "may", "jun", "jul", "ago", "sept", "oct", "nov", "dic"},
	"en": {"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"},
	"it": {"gen", "feb", "mar", "apr", "mag", "giu", "lug", "ago", "set", "ott", "nov", "dic"},
}

// Locale formats amounts and month labels for display.
type Locale struct {
	tag    language.Tag
	months [12]string
}

// ParseLocale builds a Locale from a BCP 47 tag such as "es-MX". Languages
// without a month table fall back to Spanish month names.
func ParseLocale(s string) (Locale, error) {
	tag, err := language.Parse(s)
	if err != nil {
		return Locale{}, fmt.Errorf("%w: locale %q: %v", ErrValidation, s, err)
	}
	base, _ := tag.Base()
	months, ok := monthAbbreviations[base.String()]
	if !ok {
		months = monthAbbreviations["es"]
	}
	return Locale{tag: tag, months: months}, nil
}

// MustLocale is ParseLocale for known-good tags.
func MustLocale(s string) Locale {
	l, err := ParseLocale(s)
	if err != nil {
		panic(err)
	}
	return l
}

func (l Locale) String() string {
	return l.tag.String()
}

// FormatCurrency renders m with two fraction digits and the locale's digit
// grouping, e.g. "$1,234.50".
func (l Locale) FormatCurrency(m Money) string {
	p := message.NewPrinter(l.tag)
	digits := p.Sprintf("%v", number.Decimal(m.Abs().InexactFloat64(),
		number.MinFractionDigits(2), number.MaxFractionDigits(2)))
	if m.IsNegative() {
		return "-$" + digits
	}
	return "$" + digits
}

// MonthLabel renders the month and two-digit year of d, e.g. "ene 24".
func (l Locale) MonthLabel(d Date) string {
	return fmt.Sprintf("%s %02d", l.months[d.Month()-1], d.Year()%100)
}
