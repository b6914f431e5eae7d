// Package share sends a short report summary to a configured target and
// falls back to a copyable text payload when no target can take it.
package share

import (
	"fmt"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"expenses/internal/core"
)

// Formatter renders amounts in one locale and currency.
type Formatter struct {
	printer *message.Printer
	unit    currency.Unit
	valid   bool
}

// NewFormatter parses a BCP 47 locale such as "en-IN" and an ISO 4217 code
// such as "INR". Unknown values degrade to plain two-decimal numbers.
func NewFormatter(locale, code string) Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.English
	}
	f := Formatter{printer: message.NewPrinter(tag)}
	if unit, err := currency.ParseISO(code); err == nil {
		f.unit = unit
		f.valid = true
	}
	return f
}

// Amount formats m with the currency symbol and locale grouping.
func (f Formatter) Amount(m core.Money) string {
	if !f.valid {
		return m.String()
	}
	return f.printer.Sprint(currency.Symbol(f.unit.Amount(m.Float64())))
}

// Summary is the text shared for a report: the title and the total.
func (f Formatter) Summary(title string, total core.Money) string {
	return fmt.Sprintf("%s\nTotal: %s", title, f.Amount(total))
}

// Summary formats with a one-off formatter.
func Summary(title string, total core.Money, locale, code string) string {
	return NewFormatter(locale, code).Summary(title, total)
}
