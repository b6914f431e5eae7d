package sheets

import (
	"context"

	"expenses/internal/aggregate"
	"expenses/internal/core"
)

// Ports for outbound adapters.
type (
	// Mirror keeps an external copy of the full expense list. Replace
	// overwrites the copy so that it matches list exactly.
	Mirror interface {
		Replace(ctx context.Context, list []core.Expense) error
	}
)

// Header is the column layout written by every mirror.
var Header = []string{"Date", "Category", "Description", "Amount", "Payment Method", "ID"}

// Rows flattens list into mirror rows, newest first, matching Header.
func Rows(list []core.Expense) [][]string {
	sorted := aggregate.FilterAndSort(list, aggregate.Filter{}, aggregate.SortLatest)
	out := make([][]string, 0, len(sorted))
	for _, e := range sorted {
		out = append(out, []string{
			e.Date.String(),
			string(e.Category),
			e.Description,
			e.Amount.String(),
			string(e.PaymentMethod),
			e.ID,
		})
	}
	return out
}
