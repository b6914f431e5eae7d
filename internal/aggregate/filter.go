// Package aggregate turns a raw expense list into the derived views the
// dashboard, history and report screens show. Every function is pure: inputs
// are never modified and no state is kept between calls.
package aggregate

import (
	"sort"
	"strings"

	"expenses/internal/core"
)

// AllCategories is the category filter value that disables category filtering.
const AllCategories = "All"

// SortMode selects the history ordering.
type SortMode string

const (
	SortLatest SortMode = "latest"
	SortAmount SortMode = "amount"
)

// ParseSortMode maps user input to a sort mode, Latest by default.
func ParseSortMode(s string) SortMode {
	if strings.EqualFold(strings.TrimSpace(s), string(SortAmount)) {
		return SortAmount
	}
	return SortLatest
}

// Filter narrows an expense list. Zero values match everything.
type Filter struct {
	Category string // "All", "" or one category
	Date     string // exact YYYY-MM-DD, "" for any day
}

func (f Filter) matches(e core.Expense) bool {
	if f.Category != "" && f.Category != AllCategories && !strings.EqualFold(string(e.Category), f.Category) {
		return false
	}
	if f.Date != "" && e.Date.String() != f.Date {
		return false
	}
	return true
}

// FilterAndSort returns a new slice with the expenses matching f, ordered by
// mode. Ties keep their original relative order.
func FilterAndSort(list []core.Expense, f Filter, mode SortMode) []core.Expense {
	out := make([]core.Expense, 0, len(list))
	for _, e := range list {
		if f.matches(e) {
			out = append(out, e)
		}
	}

	switch mode {
	case SortAmount:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Amount.Cents > out[j].Amount.Cents
		})
	default:
		sortByDateDesc(out)
	}
	return out
}

func sortByDateDesc(list []core.Expense) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date.After(list[j].Date.Time)
	})
}
