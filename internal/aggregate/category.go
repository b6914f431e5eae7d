package aggregate

import "expenses/internal/core"

// ByCategory sums amounts per category. Categories appear in order of first
// occurrence and absent categories are omitted.
func ByCategory(list []core.Expense) []core.CategoryTotal {
	index := make(map[core.Category]int)
	totals := make([]core.CategoryTotal, 0, len(core.Categories()))
	for _, e := range list {
		i, ok := index[e.Category]
		if !ok {
			i = len(totals)
			index[e.Category] = i
			totals = append(totals, core.CategoryTotal{Category: e.Category})
		}
		totals[i].Amount = totals[i].Amount.Add(e.Amount)
	}
	return totals
}

// Total sums every amount in list.
func Total(list []core.Expense) core.Money {
	var sum core.Money
	for _, e := range list {
		sum = sum.Add(e.Amount)
	}
	return sum
}
