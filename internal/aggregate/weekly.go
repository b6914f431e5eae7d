package aggregate

import "expenses/internal/core"

// WeekLength is the number of points in the weekly trend series.
const WeekLength = 7

// WeeklyBuckets builds the seven-day series ending on today, oldest first.
// Days without expenses are present with a zero amount. Callers pass the
// full, unfiltered list.
func WeeklyBuckets(today core.Date, list []core.Expense) []core.WeeklyBucket {
	buckets := make([]core.WeeklyBucket, WeekLength)
	index := make(map[string]int, WeekLength)
	for i := 0; i < WeekLength; i++ {
		d := today.AddDays(i - (WeekLength - 1))
		buckets[i] = core.WeeklyBucket{Label: d.ShortWeekday(), Date: d}
		index[d.String()] = i
	}

	for _, e := range list {
		if i, ok := index[e.Date.String()]; ok {
			buckets[i].Amount = buckets[i].Amount.Add(e.Amount)
		}
	}
	return buckets
}
