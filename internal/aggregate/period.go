package aggregate

import (
	"fmt"
	"time"

	"expenses/internal/core"
)

// Period selects a report range relative to the current date.
type Period string

const (
	ThisWeek  Period = "this-week"
	LastWeek  Period = "last-week"
	ThisMonth Period = "this-month"
	LastMonth Period = "last-month"
)

// Periods lists the supported report periods.
func Periods() []Period {
	return []Period{ThisWeek, LastWeek, ThisMonth, LastMonth}
}

// ParsePeriod validates a period selector.
func ParsePeriod(s string) (Period, error) {
	for _, p := range Periods() {
		if string(p) == s {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown report period %q", s)
}

// weekStart is fixed: weeks run Sunday through Saturday.
const weekStart = time.Sunday

// Range returns the inclusive [start, end] range and title of p as seen on today.
func Range(p Period, today core.Date) (start, end core.Date, title string) {
	switch p {
	case ThisWeek:
		start = startOfWeek(today)
		return start, today, "This Week Report"
	case LastWeek:
		end = startOfWeek(today).AddDays(-1)
		return end.AddDays(-6), end, "Last Week Report"
	case LastMonth:
		first := core.NewDate(today.Year(), int(today.Month()), 1)
		end = first.AddDays(-1)
		start = core.NewDate(end.Year(), int(end.Month()), 1)
		return start, end, monthTitle(start)
	default:
		start = core.NewDate(today.Year(), int(today.Month()), 1)
		return start, today, monthTitle(start)
	}
}

func startOfWeek(d core.Date) core.Date {
	offset := (int(d.Weekday()) - int(weekStart) + 7) % 7
	return d.AddDays(-offset)
}

func monthTitle(d core.Date) string {
	return fmt.Sprintf("%s %d Report", d.Month(), d.Year())
}

// Report builds the report for p. The result shares no state with list, so a
// new call always replaces the previous report.
func Report(p Period, today core.Date, list []core.Expense) core.PeriodReport {
	start, end, title := Range(p, today)
	from, to := start.String(), end.String()

	matched := make([]core.Expense, 0)
	for _, e := range list {
		// canonical YYYY-MM-DD strings compare chronologically
		if d := e.Date.String(); d >= from && d <= to {
			matched = append(matched, e)
		}
	}
	sortByDateDesc(matched)

	return core.PeriodReport{
		Period:     string(p),
		Title:      title,
		Start:      start,
		End:        end,
		Expenses:   matched,
		Total:      Total(matched),
		Categories: ByCategory(matched),
	}
}
