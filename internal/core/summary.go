package core

// CategoryTotal pairs a category with the sum of its expenses.
type CategoryTotal struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
}

// WeeklyBucket is one day of the trailing seven-day series.
type WeeklyBucket struct {
	Label  string `json:"label"`
	Date   Date   `json:"date"`
	Amount Money  `json:"amount"`
}

// PeriodReport is a titled, date-bounded subset of expenses, newest first.
type PeriodReport struct {
	Period     string          `json:"period"`
	Title      string          `json:"title"`
	Start      Date            `json:"start"`
	End        Date            `json:"end"`
	Expenses   []Expense       `json:"expenses"`
	Total      Money           `json:"total"`
	Categories []CategoryTotal `json:"categories"`
}
