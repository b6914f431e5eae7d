package core

import (
	"sort"
	"strings"
	"time"
)

const maxDescriptionLen = 200

// ExpenseInput is the raw, unvalidated form of an expense as typed by the
// user or proposed by receipt extraction.
type ExpenseInput struct {
	Date          string `json:"date"`
	Category      string `json:"category"`
	Amount        string `json:"amount"`
	Description   string `json:"description"`
	PaymentMethod string `json:"paymentMethod"`
}

// ValidationErrors maps a field name to a user-facing message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Validate checks required fields and the positive amount rule. Category and
// payment method are never rejected, they are coerced by Build.
func (in ExpenseInput) Validate() ValidationErrors {
	errs := ValidationErrors{}

	if strings.TrimSpace(in.Date) == "" {
		errs["date"] = "date is required"
	} else if _, err := ParseDate(in.Date); err != nil {
		errs["date"] = "date must be YYYY-MM-DD"
	}

	if strings.TrimSpace(in.Amount) == "" {
		errs["amount"] = "amount is required"
	} else if _, err := ParseDecimalToCents(in.Amount); err != nil {
		errs["amount"] = "amount must be a positive number"
	}

	desc := strings.TrimSpace(in.Description)
	if desc == "" {
		errs["description"] = "description is required"
	} else if len(desc) > maxDescriptionLen {
		errs["description"] = "description too long (max 200 characters)"
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Build validates the input and produces an Expense with the given id.
func (in ExpenseInput) Build(id string) (Expense, error) {
	if errs := in.Validate(); errs != nil {
		return Expense{}, errs
	}
	date, _ := ParseDate(in.Date)
	cents, _ := ParseDecimalToCents(in.Amount)
	category, _ := ParseCategory(in.Category)
	method, _ := ParsePaymentMethod(in.PaymentMethod)

	return Expense{
		ID:            id,
		Date:          date,
		Category:      category,
		Amount:        Money{Cents: cents},
		Description:   strings.TrimSpace(in.Description),
		PaymentMethod: method,
	}, nil
}

// InputFromExpense is the inverse of Build, used to prefill edit forms.
func InputFromExpense(e Expense) ExpenseInput {
	return ExpenseInput{
		Date:          e.Date.String(),
		Category:      string(e.Category),
		Amount:        e.Amount.String(),
		Description:   e.Description,
		PaymentMethod: string(e.PaymentMethod),
	}
}

// Today returns the calendar day of now.
func Today(now time.Time) Date {
	return DateOf(now)
}
