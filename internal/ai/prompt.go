package ai

import (
	"fmt"
	"sort"
	"strings"

	"expenses/internal/aggregate"
	"expenses/internal/core"
)

const maxPromptExpenses = 20

// tipsPrompt summarises spending by category plus the largest items.
func tipsPrompt(list []core.Expense) string {
	var b strings.Builder
	b.WriteString("You are a personal finance assistant. Based on the spending below, ")
	b.WriteString("give 3 to 5 short, specific and practical saving tips. ")
	b.WriteString("Use plain sentences in a bulleted list and do not repeat the data back.\n\n")

	fmt.Fprintf(&b, "Total spent: %s across %d expenses.\n", aggregate.Total(list), len(list))
	b.WriteString("By category:\n")
	for _, ct := range aggregate.ByCategory(list) {
		fmt.Fprintf(&b, "- %s: %s\n", ct.Category, ct.Amount)
	}

	byPayment := map[core.PaymentMethod]core.Money{}
	for _, e := range list {
		byPayment[e.PaymentMethod] = byPayment[e.PaymentMethod].Add(e.Amount)
	}
	b.WriteString("By payment method:\n")
	for _, m := range core.PaymentMethods() {
		if amt, ok := byPayment[m]; ok {
			fmt.Fprintf(&b, "- %s: %s\n", m, amt)
		}
	}

	top := aggregate.FilterAndSort(list, aggregate.Filter{}, aggregate.SortAmount)
	if len(top) > maxPromptExpenses {
		top = top[:maxPromptExpenses]
	}
	b.WriteString("Largest expenses:\n")
	for _, e := range top {
		fmt.Fprintf(&b, "- %s %s %s (%s, %s)\n", e.Date, e.Category, e.Amount, e.Description, e.PaymentMethod)
	}
	return b.String()
}

// extractionInstruction asks for one expense constrained to the allowed categories.
func extractionInstruction(allowed []core.Category, today core.Date) string {
	names := make([]string, len(allowed))
	for i, c := range allowed {
		names[i] = string(c)
	}
	methods := make([]string, 0, 3)
	for _, m := range core.PaymentMethods() {
		methods = append(methods, string(m))
	}
	return fmt.Sprintf(
		"Extract a single expense from this receipt image. "+
			"date must be YYYY-MM-DD (assume %s if the receipt has no date). "+
			"category must be one of: %s. paymentMethod must be one of: %s. "+
			"amount is the final total paid as a number without currency symbols. "+
			"description is a short merchant or item summary.",
		today, strings.Join(names, ", "), strings.Join(methods, ", "))
}

// expenseSchema is the response schema for receipt extraction. All fields are required.
func expenseSchema(allowed []core.Category) *Schema {
	cats := make([]string, len(allowed))
	for i, c := range allowed {
		cats[i] = string(c)
	}
	methods := make([]string, 0, 3)
	for _, m := range core.PaymentMethods() {
		methods = append(methods, string(m))
	}
	props := map[string]*Schema{
		"date":          {Type: "STRING", Description: "Purchase date, YYYY-MM-DD"},
		"category":      {Type: "STRING", Enum: cats},
		"amount":        {Type: "NUMBER", Description: "Total amount paid"},
		"description":   {Type: "STRING"},
		"paymentMethod": {Type: "STRING", Enum: methods},
	}
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return &Schema{Type: "OBJECT", Properties: props, Required: required}
}
