package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"expenses/internal/core"
)

const (
	expensesSheet   = "Expenses"
	categoriesSheet = "Categories"
)

// Workbook writes the report as XLSX: the expense rows with a total line on
// the first sheet and category totals on the second.
func Workbook(r core.PeriodReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", expensesSheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(categoriesSheet); err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}

	w := &sheetWriter{f: f}
	titleStyle := w.style(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14, Color: "#FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#4F46E5"}, Pattern: 1},
	})
	headerStyle := w.style(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "#9CA3AF", Style: 1}},
	})
	amountStyle := w.style(&excelize.Style{NumFmt: 4})
	totalStyle := w.style(&excelize.Style{Font: &excelize.Font{Bold: true}, NumFmt: 4})

	// Expenses sheet
	w.value(expensesSheet, "A1", r.Title)
	w.styleRange(expensesSheet, "A1", "E1", titleStyle)
	w.value(expensesSheet, "A2", fmt.Sprintf("%s to %s", r.Start, r.End))

	for i, h := range []string{"Date", "Category", "Description", "Payment Method", "Amount"} {
		w.value(expensesSheet, fmt.Sprintf("%c4", 'A'+i), h)
	}
	w.styleRange(expensesSheet, "A4", "E4", headerStyle)

	row := 5
	for _, e := range r.Expenses {
		w.value(expensesSheet, fmt.Sprintf("A%d", row), e.Date.String())
		w.value(expensesSheet, fmt.Sprintf("B%d", row), string(e.Category))
		w.value(expensesSheet, fmt.Sprintf("C%d", row), e.Description)
		w.value(expensesSheet, fmt.Sprintf("D%d", row), string(e.PaymentMethod))
		w.value(expensesSheet, fmt.Sprintf("E%d", row), e.Amount.Float64())
		w.styleRange(expensesSheet, fmt.Sprintf("E%d", row), fmt.Sprintf("E%d", row), amountStyle)
		row++
	}
	w.value(expensesSheet, fmt.Sprintf("D%d", row), "Total")
	w.value(expensesSheet, fmt.Sprintf("E%d", row), r.Total.Float64())
	w.styleRange(expensesSheet, fmt.Sprintf("D%d", row), fmt.Sprintf("E%d", row), totalStyle)

	w.width(expensesSheet, "A", "A", 12)
	w.width(expensesSheet, "B", "B", 16)
	w.width(expensesSheet, "C", "C", 36)
	w.width(expensesSheet, "D", "E", 16)

	// Categories sheet
	w.value(categoriesSheet, "A1", "Category")
	w.value(categoriesSheet, "B1", "Amount")
	w.styleRange(categoriesSheet, "A1", "B1", headerStyle)
	for i, ct := range r.Categories {
		w.value(categoriesSheet, fmt.Sprintf("A%d", i+2), string(ct.Category))
		w.value(categoriesSheet, fmt.Sprintf("B%d", i+2), ct.Amount.Float64())
		w.styleRange(categoriesSheet, fmt.Sprintf("B%d", i+2), fmt.Sprintf("B%d", i+2), amountStyle)
	}
	w.width(categoriesSheet, "A", "B", 16)

	if w.err != nil {
		return nil, fmt.Errorf("fill workbook: %w", w.err)
	}
	f.SetActiveSheet(0)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// sheetWriter keeps the first excelize error; later calls become no-ops.
type sheetWriter struct {
	f   *excelize.File
	err error
}

func (w *sheetWriter) style(st *excelize.Style) int {
	if w.err != nil {
		return 0
	}
	id, err := w.f.NewStyle(st)
	if err != nil {
		w.err = fmt.Errorf("new style: %w", err)
	}
	return id
}

func (w *sheetWriter) value(sheet, cell string, v any) {
	if w.err != nil {
		return
	}
	if err := w.f.SetCellValue(sheet, cell, v); err != nil {
		w.err = fmt.Errorf("set %s!%s: %w", sheet, cell, err)
	}
}

func (w *sheetWriter) styleRange(sheet, from, to string, style int) {
	if w.err != nil {
		return
	}
	if err := w.f.SetCellStyle(sheet, from, to, style); err != nil {
		w.err = fmt.Errorf("style %s!%s:%s: %w", sheet, from, to, err)
	}
}

func (w *sheetWriter) width(sheet, from, to string, width float64) {
	if w.err != nil {
		return
	}
	if err := w.f.SetColWidth(sheet, from, to, width); err != nil {
		w.err = fmt.Errorf("width %s!%s:%s: %w", sheet, from, to, err)
	}
}
