package export

import (
	"bytes"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"expenses/internal/core"
)

func sampleReport() core.PeriodReport {
	expenses := []core.Expense{
		{ID: "2", Date: core.NewDate(2024, 3, 14), Category: core.CategoryTransport, Amount: core.Money{Cents: 5000}, Description: "Taxi", PaymentMethod: core.PaymentCash},
		{ID: "1", Date: core.NewDate(2024, 3, 2), Category: core.CategoryFood, Amount: core.Money{Cents: 10000}, Description: "Groceries", PaymentMethod: core.PaymentUPI},
	}
	return core.PeriodReport{
		Period:   "this-month",
		Title:    "March 2024 Report",
		Start:    core.NewDate(2024, 3, 1),
		End:      core.NewDate(2024, 3, 15),
		Expenses: expenses,
		Total:    core.Money{Cents: 15000},
		Categories: []core.CategoryTotal{
			{Category: core.CategoryTransport, Amount: core.Money{Cents: 5000}},
			{Category: core.CategoryFood, Amount: core.Money{Cents: 10000}},
		},
	}
}

func sampleWeekly() []core.WeeklyBucket {
	out := make([]core.WeeklyBucket, 7)
	for i := range out {
		d := core.NewDate(2024, 3, 9+i)
		out[i] = core.WeeklyBucket{Label: d.ShortWeekday(), Date: d, Amount: core.Money{Cents: int64(i) * 100}}
	}
	return out
}

func TestRenderView_Deterministic(t *testing.T) {
	v := ReportView(sampleReport(), core.ThemeLight)
	a := RenderView(v)
	b := RenderView(v)

	assert.Equal(t, rasterWidth, a.Bounds().Dx())
	assert.Equal(t, a.Bounds(), b.Bounds())
	assert.True(t, bytes.Equal(a.Pix, b.Pix), "same view must render identical pixels")
}

func TestRenderView_HeightGrowsWithContent(t *testing.T) {
	small := RenderView(View{Title: DashboardTitle})
	withWeek := RenderView(View{Title: DashboardTitle, Weekly: sampleWeekly()})
	full := RenderView(ReportView(sampleReport(), core.ThemeLight))

	assert.Greater(t, withWeek.Bounds().Dy(), small.Bounds().Dy())
	assert.Greater(t, full.Bounds().Dy(), small.Bounds().Dy())
}

func TestRenderView_Theme(t *testing.T) {
	r := sampleReport()
	light := RenderView(ReportView(r, core.ThemeLight))
	dark := RenderView(ReportView(r, core.ThemeDark))

	// bottom-left corner is plain background
	y := light.Bounds().Dy() - 1
	assert.Equal(t, paletteFor(core.ThemeLight).background, light.RGBAAt(0, y))
	assert.Equal(t, paletteFor(core.ThemeDark).background, dark.RGBAAt(0, y))
	// header band uses the accent color
	assert.Equal(t, paletteFor(core.ThemeLight).accent, light.RGBAAt(rasterWidth-2, 2))
}

func TestRenderView_ManyRowsAreCapped(t *testing.T) {
	many := make([]core.Expense, maxRows+40)
	for i := range many {
		many[i] = core.Expense{ID: "x", Date: core.NewDate(2024, 1, 1), Category: core.CategoryOther, Amount: core.Money{Cents: 1}, Description: strings.Repeat("d", 80)}
	}
	capped := RenderView(View{Title: "t", Expenses: many})
	exact := RenderView(View{Title: "t", Expenses: many[:maxRows+1]})
	assert.Equal(t, exact.Bounds(), capped.Bounds())
}

func TestPNG(t *testing.T) {
	img := RenderView(ReportView(sampleReport(), core.ThemeLight))
	data, err := PNG(img)
	require.NoError(t, err)

	decoded, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), decoded.Bounds())
}

func TestPDF(t *testing.T) {
	data, err := RenderPDF(ReportView(sampleReport(), core.ThemeLight))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")), "missing PDF header")
	assert.Contains(t, string(data), "%%EOF")
}

func TestPDF_EmptyRaster(t *testing.T) {
	_, err := PDF(image.NewRGBA(image.Rect(0, 0, 0, 0)), "x")
	assert.Error(t, err)
}

func TestWorkbook(t *testing.T) {
	data, err := Workbook(sampleReport())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{expensesSheet, categoriesSheet}, f.GetSheetList())

	title, err := f.GetCellValue(expensesSheet, "A1")
	require.NoError(t, err)
	assert.Equal(t, "March 2024 Report", title)

	for cell, want := range map[string]string{
		"A4": "Date",
		"E4": "Amount",
		"A5": "2024-03-14",
		"C5": "Taxi",
		"B6": "Food",
	} {
		got, err := f.GetCellValue(expensesSheet, cell)
		require.NoError(t, err)
		assert.Equal(t, want, got, cell)
	}

	total, err := f.GetCellValue(expensesSheet, "D7")
	require.NoError(t, err)
	assert.Equal(t, "Total", total)

	cats, err := f.GetRows(categoriesSheet)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Transport", cats[1][0])
	assert.Equal(t, "Food", cats[2][0])
}

func TestSheetWriter_KeepsFirstError(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()

	w := &sheetWriter{f: f}
	w.value("Sheet1", "A1", "ok")
	require.NoError(t, w.err)

	w.value("Missing", "A1", "lost")
	w.width("Other", "A", "A", 10)
	require.Error(t, w.err)
	assert.Contains(t, w.err.Error(), "Missing!A1")

	assert.Zero(t, w.style(&excelize.Style{NumFmt: 4}), "calls after an error are skipped")
}

func TestFileName(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	tests := []struct {
		title string
		ext   string
		want  string
	}{
		{"March 2024 Report", "pdf", "March-2024-Report-2024-03-15.pdf"},
		{"This Week Report", ".xlsx", "This-Week-Report-2024-03-15.xlsx"},
		{"", "pdf", "Dashboard-2024-03-15.pdf"},
		{"   ", "png", "Dashboard-2024-03-15.png"},
		{"Rent / Bills!!", "pdf", "Rent-Bills-2024-03-15.pdf"},
		{"Café Report", "pdf", "Caf-Report-2024-03-15.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.title, now, tt.ext))
		})
	}
}
