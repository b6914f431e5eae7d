// Package export turns dashboard and report views into downloadable files:
// a PNG raster, a single-page PDF embedding that raster, and an XLSX
// workbook.
package export

import (
	"fmt"
	"image/color"

	"expenses/internal/core"
)

// DashboardTitle names dashboard exports.
const DashboardTitle = "Dashboard"

// View is the exportable region of a screen.
type View struct {
	Title      string
	Subtitle   string
	Theme      core.Theme
	Total      core.Money
	Categories []core.CategoryTotal
	Weekly     []core.WeeklyBucket
	Expenses   []core.Expense
}

// ReportView lays out a period report. Reports carry no weekly series.
func ReportView(r core.PeriodReport, theme core.Theme) View {
	return View{
		Title:      r.Title,
		Subtitle:   fmt.Sprintf("%s to %s", r.Start, r.End),
		Theme:      theme,
		Total:      r.Total,
		Categories: r.Categories,
		Expenses:   r.Expenses,
	}
}

type palette struct {
	background color.RGBA
	text       color.RGBA
	muted      color.RGBA
	accent     color.RGBA
	onAccent   color.RGBA
	bar        color.RGBA
	rule       color.RGBA
}

func paletteFor(t core.Theme) palette {
	if t == core.ThemeDark {
		return palette{
			background: color.RGBA{0x12, 0x14, 0x1a, 0xff},
			text:       color.RGBA{0xe8, 0xea, 0xf0, 0xff},
			muted:      color.RGBA{0x9a, 0xa0, 0xae, 0xff},
			accent:     color.RGBA{0x4f, 0x46, 0xe5, 0xff},
			onAccent:   color.RGBA{0xff, 0xff, 0xff, 0xff},
			bar:        color.RGBA{0x81, 0x8c, 0xf8, 0xff},
			rule:       color.RGBA{0x2a, 0x2e, 0x38, 0xff},
		}
	}
	return palette{
		background: color.RGBA{0xff, 0xff, 0xff, 0xff},
		text:       color.RGBA{0x1f, 0x29, 0x37, 0xff},
		muted:      color.RGBA{0x6b, 0x72, 0x80, 0xff},
		accent:     color.RGBA{0x4f, 0x46, 0xe5, 0xff},
		onAccent:   color.RGBA{0xff, 0xff, 0xff, 0xff},
		bar:        color.RGBA{0x63, 0x66, 0xf1, 0xff},
		rule:       color.RGBA{0xe5, 0xe7, 0xeb, 0xff},
	}
}
