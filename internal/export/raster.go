package export

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Raster geometry in pixels.
const (
	rasterWidth  = 800
	padding      = 24
	lineHeight   = 18
	headerHeight = 64
	labelWidth   = 130
	amountWidth  = 110
	weeklyHeight = 120
	maxRows      = 250
	maxDescChars = 48
)

// RenderView draws v onto a new RGBA image. Output depends only on v.
func RenderView(v View) *image.RGBA {
	p := paletteFor(v.Theme)
	img := image.NewRGBA(image.Rect(0, 0, rasterWidth, rasterHeight(v)))
	draw.Draw(img, img.Bounds(), image.NewUniform(p.background), image.Point{}, draw.Src)

	c := canvas{img: img, face: basicfont.Face7x13}

	// header band
	fill(img, image.Rect(0, 0, rasterWidth, headerHeight), p.accent)
	c.text(padding, 28, v.Title, p.onAccent)
	if v.Subtitle != "" {
		c.text(padding, 48, v.Subtitle, p.onAccent)
	}

	y := headerHeight + padding + 8
	c.text(padding, y, "Total: "+v.Total.String(), p.text)
	y += lineHeight + 8

	if len(v.Categories) > 0 {
		y = c.section(y, "By category", p)
		var max int64
		for _, ct := range v.Categories {
			if ct.Amount.Cents > max {
				max = ct.Amount.Cents
			}
		}
		barSpan := rasterWidth - 2*padding - labelWidth - amountWidth
		for _, ct := range v.Categories {
			c.text(padding, y, string(ct.Category), p.text)
			w := scale(ct.Amount.Cents, max, barSpan)
			x0 := padding + labelWidth
			fill(img, image.Rect(x0, y-11, x0+w, y+1), p.bar)
			c.textRight(rasterWidth-padding, y, ct.Amount.String(), p.text)
			y += lineHeight
		}
		y += 8
	}

	if len(v.Weekly) > 0 {
		y = c.section(y, "Last 7 days", p)
		var max int64
		for _, b := range v.Weekly {
			if b.Amount.Cents > max {
				max = b.Amount.Cents
			}
		}
		slot := (rasterWidth - 2*padding) / len(v.Weekly)
		base := y + weeklyHeight
		for i, b := range v.Weekly {
			x0 := padding + i*slot + slot/4
			h := scale(b.Amount.Cents, max, weeklyHeight)
			fill(img, image.Rect(x0, base-h, x0+slot/2, base), p.bar)
			c.text(x0, base+lineHeight, b.Label, p.muted)
		}
		y = base + lineHeight + padding
	}

	y = c.section(y, "Expenses", p)
	if len(v.Expenses) == 0 {
		c.text(padding, y, "No expenses found", p.muted)
		return img
	}
	for i, e := range v.Expenses {
		if i == maxRows {
			c.text(padding, y, fmt.Sprintf("... and %d more", len(v.Expenses)-maxRows), p.muted)
			break
		}
		c.text(padding, y, e.Date.String(), p.muted)
		c.text(padding+100, y, string(e.Category), p.text)
		c.text(padding+220, y, truncate(e.Description, maxDescChars), p.text)
		c.textRight(rasterWidth-padding, y, e.Amount.String(), p.text)
		y += lineHeight
	}
	return img
}

// PNG encodes img losslessly.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func rasterHeight(v View) int {
	h := headerHeight + padding + 8 + lineHeight + 8
	if n := len(v.Categories); n > 0 {
		h += 2*lineHeight + n*lineHeight + 8
	}
	if len(v.Weekly) > 0 {
		h += 2*lineHeight + weeklyHeight + lineHeight + padding
	}
	rows := len(v.Expenses)
	if rows == 0 {
		rows = 1
	} else if rows > maxRows {
		rows = maxRows + 1
	}
	h += 2*lineHeight + rows*lineHeight + padding
	return h
}

type canvas struct {
	img  *image.RGBA
	face font.Face
}

func (c canvas) text(x, y int, s string, col color.Color) {
	d := &font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: c.face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

func (c canvas) textRight(right, y int, s string, col color.Color) {
	w := font.MeasureString(c.face, s).Ceil()
	c.text(right-w, y, s, col)
}

// section draws a heading with a rule under it and returns the first
// content baseline.
func (c canvas) section(y int, heading string, p palette) int {
	c.text(padding, y, heading, p.muted)
	fill(c.img, image.Rect(padding, y+5, rasterWidth-padding, y+6), p.rule)
	return y + 2*lineHeight
}

func fill(img *image.RGBA, r image.Rectangle, col color.Color) {
	draw.Draw(img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func scale(v, max int64, span int) int {
	if max <= 0 || v <= 0 {
		return 0
	}
	w := int(v * int64(span) / max)
	if w < 1 {
		w = 1
	}
	return w
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
