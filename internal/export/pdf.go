package export

import (
	"errors"
	"fmt"
	"image"

	"github.com/signintech/gopdf"
)

// PDF embeds img into a single-page document whose page is exactly the
// raster size, one point per pixel, so the aspect ratio is kept.
func PDF(img image.Image, title string) ([]byte, error) {
	b := img.Bounds()
	if b.Empty() {
		return nil, errors.New("empty raster")
	}
	w, h := float64(b.Dx()), float64(b.Dy())

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: gopdf.Rect{W: w, H: h}})
	pdf.SetInfo(gopdf.PdfInfo{Title: title, Creator: "expenses"})
	pdf.AddPage()

	if err := pdf.ImageFrom(img, 0, 0, &gopdf.Rect{W: w, H: h}); err != nil {
		return nil, fmt.Errorf("embed raster: %w", err)
	}

	out, err := pdf.GetBytesPdfReturnErr()
	if err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return out, nil
}

// RenderPDF renders v and wraps it in a PDF.
func RenderPDF(v View) ([]byte, error) {
	return PDF(RenderView(v), v.Title)
}
