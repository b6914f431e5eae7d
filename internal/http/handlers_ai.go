package http

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"expenses/internal/ai"
	"expenses/internal/core"
	"expenses/internal/log"
)

// receiptField is the multipart form field holding the image.
const receiptField = "image"

type tipsResponse struct {
	Tips      string `json:"tips"`
	Available bool   `json:"available"`
}

// handleTips always answers 200: failures are rendered as friendly text by
// the advisor.
func (s *Server) handleTips(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := s.requestContext(r)
	list := s.svc.List(ctx)
	cancel()

	writeJSON(w, http.StatusOK, tipsResponse{
		Tips:      s.advisor.SavingTips(r.Context(), list),
		Available: s.advisor.Available(),
	})
}

type scanResponse struct {
	Expense   core.ExpenseInput `json:"expense"`
	Defaulted []string          `json:"defaulted"`
	Clean     bool              `json:"clean"`
}

// handleReceiptScan extracts a proposed expense from an uploaded receipt.
// The proposal is never saved here; the client shows it for confirmation.
func (s *Server) handleReceiptScan(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	if !s.advisor.Available() {
		writeError(w, http.StatusServiceUnavailable, ai.ErrUnavailable.Error())
		return
	}

	img, err := readReceipt(w, r)
	if err != nil {
		s.badRequest(w, r, err)
		return
	}

	ext, err := s.advisor.ExtractExpense(r.Context(), img, core.Categories())
	switch {
	case errors.Is(err, ai.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	case errors.Is(err, ai.ErrCouldNotAnalyze):
		writeError(w, http.StatusBadGateway, err.Error())
		return
	case err != nil:
		s.internalError(w, r, "Receipt scan failed", err, log.OpExtract)
		return
	}

	defaulted := ext.Defaulted
	if defaulted == nil {
		defaulted = []string{}
	}
	writeJSON(w, http.StatusOK, scanResponse{
		Expense:   ext.Input,
		Defaulted: defaulted,
		Clean:     ext.Clean(),
	})
}

var errNotImage = errors.New("uploaded file is not an image")

// readReceipt pulls the image part out of a multipart body.
func readReceipt(w http.ResponseWriter, r *http.Request) (ai.Image, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxReceiptBody)
	if err := r.ParseMultipartForm(maxReceiptBody); err != nil {
		return ai.Image{}, err
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(receiptField)
	if err != nil {
		return ai.Image{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return ai.Image{}, err
	}
	if len(data) == 0 {
		return ai.Image{}, errors.New("uploaded file is empty")
	}

	mime := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	if !strings.HasPrefix(mime, "image/") {
		return ai.Image{}, errNotImage
	}
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return ai.Image{Data: data, MIMEType: mime}, nil
}
