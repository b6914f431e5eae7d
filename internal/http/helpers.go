package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"expenses/internal/core"
	"expenses/internal/log"
)

const (
	maxJSONBody    = 64 << 10
	maxProfileBody = 2 << 20 // profile pictures travel as data URLs
	maxReceiptBody = 10 << 20
)

type errorResponse struct {
	Error string `json:"error"`
}

type validationResponse struct {
	Errors core.ValidationErrors `json:"errors"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeValidation(w http.ResponseWriter, errs core.ValidationErrors) {
	writeJSON(w, http.StatusUnprocessableEntity, validationResponse{Errors: errs})
}

// writeFile sends data as a download named name.
func writeFile(w http.ResponseWriter, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// decodeJSON reads a single JSON document of at most limit bytes into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// badRequest reports a malformed body, distinguishing oversized payloads.
func (s *Server) badRequest(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		return
	}
	log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid request body",
		log.NewFields().WithOperation(log.OpParse).WithError(err, log.ErrorTypeValidation).ToSlice()...)
	writeError(w, http.StatusBadRequest, "invalid request body")
}

// internalError logs err and answers 500 without leaking details.
func (s *Server) internalError(w http.ResponseWriter, r *http.Request, msg string, err error, op string) {
	log.NewStructuredLogger(log.FromContext(r.Context())).
		LogError(r.Context(), msg, err, log.ErrorTypeInternal, op, nil)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

func sanitizeExpenseInput(in core.ExpenseInput) core.ExpenseInput {
	return core.ExpenseInput{
		Date:          sanitizeInput(in.Date),
		Category:      sanitizeInput(in.Category),
		Amount:        sanitizeInput(in.Amount),
		Description:   sanitizeInput(in.Description),
		PaymentMethod: sanitizeInput(in.PaymentMethod),
	}
}
