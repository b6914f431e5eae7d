package http

import (
	"net/http"

	"expenses/internal/aggregate"
	"expenses/internal/core"
	"expenses/internal/export"
	"expenses/internal/log"
	"expenses/internal/share"
)

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	writeJSON(w, http.StatusOK, s.svc.Dashboard(ctx, s.now()))
}

// handleDashboardPDF exports the dashboard: totals, charts and recent entries.
func (s *Server) handleDashboardPDF(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	now := s.now()
	d := s.svc.Dashboard(ctx, now)
	view := export.View{
		Title:      export.DashboardTitle,
		Subtitle:   "As of " + d.Today.String(),
		Theme:      s.svc.Theme(ctx),
		Total:      d.Total,
		Categories: d.Categories,
		Weekly:     d.Weekly,
		Expenses:   d.Recent,
	}

	data, err := export.RenderPDF(view)
	if err != nil {
		s.internalError(w, r, "Dashboard export failed", err, log.OpExport)
		return
	}
	writeFile(w, export.FileName(export.DashboardTitle, now, "pdf"), contentTypePDF, data)
}

// report resolves the {period} path value, answering 404 for unknown periods.
func (s *Server) report(w http.ResponseWriter, r *http.Request) (core.PeriodReport, bool) {
	p, err := aggregate.ParsePeriod(r.PathValue("period"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return core.PeriodReport{}, false
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	return s.svc.Report(ctx, p, s.now()), true
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	rep, ok := s.report(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleReportPDF(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	rep, ok := s.report(w, r)
	if !ok {
		return
	}

	data, err := export.RenderPDF(export.ReportView(rep, s.svc.Theme(r.Context())))
	if err != nil {
		s.internalError(w, r, "Report export failed", err, log.OpExport)
		return
	}
	writeFile(w, export.FileName(rep.Title, s.now(), "pdf"), contentTypePDF, data)
}

func (s *Server) handleReportXLSX(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	rep, ok := s.report(w, r)
	if !ok {
		return
	}

	data, err := export.Workbook(rep)
	if err != nil {
		s.internalError(w, r, "Workbook export failed", err, log.OpExport)
		return
	}
	writeFile(w, export.FileName(rep.Title, s.now(), "xlsx"), contentTypeXLSX, data)
}

// handleReportShare shares the report summary. It answers 200 even when no
// target is configured; the client then copies Fallback to the clipboard.
func (s *Server) handleReportShare(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodPost) {
		return
	}
	rep, ok := s.report(w, r)
	if !ok {
		return
	}

	payload := share.Payload{Text: s.formatter.Summary(rep.Title, rep.Total)}
	if s.sharer.Available() {
		data, err := export.RenderPDF(export.ReportView(rep, s.svc.Theme(r.Context())))
		if err != nil {
			// the text alone is still worth sharing
			log.FromContext(r.Context()).WarnContext(r.Context(), "Share attachment render failed",
				log.NewFields().WithOperation(log.OpShare).WithError(err, log.ErrorTypeInternal).ToSlice()...)
		} else {
			payload.FileName = export.FileName(rep.Title, s.now(), "pdf")
			payload.File = data
		}
	}

	writeJSON(w, http.StatusOK, s.sharer.Share(r.Context(), payload))
}
