package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"expenses/internal/aggregate"
	"expenses/internal/core"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	})
}

// handleReady checks that the store answers. AI and share targets are
// optional and only reported.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if err := s.svc.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["store"] = "ok"
	}

	checks["ai"] = configured(s.advisor.Available())
	checks["share"] = configured(s.sharer.Available())
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.limiter.GetMetrics().ClientCount,
		"status":         "ok",
	}

	writeJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": s.now().Format(time.RFC3339),
		"checks":    checks,
	})
}

func configured(ok bool) string {
	if ok {
		return "configured"
	}
	return "not_configured"
}

// handleMetrics exposes counters in the Prometheus text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()

	traceMetrics := s.tracer.GetMetrics()
	limitMetrics := s.limiter.GetMetrics()
	securityMetrics := s.detector.GetMetrics()
	expenses := len(s.svc.List(ctx))

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value int64) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %d\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_requests_failed_total", "counter", "HTTP requests answered with a 5xx status", traceMetrics.FailedRequests)
	metric("http_last_response_microseconds", "gauge", "Duration of the most recent request", traceMetrics.LastResponseTime)
	metric("rate_limit_hits_total", "counter", "Requests rejected by the rate limiter", limitMetrics.TotalHits)
	metric("rate_limit_clients", "gauge", "Clients tracked by the rate limiter", limitMetrics.ClientCount)
	metric("security_suspicious_requests_total", "counter", "Requests flagged as suspicious", securityMetrics.SuspiciousRequests)
	metric("security_invalid_ip_total", "counter", "Requests with an unparseable remote address", securityMetrics.InvalidIPAttempts)
	metric("expenses_stored", "gauge", "Expenses currently stored", int64(expenses))
	metric("uptime_seconds", "gauge", "Seconds since the server started", int64(s.now().Sub(s.started).Seconds()))
}

type metaResponse struct {
	Categories     []core.Category      `json:"categories"`
	PaymentMethods []core.PaymentMethod `json:"paymentMethods"`
	Periods        []aggregate.Period   `json:"periods"`
	SortModes      []aggregate.SortMode `json:"sortModes"`
	Themes         []core.Theme         `json:"themes"`
	AIAvailable    bool                 `json:"aiAvailable"`
	ShareAvailable bool                 `json:"shareAvailable"`
}

// handleMeta lists the closed value sets the client renders as choices.
func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	if !allowMethods(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, metaResponse{
		Categories:     core.Categories(),
		PaymentMethods: core.PaymentMethods(),
		Periods:        aggregate.Periods(),
		SortModes:      []aggregate.SortMode{aggregate.SortLatest, aggregate.SortAmount},
		Themes:         []core.Theme{core.ThemeLight, core.ThemeDark},
		AIAvailable:    s.advisor.Available(),
		ShareAvailable: s.sharer.Available(),
	})
}
