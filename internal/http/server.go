package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"expenses/internal/ai"
	"expenses/internal/log"
	"expenses/internal/middleware/ratelimit"
	"expenses/internal/middleware/security"
	"expenses/internal/middleware/trace"
	"expenses/internal/services"
	"expenses/internal/share"
)

// requestTimeout bounds storage work done on behalf of a single request.
const requestTimeout = 7 * time.Second

// Deps are the collaborators the API serves. Advisor and Sharer may be nil;
// the matching endpoints then degrade to their unavailable responses.
type Deps struct {
	Service   *services.ExpenseService
	Advisor   *ai.Advisor
	Sharer    *share.Sharer
	Formatter share.Formatter
	Logger    *log.Logger

	// RateLimit caps mutating requests per client and minute. Zero uses the default.
	RateLimit int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Server is the JSON API server.
type Server struct {
	http.Server
	svc       *services.ExpenseService
	advisor   *ai.Advisor
	sharer    *share.Sharer
	formatter share.Formatter
	logger    *log.Logger
	now       func() time.Time
	started   time.Time

	detector *security.Detector
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Advisor == nil {
		deps.Advisor = ai.NewAdvisor(nil, ai.AdvisorConfig{Logger: deps.Logger})
	}
	if deps.Sharer == nil {
		deps.Sharer = share.NewSharer(nil, deps.Logger)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector(deps.Logger)

	s := &Server{
		svc:       deps.Service,
		advisor:   deps.Advisor,
		sharer:    deps.Sharer,
		formatter: deps.Formatter,
		logger:    logger,
		now:       deps.Now,
		started:   deps.Now(),
		detector:  detector,
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: deps.RateLimit,
		}, deps.Logger),
		tracer: trace.NewMiddleware(detector.ExtractClientIP, deps.Logger),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)
	mux.HandleFunc("/metrics", s.handleMetrics)

	mux.HandleFunc("/api/meta", s.handleMeta)
	mux.HandleFunc("/api/expenses", s.handleExpenses)
	mux.HandleFunc("/api/expenses/{id}", s.handleExpense)
	mux.HandleFunc("/api/dashboard", s.handleDashboard)
	mux.HandleFunc("/api/dashboard/export.pdf", s.handleDashboardPDF)
	mux.HandleFunc("/api/reports/{period}", s.handleReport)
	mux.HandleFunc("/api/reports/{period}/export.pdf", s.handleReportPDF)
	mux.HandleFunc("/api/reports/{period}/export.xlsx", s.handleReportXLSX)
	mux.HandleFunc("/api/reports/{period}/share", s.handleReportShare)
	mux.HandleFunc("/api/tips", s.handleTips)
	mux.HandleFunc("/api/receipts/scan", s.handleReceiptScan)
	mux.HandleFunc("/api/profile", s.handleProfile)
	mux.HandleFunc("/api/theme", s.handleTheme)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limited := s.limiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		writeError(w, http.StatusTooManyRequests, "rate limit exceeded, please try again later")
	})

	var handler http.Handler = mux
	handler = limited(handler)
	handler = headers.Middleware(handler)
	handler = detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// requestContext derives the per-request deadline used for storage work.
func (s *Server) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), requestTimeout)
}

// allowMethods writes a 405 with the Allow header unless r uses one of methods.
func allowMethods(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
		if m == http.MethodGet && r.Method == http.MethodHead {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(methods, ", "))
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	return false
}
