package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finboard/internal/core"
	"finboard/internal/ledgerview"
	"finboard/internal/log"
	"finboard/internal/middleware/ratelimit"
	"finboard/internal/middleware/security"
	"finboard/internal/middleware/trace"
	"finboard/internal/report"
)

// Reports serves computed reports. *report.Service implements it.
type Reports interface {
	Current(ctx context.Context, sort ledgerview.SortState) report.Result
}

// Ledger applies ledger mutations. *services.LedgerService implements it.
type Ledger interface {
	Create(ctx context.Context, in core.TransactionInput) (core.Transaction, error)
	Import(ctx context.Context, inputs []core.TransactionInput) ([]core.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// ReadinessCheck reports whether a dependency can serve traffic.
type ReadinessCheck func(ctx context.Context) error

type Config struct {
	Addr               string
	EntityName         string
	RateLimitPerMinute int
	Logger             *log.Logger
	// Sorter must match the one the report engine sorts with.
	Sorter *ledgerview.Sorter
	// Checks are run by /readyz, keyed by dependency name.
	Checks map[string]ReadinessCheck
}

type Server struct {
	http.Server
	reports    Reports
	ledger     Ledger
	entityName string
	sorter     *ledgerview.Sorter
	checks     map[string]ReadinessCheck
	logger     *log.Logger
	now        func() time.Time
	started    time.Time

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, reports Reports, ledger Ledger) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	sorter := cfg.Sorter
	if sorter == nil {
		sorter = ledgerview.DefaultSorter()
	}
	entity := cfg.EntityName
	if entity == "" {
		entity = "Company"
	}

	s := &Server{
		reports:     reports,
		ledger:      ledger,
		entityName:  entity,
		sorter:      sorter,
		checks:      cfg.Checks,
		logger:      logger,
		now:         time.Now,
		started:     time.Now(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute}),
		detector:    security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(s.logCompletion)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/report", s.handleReport)
	mux.HandleFunc("GET /api/export/pnl", s.handleExportPnL)
	mux.HandleFunc("GET /api/export/transactions", s.handleExportTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /api/transactions/import", s.handleImportTransactions)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	limited := s.rateLimiter.Middleware(s.detector.ClientIP, ratelimit.Mutating, func(w http.ResponseWriter, r *http.Request) {
		s.logger.WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ClientIP(r),
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	})(mux)
	var h http.Handler = limited
	h = s.withDetection(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = log.Middleware(logger, trace.RequestIDFromRequest)(h)
	h = s.tracer.Handler(h)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) withDetection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.detector.Suspicious(r) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Suspicious request",
				log.FieldClientIP, s.detector.ClientIP(r),
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) logCompletion(c trace.Completion) {
	sl := log.NewStructuredLogger(s.logger.With(log.FieldRequestID, c.RequestID))
	sl.LogHTTPEnd(c.Request.Context(), c.Request, c.Status, c.Duration.Milliseconds(), s.detector.ClientIP(c.Request))
}

// events returns the structured logger bound to the request.
func events(r *http.Request) *log.StructuredLogger {
	return log.NewStructuredLogger(log.FromContext(r.Context()))
}

// Shutdown stops the rate limiter and drains the HTTP server. It is safe to
// call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
