// Package http serves the JSON API over the bill and income repositories.
package http

import (
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"

	"myfinance/internal/bills"
	"myfinance/internal/cache"
	"myfinance/internal/income"
	"myfinance/internal/log"
	"myfinance/internal/metrics"
)

// Options wires the server. Bills and Income are required.
type Options struct {
	Bills  *bills.Repository
	Income *income.Repository

	Logger *log.Logger
	// Metrics and Gatherer are optional; /metrics is mounted only when
	// Gatherer is set.
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	WritesPerMinute int
	Now             func() time.Time
}

type Server struct {
	http.Server

	bills    *bills.Repository
	income   *income.Repository
	logger   *log.Logger
	validate *validator.Validate
	limiter  *rateLimiter
	now      func() time.Time

	// income.Repository caches one month; requests for different months
	// take turns so a load is not observed by another request.
	incomeMu sync.Mutex
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{
		bills:    opts.Bills,
		income:   opts.Income,
		logger:   opts.Logger.WithComponent(log.ComponentHTTP),
		validate: newValidator(),
		limiter:  newRateLimiter(opts.WritesPerMinute),
		now:      opts.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if opts.Gatherer != nil {
		mux.Handle("GET /metrics", metrics.Handler(opts.Gatherer))
	}

	mux.HandleFunc("GET /api/categories", handleCategories)
	mux.HandleFunc("GET /api/bills", s.handleListBills)
	mux.HandleFunc("POST /api/bills", s.handleCreateBill)
	mux.HandleFunc("PATCH /api/bills/{id}", s.handlePatchBill)
	mux.HandleFunc("DELETE /api/bills/{id}", s.handleDeleteBill)
	mux.HandleFunc("POST /api/bills/{id}/payment", s.handlePayment)
	mux.HandleFunc("GET /api/income", s.handleGetIncome)
	mux.HandleFunc("PUT /api/income", s.handlePutIncome)
	mux.HandleFunc("GET /api/summary", s.handleSummary)

	var handler http.Handler = mux
	handler = s.limiter.limitWrites(opts.Metrics)(handler)
	handler = securityHeaders(handler)
	handler = log.Middleware(s.logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Limiter exposes the rate limiter so its idle clients can be swept by
// cache.RunCleanup.
func (s *Server) Limiter() cache.Cleaner {
	return s.limiter
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady fails while the bill mirror reports a gateway error.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.bills.Err(); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
