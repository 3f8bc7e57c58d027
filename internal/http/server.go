// Package http serves the JSON API over the record store, the debt ledger
// and the dashboard.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"fincontrol/internal/dashboard"
	"fincontrol/internal/ledger"
	"fincontrol/internal/log"
	"fincontrol/internal/middleware/ratelimit"
	"fincontrol/internal/middleware/security"
	"fincontrol/internal/middleware/trace"
	"fincontrol/internal/services"
	"fincontrol/internal/store"
)

// Deps are the services the handlers call into.
type Deps struct {
	Store     *store.Store
	Records   *services.RecordService
	Ledger    *ledger.Ledger
	Dashboard *dashboard.Service
	Logger    *log.Logger
	// WritesPerMinute limits state-changing requests per client; 0 uses
	// the limiter default.
	WritesPerMinute int
}

type Server struct {
	http.Server

	store     *store.Store
	records   *services.RecordService
	ledger    *ledger.Ledger
	dashboard *dashboard.Service
	logger    *log.Logger

	limiter      *ratelimit.Limiter
	detector     *security.Detector
	tracer       *trace.Middleware
	shutdownOnce sync.Once
}

func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	s := &Server{
		store:     deps.Store,
		records:   deps.Records,
		ledger:    deps.Ledger,
		dashboard: deps.Dashboard,
		logger:    logger.WithComponent(log.ComponentHTTP),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.WritesPerMinute}),
		detector:  security.NewDetector(),
	}
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleAddCategory)
	mux.HandleFunc("DELETE /api/categories/{name}", s.handleRemoveCategory)

	mux.HandleFunc("POST /api/sales", s.handleCreateSale)
	mux.HandleFunc("PATCH /api/sales/{id}", s.handleUpdateSale)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("PATCH /api/expenses/{id}", s.handleUpdateExpense)

	mux.HandleFunc("POST /api/debts", s.handleCreateDebt)
	mux.HandleFunc("GET /api/debts/{id}", s.handleGetDebt)
	mux.HandleFunc("PATCH /api/debts/{id}", s.handleEditDebt)
	mux.HandleFunc("POST /api/debts/{id}/payments", s.handleRecordPayment)
	mux.HandleFunc("POST /api/debts/{id}/increases", s.handleIncreaseDebt)
	mux.HandleFunc("GET /api/clients/{name}/history", s.handleClientHistory)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)

	mux.HandleFunc("GET /api/{collection}", s.handleListRecords)
	mux.HandleFunc("DELETE /api/{collection}/{id}", s.handleDeleteRecord)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(h)
	h = s.detector.Middleware(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(s.logger)(h)
	return h
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusTooManyRequests, errorResponse{
		Error:   "rate_limited",
		Message: "too many requests, try again later",
	})
}

// Shutdown stops the listener and the rate limiter.
func (s *Server) Shutdown(ctx context.Context) error {
	s.shutdownOnce.Do(s.limiter.Stop)
	return s.Server.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady checks that the stored document can be read.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if _, err := s.store.Snapshot(ctx); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
