// Package http serves the budget and expense REST API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"tasknest/internal/log"
	"tasknest/internal/middleware/ratelimit"
	"tasknest/internal/middleware/security"
	"tasknest/internal/services"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Budgets            *services.BudgetService
	Expenses           *services.ExpenseService
	Health             Pinger
	Logger             *log.Logger
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	budgets  *services.BudgetService
	expenses *services.ExpenseService
	health   Pinger
	limiter  *ratelimit.Limiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run
// http.Server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}
	cfg := ratelimit.DefaultConfig()
	if deps.RateLimitPerMinute > 0 {
		cfg.RequestsPerMinute = deps.RateLimitPerMinute
	}

	s := &Server{
		budgets:  deps.Budgets,
		expenses: deps.Expenses,
		health:   deps.Health,
		limiter:  ratelimit.NewLimiter(cfg),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/budgets/{email}/{month}", s.handleGetOrCreateBudget)
	mux.HandleFunc("GET /api/budgets/stats/{email}/{month}", s.handleStats)
	mux.HandleFunc("PUT /api/budgets/{id}/addFunds", s.handleAddFunds)
	mux.HandleFunc("GET /api/budgets/{id}/distribution", s.handleGetDistribution)
	mux.HandleFunc("PUT /api/budgets/{id}/distribution", s.handleSetDistribution)
	mux.HandleFunc("DELETE /api/budgets/{id}/distribution", s.handleResetDistribution)
	mux.HandleFunc("GET /api/budgets/{id}/overview", s.handleOverview)
	mux.HandleFunc("POST /api/budgets/{id}/auto-adjust", s.handleAutoAdjust)

	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/expenses/analysis", s.handleAnalysis)
	mux.HandleFunc("GET /api/expenses/user/{email}", s.handleListUserExpenses)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("PUT /api/expenses/{id}", s.handleUpdateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	var handler http.Handler = mux
	handler = s.limiter.Middleware(clientIP, writeRateLimited)(handler)
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = log.AccessLog(clientIP)(handler)
	handler = log.RequestIDMiddleware()(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops the rate limiter and gracefully shuts the server down.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// RateLimitMetrics exposes the limiter counters.
func (s *Server) RateLimitMetrics() ratelimit.Metrics {
	return s.limiter.Metrics()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
