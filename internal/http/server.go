// Package http serves the dashboard JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"bizdash/internal/cache"
	"bizdash/internal/core"
	"bizdash/internal/ledger"
	"bizdash/internal/log"
	"bizdash/internal/metrics"
	"bizdash/internal/middleware/ratelimit"
	"bizdash/internal/middleware/security"
	"bizdash/internal/middleware/trace"
	"bizdash/internal/services"
	"bizdash/internal/storage"

	"github.com/google/uuid"
)

// Deps are the collaborators of the API. Store, Reconciler and Agenda are
// required; a nil Summaries disables dashboard caching and a nil Metrics
// leaves /metrics unregistered.
type Deps struct {
	Store      storage.Store
	Reconciler *ledger.Reconciler
	Agenda     *services.AgendaService
	Summaries  cache.Cache[ledger.Summary]
	Metrics    *metrics.Metrics
	Logger     *log.Logger

	RateLimitPerMinute int
	// TrustedProxies are CIDRs, besides private networks, whose forwarding
	// headers are believed.
	TrustedProxies []string
	Now            func() time.Time
}

type Server struct {
	http.Server

	store      storage.Store
	reconciler *ledger.Reconciler
	agenda     *services.AgendaService
	summaries  cache.Cache[ledger.Summary]
	metrics    *metrics.Metrics
	logger     *log.Logger
	limiter    *ratelimit.Limiter
	now        func() time.Time
	newID      func() string
	started    time.Time

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware and returns a server ready to ListenAndServe.
func NewServer(addr string, deps Deps) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	resolver, err := security.NewIPResolver(deps.TrustedProxies...)
	if err != nil {
		return nil, err
	}

	s := &Server{
		store:      deps.Store,
		reconciler: deps.Reconciler,
		agenda:     deps.Agenda,
		summaries:  deps.Summaries,
		metrics:    deps.Metrics,
		logger:     deps.Logger.WithComponent(log.ComponentHTTP),
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		now:        deps.Now,
		newID:      uuid.NewString,
		started:    deps.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}

	api := http.NewServeMux()
	s.registerAPI(api)
	limited := s.limiter.Middleware(resolver.ClientIP, func(w http.ResponseWriter, _ *http.Request) {
		TooManyRequestsError().Write(w)
	})(api)
	mux.Handle("/api/", limited)

	var observe trace.Observer
	if s.metrics != nil {
		observe = s.metrics.ObserveRequest
	}
	tracer := trace.NewMiddleware(deps.Logger, resolver.ClientIP, observe)
	handler := security.Headers(security.DefaultHeadersConfig())(mux)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(handler),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s, nil
}

func (s *Server) registerAPI(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/clients", s.handleListClients)
	mux.HandleFunc("POST /api/clients", s.handleCreateClient)
	mux.HandleFunc("GET /api/clients/{id}", s.handleGetClient)
	mux.HandleFunc("PUT /api/clients/{id}", s.handleUpdateClient)
	mux.HandleFunc("DELETE /api/clients/{id}", s.handleDeleteClient)
	mux.HandleFunc("GET /api/clients/{id}/status", s.handleClientStatus)

	mux.HandleFunc("GET /api/payments", s.handleListPayments)
	mux.HandleFunc("POST /api/payments", s.handleUpsertPayment)
	mux.HandleFunc("POST /api/payments/manual", s.handleManualPayment)
	mux.HandleFunc("POST /api/payments/toggle", s.handleTogglePayment)
	mux.HandleFunc("DELETE /api/payments/{id}", s.handleDeletePayment)

	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("PUT /api/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("DELETE /api/projects/{id}", s.handleDeleteProject)

	mux.HandleFunc("GET /api/goals", s.handleListGoals)
	mux.HandleFunc("POST /api/goals", s.handleCreateGoal)
	mux.HandleFunc("PUT /api/goals/{id}", s.handleUpdateGoal)
	mux.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	mux.HandleFunc("GET /api/tasks", s.handleListTasks)
	mux.HandleFunc("POST /api/tasks", s.handleCreateTask)
	mux.HandleFunc("PUT /api/tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDeleteTask)

	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/agenda", s.handleAgenda)
	mux.HandleFunc("GET /api/export", s.handleExport)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": s.now().Format(time.RFC3339),
		"uptime":    s.now().Sub(s.started).Round(time.Second).String(),
	}).Write(w)
}

// today is the current calendar date in the server clock's location.
func (s *Server) today() core.Date {
	return core.DateOf(s.now())
}

// invalidateSummaries drops cached dashboards after writes that bypass the
// reconciler (clients, projects, goals).
func (s *Server) invalidateSummaries(ctx context.Context) {
	if s.summaries != nil {
		s.summaries.Purge(ctx)
	}
}

// Shutdown stops the rate limiter and gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}
