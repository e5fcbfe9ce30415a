package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/cors"

	"fintrack/internal/auth"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Pinger reports whether the record store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the domain services behind the API.
type Services struct {
	Expenses   *services.ExpenseService
	Categories *services.CategoryService
	Budgets    *services.BudgetService
	Goals      *services.GoalService
	Insights   *services.InsightService
	Reports    *services.ReportService
}

// Options tune the middleware stack.
type Options struct {
	CORSOrigins        []string
	RateLimitPerMinute int
	Logger             *log.Logger
}

// Server is the fintrack HTTP API.
type Server struct {
	http.Server
	svc      Services
	store    Pinger
	verifier *auth.Verifier
	started  time.Time

	rateLimiter *ratelimit.Limiter
	detector    *security.Detector
	tracer      *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer wires routes and middleware. Every /api/v1 route requires a
// bearer token accepted by verifier.
func NewServer(addr string, store Pinger, svc Services, verifier *auth.Verifier, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	detector := security.NewDetector()
	s := &Server{
		svc:         svc,
		store:       store,
		verifier:    verifier,
		started:     time.Now(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		detector:    detector,
		tracer:      trace.NewMiddleware(detector.ExtractClientIP),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("/api/v1/", verifier.Middleware(writeError)(s.routes()))

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w)
	})(handler)
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.RequestIDMiddleware(trace.FromRequest)(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)
	handler = newCORS(opts.CORSOrigins).Handler(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func newCORS(origins []string) *cors.Cors {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	return cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", trace.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// routes builds the authenticated API mux.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	api := func(pattern string, h ownerHandler) {
		mux.Handle(pattern, h)
	}

	api("GET /api/v1/expenses", s.handleListExpenses)
	api("POST /api/v1/expenses", s.handleCreateExpense)
	api("GET /api/v1/expenses/{id}", s.handleGetExpense)
	api("PUT /api/v1/expenses/{id}", s.handleUpdateExpense)
	api("DELETE /api/v1/expenses/{id}", s.handleDeleteExpense)

	api("GET /api/v1/categories", s.handleListCategories)
	api("POST /api/v1/categories", s.handleCreateCategory)
	api("GET /api/v1/categories/{id}", s.handleGetCategory)
	api("PUT /api/v1/categories/{id}", s.handleUpdateCategory)
	api("DELETE /api/v1/categories/{id}", s.handleDeleteCategory)

	api("GET /api/v1/budgets", s.handleListBudgets)
	api("POST /api/v1/budgets", s.handleCreateBudget)
	api("GET /api/v1/budgets/status", s.handleBudgetStatuses)
	api("GET /api/v1/budgets/{id}", s.handleGetBudget)
	api("PUT /api/v1/budgets/{id}", s.handleUpdateBudget)
	api("DELETE /api/v1/budgets/{id}", s.handleDeleteBudget)

	api("GET /api/v1/goals", s.handleListGoals)
	api("POST /api/v1/goals", s.handleCreateGoal)
	api("GET /api/v1/goals/{id}", s.handleGetGoal)
	api("PUT /api/v1/goals/{id}", s.handleUpdateGoal)
	api("DELETE /api/v1/goals/{id}", s.handleDeleteGoal)
	api("GET /api/v1/goals/{id}/contributions", s.handleListContributions)
	api("POST /api/v1/goals/{id}/contributions", s.handleAddContribution)
	api("POST /api/v1/goals/{id}/contribute", s.handleAddContribution)

	api("GET /api/v1/insights/summary", s.handleSummary)
	api("GET /api/v1/insights/tips", s.handleTips)
	api("POST /api/v1/insights/chat", s.handleChat)
	api("GET /api/v1/insights/predictions", s.handlePredictions)

	api("GET /api/v1/reports/monthly", s.handleMonthlyReport)
	api("GET /api/v1/reports/category", s.handleCategoryReport)
	api("GET /api/v1/reports/export", s.handleExport)

	return mux
}

// ownerHandler is an API handler that runs on behalf of the authenticated
// owner. A returned error is rendered by writeError.
type ownerHandler func(w http.ResponseWriter, r *http.Request, ownerID string) error

func (h ownerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ownerID, err := owner(r)
	if err == nil {
		err = h(w, r, ownerID)
	}
	if err != nil {
		writeError(w, r, err)
	}
}

// Shutdown stops background goroutines and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
