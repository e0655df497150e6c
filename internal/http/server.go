// Package http serves the FinLens JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finlens/internal/budget"
	"finlens/internal/core"
	"finlens/internal/log"
	"finlens/internal/middleware/ratelimit"
	"finlens/internal/middleware/security"
	"finlens/internal/middleware/trace"
	"finlens/internal/services"
)

const defaultMaxImageBytes = 10 << 20

type (
	// ReceiptScanner processes receipt text and optionally keeps it.
	ReceiptScanner interface {
		Scan(ctx context.Context, userID, raw string, save bool) (services.ScanResult, error)
	}

	// ExpenseBook records expenses and budgets.
	ExpenseBook interface {
		CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
		ListExpenses(ctx context.Context, userID string, r core.DateRange) ([]core.Expense, error)
		GetExpense(ctx context.Context, userID string, id int64) (core.Expense, error)
		DeleteExpense(ctx context.Context, userID string, id int64) error
		Summary(ctx context.Context, userID string, r core.DateRange) (core.ExpenseSummary, error)
		SetBudget(ctx context.Context, b core.Budget) (core.Budget, error)
		ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	}

	// AlertSource evaluates the budget alerts of a user.
	AlertSource interface {
		Alerts(ctx context.Context, userID string, now time.Time) (budget.Report, error)
	}

	// Recognizer extracts text from a receipt image.
	Recognizer interface {
		Recognize(ctx context.Context, img []byte) (string, error)
	}

	// Pinger reports whether the store is reachable.
	Pinger interface {
		Ping(ctx context.Context) error
	}

	// BrokerStatus reports whether the message broker connection is up.
	BrokerStatus interface {
		Healthy() bool
	}
)

// Deps are the collaborators of the API. OCR and Broker are optional.
type Deps struct {
	Receipts ReceiptScanner
	Expenses ExpenseBook
	Alerts   AlertSource
	OCR      Recognizer
	Store    Pinger
	Broker   BrokerStatus

	MaxReceiptBytes    int
	MaxImageBytes      int64
	RateLimitPerMinute int
}

type Server struct {
	http.Server
	receipts ReceiptScanner
	expenses ExpenseBook
	alerts   AlertSource
	ocr      Recognizer
	store    Pinger
	broker   BrokerStatus

	maxReceiptBytes int
	maxImageBytes   int64

	limiter      *ratelimit.Limiter
	tracer       *trace.Middleware
	logger       *log.Logger
	now          func() time.Time
	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if deps.MaxReceiptBytes <= 0 {
		deps.MaxReceiptBytes = 64 << 10
	}
	if deps.MaxImageBytes <= 0 {
		deps.MaxImageBytes = defaultMaxImageBytes
	}

	clientIP := security.NewClientIP()
	s := &Server{
		receipts:        deps.Receipts,
		expenses:        deps.Expenses,
		alerts:          deps.Alerts,
		ocr:             deps.OCR,
		store:           deps.Store,
		broker:          deps.Broker,
		maxReceiptBytes: deps.MaxReceiptBytes,
		maxImageBytes:   deps.MaxImageBytes,
		limiter:         ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}, logger),
		tracer:          trace.NewMiddleware(clientIP.Extract, logger),
		logger:          logger.WithComponent(log.ComponentHTTP),
		now:             time.Now,
		started:         time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	api := http.NewServeMux()
	api.HandleFunc("POST /receipts/scan", s.handleScanReceipt)
	api.HandleFunc("POST /expenses", s.handleCreateExpense)
	api.HandleFunc("GET /expenses", s.handleListExpenses)
	api.HandleFunc("GET /expenses/summary", s.handleExpenseSummary)
	api.HandleFunc("GET /expenses/{id}", s.handleGetExpense)
	api.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	api.HandleFunc("GET /budgets", s.handleListBudgets)
	api.HandleFunc("PUT /budgets", s.handleSetBudget)
	api.HandleFunc("GET /budgets/alerts", s.handleBudgetAlerts)

	limit := s.limiter.Middleware(clientIP.Extract, func(w http.ResponseWriter, r *http.Request) {
		TooManyRequestsError().Write(w, r)
	})
	mux.Handle("/", limit(api))

	s.Server = http.Server{
		Addr:           addr,
		Handler:        security.Headers(s.tracer.Middleware(mux)),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    60 * time.Second,
		MaxHeaderBytes: 64 << 10,
	}
	return s
}

// Shutdown stops the rate limiter and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewResponse().JSON(map[string]any{
		"status":    "ok",
		"timestamp": s.now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w, r)
}

// handleReady checks the store and, when configured, the broker.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	code := http.StatusOK
	checks := map[string]string{}

	if s.store == nil {
		checks["storage"] = "not_configured"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else if err := s.store.Ping(ctx); err != nil {
		s.logger.WarnContext(ctx, "Readiness check failed", "check", "storage", log.FieldError, err)
		checks["storage"] = "failed"
		status, code = "not_ready", http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	// Receipts fall back to direct writes without a broker, so it never
	// makes the server unready.
	switch {
	case s.broker == nil:
		checks["amqp"] = "not_configured"
	case s.broker.Healthy():
		checks["amqp"] = "ok"
	default:
		checks["amqp"] = "degraded"
	}

	NewResponse().Status(code).JSON(map[string]any{
		"status": status,
		"checks": checks,
	}).Write(w, r)
}
