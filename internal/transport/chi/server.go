// Package chi exposes the dashboard API over a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/usagedash/internal/domain"
	logpkg "github.com/kailas-cloud/usagedash/internal/logger"
	balanceuc "github.com/kailas-cloud/usagedash/internal/usecase/balance"
	healthuc "github.com/kailas-cloud/usagedash/internal/usecase/health"
	limitsuc "github.com/kailas-cloud/usagedash/internal/usecase/limits"
	premiumuc "github.com/kailas-cloud/usagedash/internal/usecase/premium"
	"github.com/kailas-cloud/usagedash/internal/version"
)

// API routes.
const (
	BalancePath      = "/api/openrouter/balance"
	PremiumUsagePath = "/api/github/copilot/premium-usage"
	CodexLimitsPath  = "/api/openai/codex/limits"
	HealthPath       = "/health"
	MetricsPath      = "/metrics"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the dashboard endpoints.
type Server struct {
	balance       *balanceuc.Service
	premium       *premiumuc.Service
	limits        *limitsuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	balance *balanceuc.Service,
	premium *premiumuc.Service,
	limits *limitsuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		balance: balance,
		premium: premium,
		limits:  limits,
		health:  health,
		logger:  logger,
	}
	// Domain sentinels always arrive wrapped in a ServiceError carrying its status.
	s.errorHandlers = []errorHandler{
		serviceErrorHandler,
	}
	return s
}

// Register mounts all routes on r.
func (s *Server) Register(r chi.Router) {
	r.Get(BalancePath, s.GetBalance)
	r.Get(PremiumUsagePath, s.GetPremiumUsage)
	r.Get(CodexLimitsPath, s.GetCodexLimits)
	r.Get(HealthPath, s.HealthCheck)
	r.Get(MetricsPath, s.Metrics)
}

// GetBalance handles GET /api/openrouter/balance.
func (s *Server) GetBalance(w http.ResponseWriter, r *http.Request) {
	ctx := logpkg.With(r.Context(), zap.String("provider", "openrouter"))
	b, err := s.balance.Get(ctx)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balanceToResponse(b))
}

// GetPremiumUsage handles GET /api/github/copilot/premium-usage.
func (s *Server) GetPremiumUsage(w http.ResponseWriter, r *http.Request) {
	ctx := logpkg.With(r.Context(), zap.String("provider", "github"))
	report, err := s.premium.Get(ctx)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, premiumToResponse(report))
}

// GetCodexLimits handles GET /api/openai/codex/limits.
func (s *Server) GetCodexLimits(w http.ResponseWriter, r *http.Request) {
	ctx := logpkg.With(r.Context(), zap.String("provider", "chatgpt"))
	l, err := s.limits.Get(ctx)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, limitsToResponse(l))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, healthToResponse(report, version.Version))
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}

func serviceErrorHandler(w http.ResponseWriter, err error) bool {
	var se *domain.ServiceError
	if !errors.As(err, &se) {
		return false
	}
	status := se.Status
	if status == 0 {
		status = http.StatusInternalServerError
	}
	writeError(w, status, se.Message, se.Details)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := s.logger.With(zap.String("request_id", chiMiddleware.GetReqID(r.Context())))
	log.Warn("domain error", zap.String("path", r.URL.Path), zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal error", "")
}
