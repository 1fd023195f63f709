package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/kailas-cloud/usagedash/internal/config"
	logpkg "github.com/kailas-cloud/usagedash/internal/logger"
	"github.com/kailas-cloud/usagedash/internal/metrics"
	"github.com/kailas-cloud/usagedash/internal/repository/codexauth"
	"github.com/kailas-cloud/usagedash/internal/transport/chatgpt"
	chiTransport "github.com/kailas-cloud/usagedash/internal/transport/chi"
	"github.com/kailas-cloud/usagedash/internal/transport/github"
	"github.com/kailas-cloud/usagedash/internal/transport/openrouter"
	"github.com/kailas-cloud/usagedash/internal/transport/upstream"
	balanceuc "github.com/kailas-cloud/usagedash/internal/usecase/balance"
	healthuc "github.com/kailas-cloud/usagedash/internal/usecase/health"
	limitsuc "github.com/kailas-cloud/usagedash/internal/usecase/limits"
	premiumuc "github.com/kailas-cloud/usagedash/internal/usecase/premium"
	"github.com/kailas-cloud/usagedash/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting usagedash API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.Strings("cors_origins", cfg.CORS.AllowedOrigins),
	)

	metrics.RegisterUpstreamMetrics()

	// Outbound clients: one per provider so metrics carry the provider label.
	timeout := time.Duration(cfg.Upstream.TimeoutSec) * time.Second
	orClient := openrouter.NewClient(&openrouter.Config{
		KeyURL:       cfg.OpenRouter.KeyURL,
		BaseURL:      cfg.OpenRouter.BaseURL,
		ProbeTimeout: timeout,
		HTTP:         upstream.NewClient(openrouter.Provider, timeout, logger),
		Logger:       logger,
	})
	ghClient := github.NewClient(
		cfg.GitHub.UsageURLTemplate,
		cfg.GitHub.APIVersion,
		upstream.NewClient(github.Provider, timeout, logger),
	)
	gptClient := chatgpt.NewClient(cfg.Codex.UsageURL, upstream.NewClient(chatgpt.Provider, timeout, logger))

	resolver := codexauth.NewResolver(cfg.Codex.AccessTokenEnv, cfg.Codex.AccountIDEnv, cfg.Codex.AuthFile, nil)

	// Use case services
	balanceSvc := balanceuc.New(orClient, cfg.OpenRouter.APIKeyEnv)
	premiumSvc := premiumuc.New(ghClient, cfg.GitHub.TokenEnv, cfg.GitHub.PropertiesFile)
	limitsSvc := limitsuc.New(resolver, gptClient)
	healthSvc := healthuc.New(orClient, cfg.OpenRouter.APIKeyEnv, resolver)

	server := chiTransport.NewServer(balanceSvc, premiumSvc, limitsSvc, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.Strings("endpoints", []string{
				chiTransport.BalancePath,
				chiTransport.PremiumUsagePath,
				chiTransport.CodexLimitsPath,
			}),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{Error: message})
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.String("path", r.URL.Path),
						zap.Stack("stacktrace"),
					)
					writeJSONError(w, http.StatusInternalServerError, "internal error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			level := reqLogger.Info
			if ww.Status() >= http.StatusInternalServerError {
				level = reqLogger.Warn
			}
			level("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("origin", r.Header.Get("Origin")),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
