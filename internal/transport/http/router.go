package http

import (
	"net/http"
	"strings"

	"github.com/dukedaW/shortlinks/internal/config"
	"github.com/dukedaW/shortlinks/internal/infrastructure/telemetry"
	"github.com/dukedaW/shortlinks/internal/processing/auth"
	"github.com/dukedaW/shortlinks/internal/processing/links"
	"github.com/dukedaW/shortlinks/internal/transport/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var spanNames = map[string]string{
	"GET /health":              "health",
	"GET /metrics":             "metrics",
	"POST /links/shorten":      "links.shorten",
	"GET /links/search":        "links.search",
	"GET /links/{alias}":       "links.redirect",
	"PUT /links/{alias}":       "links.update",
	"DELETE /links/{alias}":    "links.delete",
	"GET /links/{alias}/stats": "links.stats",
	"POST /auth/register":      "auth.register",
	"POST /auth/login":         "auth.login",
	"GET /auth/me":             "auth.me",
}

type RouterDeps struct {
	LinkService *links.Service
	AuthService *auth.Service
	DailyStats  DailyStatsReader                    // may be nil
	Limiter     *middleware.RedisFixedWindowLimiter // may be nil
	Store       Pinger                              // may be nil
}

type RouterOptions struct {
	EnableCORS    bool
	EnableLogging bool
	EnableMetrics bool
}

func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		EnableCORS:    true,
		EnableLogging: true,
		EnableMetrics: true,
	}
}

func NewRouter(cfg *config.Config, deps RouterDeps) http.Handler {
	return NewRouterWithOptions(cfg, deps, DefaultRouterOptions())
}

func NewRouterWithOptions(cfg *config.Config, deps RouterDeps, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	healthHandler := NewHealthHandler(deps.Store)
	linksHandler := NewLinksHandler(cfg, deps.LinkService, deps.DailyStats)
	authHandler := NewAuthHandler(deps.AuthService)

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", healthHandler.Metrics())

	shortenMiddlewares := []func(http.Handler) http.Handler{
		middleware.OptionalAuth(deps.AuthService),
	}
	if deps.Limiter != nil {
		shortenMiddlewares = append(shortenMiddlewares, middleware.RateLimitMiddleware(deps.Limiter))
	}

	mux.Handle("POST /links/shorten", middleware.Chain(
		http.HandlerFunc(linksHandler.Shorten),
		shortenMiddlewares...,
	))

	mux.HandleFunc("GET /links/search", linksHandler.Search)
	mux.HandleFunc("GET /links/{alias}", linksHandler.Redirect)
	mux.HandleFunc("GET /links/{alias}/stats", linksHandler.Stats)

	mux.Handle("PUT /links/{alias}", middleware.Chain(
		http.HandlerFunc(linksHandler.Update),
		middleware.OptionalAuth(deps.AuthService),
	))
	mux.Handle("DELETE /links/{alias}", middleware.Chain(
		http.HandlerFunc(linksHandler.Delete),
		middleware.OptionalAuth(deps.AuthService),
	))

	mux.HandleFunc("POST /auth/register", authHandler.Register)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.Handle("GET /auth/me", middleware.Chain(
		http.HandlerFunc(authHandler.Me),
		middleware.RequireAuth(deps.AuthService),
	))

	var innerHandler http.Handler = mux
	if opts.EnableCORS {
		innerHandler = middleware.CORSMiddleware(innerHandler)
	}
	if opts.EnableLogging {
		innerHandler = middleware.LoggingMiddleware(innerHandler)
	}
	if opts.EnableMetrics {
		innerHandler = middleware.MetricsMiddleware(innerHandler)
	}

	otelOptions := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			key := r.Method + " " + r.Pattern
			if name, ok := spanNames[key]; ok {
				return name
			}
			if r.Pattern != "" {
				return r.Pattern
			}
			path := strings.TrimSpace(r.URL.Path)
			if path == "" {
				path = "/"
			}
			return path
		}),
	}

	if telemetry.TracerProvider != nil {
		otelOptions = append(otelOptions, otelhttp.WithTracerProvider(telemetry.TracerProvider))
	}

	return otelhttp.NewHandler(innerHandler, cfg.App.Name, otelOptions...)
}
