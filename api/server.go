package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/log"

	"github.com/Sardor-M/p-website-backend/config"
	"github.com/Sardor-M/p-website-backend/ratelimit"
	"github.com/Sardor-M/p-website-backend/services"
)

type Server struct {
	*http.Server
	startupTime time.Time
}

func NewServer(cfg config.Config, service *services.BlogService, opts ...RouterOption) (Server, error) {
	// Capture startup time
	startupTime := time.Now()

	opts = append([]RouterOption{withConfig(cfg), withStartupTime(startupTime)}, opts...)
	router := newRouter(service, opts...)

	server := &http.Server{
		Addr:         cfg.Address(), // Bind to 0.0.0.0 for external access
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout(),
		WriteTimeout: cfg.Server.WriteTimeout(),
		IdleTimeout:  cfg.Server.IdleTimeout(),
	}

	return Server{server, startupTime}, nil
}

type router struct {
	config         config.Config
	startupTime    time.Time
	csrfExclusions []PathRule
	now            func() time.Time
}

type RouterOption func(*router)

func withConfig(c config.Config) RouterOption {
	return func(r *router) {
		r.config = c
	}
}

func withStartupTime(startupTime time.Time) RouterOption {
	return func(r *router) {
		r.startupTime = startupTime
	}
}

// WithCSRFExclusions replaces the default CSRF exclusion rules.
func WithCSRFExclusions(rules []PathRule) RouterOption {
	return func(r *router) {
		r.csrfExclusions = rules
	}
}

// WithClock sets the time source used by the global limiter and the health probe.
func WithClock(now func() time.Time) RouterOption {
	return func(r *router) {
		r.now = now
	}
}

func newRouter(service *services.BlogService, opts ...RouterOption) *chi.Mux {
	router := router{
		csrfExclusions: DefaultCSRFExclusions,
		now:            time.Now,
	}
	for _, opt := range opts {
		opt(&router)
	}
	cfg := router.config

	csrf := NewCSRF(cfg.CSRFSecret, cfg.IsProduction(), router.csrfExclusions)
	sanitizer := NewSanitizer()
	routeLimiter := NewRateLimiter(ratelimit.NewFixedWindow(cfg.RateLimit.Points, cfg.RateLimit.Duration), BlogRateLimitRules, true)
	globalLimiter := NewRateLimiter(ratelimit.NewKeyed(cfg.RateLimit.GlobalPoints, cfg.RateLimit.GlobalDuration, router.now), nil, false)

	chiRouter := chi.NewRouter()

	if cfg.TrustProxy {
		chiRouter.Use(middleware.RealIP)
	}
	// The logger wraps everything else, rejected preflights included
	chiRouter.Use(RequestLogger)

	// Bootstrap
	chiRouter.Use(LogInternalServerErrors)
	chiRouter.Use(SecurityHeaders)
	chiRouter.Use(middleware.Compress(5))
	chiRouter.Use(CORSCheckMiddleware(cfg.AcceptedOrigins))
	chiRouter.Use(corsMiddleware(cfg.AcceptedOrigins))

	// Request chain, in this order
	chiRouter.Use(sanitizer.Middleware)
	chiRouter.Use(csrf.Middleware)
	chiRouter.Use(routeLimiter.Middleware)
	chiRouter.Use(globalLimiter.Middleware)

	handlers := initializeHandlers(service, csrf, sanitizer, router.now)
	setupRoutes(chiRouter, handlers)

	return chiRouter
}

func (s Server) Start(errChannel chan<- error) {
	log.Info().Msgf("Server started on: %s", s.Addr)
	errChannel <- s.ListenAndServe()
}

func (s Server) ShutdownGracefully(timeout time.Duration) {
	log.Info().Dur("uptime", time.Since(s.startupTime)).Msg("Gracefully shutting down...")

	gracefullCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := s.Shutdown(gracefullCtx); err != nil {
		log.Error().Msgf("Error shutting down the server: %v", err)
	} else {
		log.Info().Msg("HttpServer gracefully shut down")
	}
}
