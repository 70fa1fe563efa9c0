// Package api provides the HTTP API server and handlers for HeyPrompt.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/heyprompt/heyprompt-server/internal/http/response"
	"github.com/heyprompt/heyprompt-server/internal/metrics"
	"github.com/heyprompt/heyprompt-server/internal/ratelimit"
	"github.com/heyprompt/heyprompt-server/internal/sse"
	"github.com/heyprompt/heyprompt-server/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	Version        string
	AllowedOrigins []string
	// Sentry reports panics through the initialized sentry hub instead of chi's recoverer.
	Sentry bool

	// AuthLimit applies per client IP to signup, login and refresh. Zero uses 20/min, burst 10.
	AuthLimit RateLimit
	// AnonymousLimit applies per client IP to device id issuance. Zero uses 10/min, burst 5.
	AnonymousLimit RateLimit
}

// RateLimit is a per-minute allowance with a burst.
type RateLimit struct {
	PerMinute int
	Burst     int
}

func (l RateLimit) limiter(def RateLimit) *ratelimit.KeyedRateLimiter {
	if l.PerMinute <= 0 {
		l = def
	}
	if l.Burst <= 0 {
		l.Burst = def.Burst
	}
	return ratelimit.PerInterval(l.PerMinute, time.Minute, l.Burst)
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store      store.Store
	services   *Services
	sseManager *sse.Manager
	metrics    *metrics.Metrics
	router     *chi.Mux
	api        huma.API
	logger     *slog.Logger

	authRateLimiter      *ratelimit.KeyedRateLimiter
	anonymousRateLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates a new HTTP server with all routes configured.
// sseManager and m may be nil; the stream and metrics routes are then not mounted.
func NewServer(st store.Store, services *Services, sseManager *sse.Manager, m *metrics.Metrics, opts Options, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:                st,
		services:             services,
		sseManager:           sseManager,
		metrics:              m,
		router:               router,
		logger:               logger,
		authRateLimiter:      opts.AuthLimit.limiter(RateLimit{PerMinute: 20, Burst: 10}),
		anonymousRateLimiter: opts.AnonymousLimit.limiter(RateLimit{PerMinute: 10, Burst: 5}),
	}

	s.setupMiddleware(opts)
	s.api = newHumaAPI(router, opts.Version)
	s.setupRoutes()

	return s
}

func newHumaAPI(router chi.Router, version string) huma.API {
	if version == "" {
		version = "dev"
	}
	cfg := huma.DefaultConfig("HeyPrompt API", version)
	cfg.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
		"anonymous": {
			Type: "apiKey",
			In:   "header",
			Name: HeaderAnonymousID,
		},
	}
	cfg.Transformers = append(cfg.Transformers, EnvelopeTransformer)

	api := humachi.New(router, cfg)
	RegisterErrorHandler()
	return api
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Router returns the chi router.
func (s *Server) Router() chi.Router {
	return s.router
}

// Shutdown releases the rate limiters' background goroutines.
func (s *Server) Shutdown() error {
	s.authRateLimiter.Stop()
	s.anonymousRateLimiter.Stop()
	return nil
}

func (s *Server) setupMiddleware(opts Options) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	if opts.Sentry {
		s.router.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	s.router.Use(middleware.Recoverer)
	if s.metrics != nil {
		s.router.Use(s.metrics.Middleware)
	}

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", HeaderAnonymousID, HeaderDoNotTrack},
		ExposedHeaders:   []string{"Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	if s.services != nil && s.services.Auth != nil {
		s.router.Use(identifyMiddleware(s.services.Auth))
	}
}

func (s *Server) setupRoutes() {
	s.router.NotFound(response.NotFound)
	s.router.MethodNotAllowed(response.MethodNotAllowed)
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/api/v1/metrics", s.metrics.Handler())
	}
	if s.sseManager != nil {
		s.router.Method(http.MethodGet, "/api/v1/stream", sse.NewHandler(s.sseManager, identifyStream, s.logger))
	}

	s.registerHealthRoutes()
	s.registerAnonymousRoutes()
	s.registerAuthRoutes()
	s.registerTagRoutes()
	s.registerPromptRoutes()
	s.registerSearchRoutes()
	s.registerInteractionRoutes()
	s.registerSocialRoutes()
	s.registerLibraryRoutes()
	s.registerProfileRoutes()
	s.registerAdminRoutes()
	s.registerAnalyticsRoutes()
}
