package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/campusnest-api/pkg/interceptors"
	"github.com/FACorreiaa/campusnest-api/pkg/observability"
	"github.com/FACorreiaa/campusnest-api/pkg/respond"
)

// SetupRouter configures all routes and returns the HTTP handler
func SetupRouter(deps *Dependencies) http.Handler {
	r := chi.NewRouter()
	server := deps.Config.Server

	var limiter *rate.Limiter
	if server.RateLimitPerSecond > 0 && server.RateLimitBurst > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(server.RateLimitPerSecond)), server.RateLimitBurst)
	}

	tracer := otel.GetTracerProvider().Tracer("campusnest/api")

	r.Use(
		interceptors.NewRequestIDMiddleware("X-Request-ID"),
		interceptors.NewTracingMiddleware(tracer),
		interceptors.NewRecoveryMiddleware(deps.Logger),
		interceptors.NewLoggingMiddleware(deps.Logger),
		observability.NewMetricsMiddleware(),
		interceptors.NewRateLimitMiddleware(limiter),
	)

	registerUtilityRoutes(r, deps)
	registerAPIRoutes(r, deps)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respond.Error(w, http.StatusNotFound, "NOT_FOUND", "route not found")
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: server.CORSOrigins,
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	return corsHandler.Handler(r)
}

func registerAPIRoutes(r chi.Router, deps *Dependencies) {
	secret := []byte(deps.Config.Auth.JWTSecret)
	requireAuth := interceptors.NewAuthMiddleware(secret)
	optionalAuth := interceptors.NewOptionalAuthMiddleware(secret)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(interceptors.NewIPRateLimitMiddleware(deps.Config.Server.AuthRequestsPerMin, time.Minute))
			deps.AuthHandler.Routes(r, requireAuth)
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(requireAuth)
			r.Route("/preferences", deps.RoommatesHandler.Routes)
			deps.UsersHandler.Routes(r)
		})

		// Every listing-scoped domain shares one router so {id} resolves the same
		// way everywhere. Handlers apply their own role checks.
		r.Route("/listings", func(r chi.Router) {
			r.Use(optionalAuth)
			deps.ListingsHandler.Routes(r)
			deps.FavoritesHandler.Routes(r)
			deps.InquiriesHandler.Routes(r)
			deps.RecentsHandler.Routes(r)
			deps.StatsHandler.ListingRoutes(r)
		})

		r.Route("/stats", deps.StatsHandler.Routes)
	})
	deps.Logger.Info("API routes configured")
}

// registerUtilityRoutes registers health check, metrics, and other utility routes
func registerUtilityRoutes(r chi.Router, deps *Dependencies) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		if err := deps.DB.Health(); err != nil {
			respond.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": err.Error()})
			return
		}
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/ready", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	if deps.Config.Observability.MetricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
		deps.Logger.Info("registered metrics endpoint", "path", "/metrics")
	}
}
