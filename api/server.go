/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RequestLog: zap logger per request (request id attached), access log
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the practice UI
  5. Auth:       Session from bearer token, /api routes only

ROUTE GROUPS:
  /api/meal-plans/*     Plans and freeze operations
  /api/clients/*        Client plan listings
  /api/purchases/*      Purchase records
  /api/templates        Meal-plan templates
  /api/scenarios/*      Demo scenarios (admin, non-production only)
  /healthz, /metrics    Unauthenticated

SEE ALSO:
  - handlers.go: Handler implementations
  - auth.go: Session middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/dtps/mealplan-engine/generic"
	"github.com/dtps/mealplan-engine/logger"
)

// RouterConfig carries the optional pieces of the router.
type RouterConfig struct {
	Auth            *Authenticator
	Metrics         http.Handler // served at /metrics when set
	CORSOrigins     []string
	EnableScenarios bool
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", devUserHeader, devRoleHeader},
		AllowCredentials: true,
	}))

	r.Get("/healthz", h.Health)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	// API routes
	r.Route("/api", func(r chi.Router) {
		if cfg.Auth != nil {
			r.Use(cfg.Auth.Middleware)
		}

		// Meal plan routes
		r.Route("/meal-plans", func(r chi.Router) {
			r.Post("/", h.AssignMealPlan)
			r.Get("/{id}", h.GetMealPlan)
			r.Get("/{id}/freeze", h.GetFreezeStatus)
			r.Post("/{id}/freeze", h.FreezePlan)
			r.Delete("/{id}/freeze", h.UnfreezePlan)
			r.Get("/{id}/freeze/history", h.GetFreezeHistory)
		})

		r.Get("/clients/{clientId}/meal-plans", h.ListClientMealPlans)

		// Purchase routes
		r.Route("/purchases", func(r chi.Router) {
			r.Post("/", h.CreatePurchase)
			r.Get("/{id}", h.GetPurchase)
		})

		r.Get("/templates", h.ListTemplates)

		// Scenario routes
		if cfg.EnableScenarios {
			r.Route("/scenarios", func(r chi.Router) {
				r.Use(RequireRole(generic.RoleAdmin))
				r.Get("/", h.ListScenarios)
				r.Get("/current", h.GetCurrentScenario)
				r.Post("/load", h.LoadScenario)
				r.Post("/reset", h.ResetDatabase)
			})
		}
	})

	return r
}

// RequestLogger attaches a request-scoped zap logger to the context and
// writes one access log line per request.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			l := base.With(zap.String("request_id", middleware.GetReqID(r.Context())))
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			}
			if ww.Status() >= http.StatusInternalServerError {
				l.Warn("request", fields...)
				return
			}
			l.Info("request", fields...)
		})
	}
}
