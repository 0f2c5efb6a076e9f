/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address for logging and rate limiting
  3. Logger:     Request logging
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Secure:     Security headers (unrolled/secure)
  6. CORS:       Cross-origin requests for frontend
  7. Metrics:    Request count and latency per route pattern

  Write routes (POST/PUT/DELETE) are additionally rate limited per client IP
  when RouterConfig.WritesPerMinute > 0.

ROUTE GROUPS:
  /api/*        Planner API (see handlers.go)
  /metrics      Prometheus exposition
  /healthz      Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"
	"github.com/warp/teamplanner/metrics"
)

// RouterConfig carries the transport settings of NewRouter.
type RouterConfig struct {
	AllowedOrigins  []string
	WritesPerMinute int
	Metrics         *metrics.Manager
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
	}).Handler)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(instrument(cfg.Metrics))

	writes := func(next http.Handler) http.Handler { return next }
	if cfg.WritesPerMinute > 0 {
		writes = httprate.Limit(cfg.WritesPerMinute, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests), nil)
			}),
		)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", cfg.Metrics.Handler())

	// API routes. Paths are flat; writes go through the rate limiter.
	r.Route("/api", func(r chi.Router) {
		w := r.With(writes)

		r.Get("/year", h.GetYear)
		w.Put("/year", h.SetYear)
		r.Get("/rollover", h.GetRollover)
		r.Get("/calendar/business-days", h.BusinessDays)

		// Statistics
		r.Get("/statistics", h.ListStatistics)
		r.Get("/statistics/rows", h.ListRows)
		r.Get("/statistics/team", h.GetTeamStatistic)
		r.Get("/statistics/search", h.SearchStatistics)

		// Employee routes
		r.Get("/employees", h.ListEmployees)
		w.Post("/employees", h.CreateEmployee)
		r.Get("/employees/{id}", h.GetEmployee)
		w.Put("/employees/{id}", h.UpdateEmployee)
		w.Delete("/employees/{id}", h.DeleteEmployee)
		w.Post("/employees/{id}/depart", h.DepartEmployee)
		r.Get("/employees/{id}/statistic", h.GetStatistic)
		r.Get("/employees/{id}/records", h.GetRecords)

		// Ledger routes
		w.Post("/employees/{id}/vacation", h.RequestVacation)
		w.Put("/employees/{id}/vacation/{recordID}", h.ReviseVacation)
		w.Delete("/employees/{id}/vacation/{recordID}", h.CancelVacation)
		w.Post("/employees/{id}/sick", h.RecordSick)
		w.Post("/employees/{id}/training", h.RecordTraining)
		w.Post("/employees/{id}/overtime", h.RecordOvertime)
		w.Delete("/records/{category}/{recordID}", h.DeleteRecord)

		// Department routes
		r.Get("/departments", h.ListDepartments)
		w.Post("/departments", h.CreateDepartment)
		w.Put("/departments/{id}", h.UpdateDepartment)
		w.Delete("/departments/{id}", h.DeleteDepartment)

		// Holiday routes
		r.Get("/holidays", h.ListHolidays)
		w.Post("/holidays", h.CreateHoliday)
		w.Post("/holidays/defaults", h.AddDefaultHolidays)
		w.Put("/holidays/{id}", h.UpdateHoliday)
		w.Delete("/holidays/{id}", h.DeleteHoliday)

		// Scenario routes
		r.Get("/scenarios", h.ListScenarios)
		r.Get("/scenarios/current", h.GetCurrentScenario)
		w.Post("/scenarios/load", h.LoadScenario)
	})

	return r
}

// instrument records request count and latency per chi route pattern.
func instrument(m *metrics.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			m.HTTPRequest(routePattern(r), r.Method, status, time.Since(start))
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
