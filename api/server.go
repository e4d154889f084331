/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:      Unique ID per request for tracing
  2. RequestLogger:  Structured request logging (httplog over slog)
  3. Recoverer:      Panic recovery (500 instead of crash)
  4. CORS:           Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/employees/*   Per-employee reports and trends
  /api/reports       Reports for everyone
  /api/tables/*      Source table uploads
  /api/imports       Import run history (/{id} for one run)
  /api/rejected      Rows dropped by the normalizers
  /api/profiles/*    Calculation profiles
  /api/scenarios/*   Demo datasets
  /metrics           Prometheus metrics
  /healthz           Liveness (store ping)

SECURITY NOTE:
  No authentication middleware. All endpoints are public; run behind the
  company SSO proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/utilization/serve.go: Server startup
*/
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions tunes NewRouter.
type RouterOptions struct {
	// AllowedOrigins for CORS. Empty means the local dashboard dev servers.
	AllowedOrigins []string
	// RequestLogLevel is the level requests are logged at.
	RequestLogLevel slog.Level
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(httplog.RequestLogger(h.Logger, &httplog.Options{
		Level:  opts.RequestLogLevel,
		Schema: httplog.SchemaECS,
	}))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/healthz", h.Health)

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Get("/{name}/report", h.GetReport)
			r.Get("/{name}/monthly", h.GetMonthly)
		})

		r.Get("/reports", h.ListReports)
		r.Get("/rejected", h.ListRejected)

		r.Post("/tables/{table}", h.UploadTable)
		r.Get("/imports", h.ListImports)
		r.Get("/imports/{id}", h.GetImport)

		r.Route("/profiles", func(r chi.Router) {
			r.Get("/", h.ListProfiles)
			r.Post("/", h.CreateProfile)
			r.Get("/{id}", h.GetProfile)
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}

// Health reports whether the store is reachable.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
