/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     Request logging through the structured logger
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the dashboard frontend
  5. Identity:   X-User-ID header on every /api/planner route

ROUTE GROUPS:
  /api/planner/*        Dashboard, plan, analytics, catch-up, logs, setup
  /api/scenarios/*      Demo scenarios
  /api/admin/*          Goal rollover
  /                     JSON index of the API

IDENTITY:
  The user is whoever the X-User-ID header names. There is no
  authentication; the header is trusted as sent by the frontend proxy.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/billable-planner/generic"
	"github.com/warp/billable-planner/logging"
)

// UserHeader carries the caller's identity.
const UserHeader = "X-User-ID"

type userKey struct{}

// RequireUser rejects requests without an X-User-ID header.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := strings.TrimSpace(r.Header.Get(UserHeader))
		if user == "" {
			writeError(w, http.StatusUnauthorized, "Missing "+UserHeader+" header", nil)
			return
		}
		ctx := context.WithValue(r.Context(), userKey{}, generic.UserID(user))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// UserFrom returns the identity RequireUser stored on the context.
func UserFrom(ctx context.Context) generic.UserID {
	user, _ := ctx.Value(userKey{}).(generic.UserID)
	return user
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", UserHeader},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Route("/planner", func(r chi.Router) {
			r.Use(RequireUser)

			r.Get("/dashboard", h.GetDashboard)
			r.Get("/plan", h.GetPlan)
			r.Get("/analytics", h.GetAnalytics)
			r.Post("/catchup", h.SuggestCatchUp)

			r.Get("/logs", h.ListLogs)
			r.Post("/logs", h.LogHours)

			r.Get("/setup", h.GetSetup)
			r.Put("/setup", h.UpdateSetup)

			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", h.ListHolidays)
				r.Post("/", h.CreateHoliday)
				r.Delete("/{id}", h.DeleteHoliday)
			})

			r.Route("/vacations", func(r chi.Router) {
				r.Get("/", h.ListVacations)
				r.Post("/", h.CreateVacation)
				r.Delete("/{id}", h.DeleteVacation)
			})
		})

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Post("/rollover", h.TriggerRollover)
			r.Get("/rollover/runs", h.ListRolloverRuns)
		})
	})

	r.Get("/", apiIndex)

	return r
}

// APIIndexDTO lists the routes served at the root.
type APIIndexDTO struct {
	Name       string   `json:"name"`
	UserHeader string   `json:"user_header"`
	Endpoints  []string `json:"endpoints"`
}

func apiIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, APIIndexDTO{
		Name:       "Billable Hours Planner API",
		UserHeader: UserHeader,
		Endpoints: []string{
			"GET /api/planner/dashboard",
			"GET /api/planner/plan",
			"GET /api/planner/analytics",
			"POST /api/planner/catchup",
			"GET|POST /api/planner/logs",
			"GET|PUT /api/planner/setup",
			"GET|POST|DELETE /api/planner/holidays",
			"GET|POST|DELETE /api/planner/vacations",
			"GET /api/scenarios",
			"POST /api/admin/rollover",
		},
	})
}
