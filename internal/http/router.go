// Package http assembles the service's HTTP surface: the member-facing
// attendance routes, the authenticated admin routes and the operational
// endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	attendancehandler "steeple/internal/attendance/handler"
	locationhandler "steeple/internal/location/handler"
	"steeple/internal/platform/metrics"
	"steeple/internal/platform/middleware"
	"steeple/pkg/platform/httputil"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker func(ctx context.Context) error

// Deps collects everything the router mounts.
type Deps struct {
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	Validator  middleware.JWTValidator
	Attendance *attendancehandler.Handler
	Locations  *locationhandler.Handler

	// Optional health probes, keyed by dependency name.
	Health map[string]HealthChecker
}

// New builds the full router with the shared middleware chain.
func New(deps Deps) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Latency(deps.Metrics))
	r.Use(middleware.Timeout(15 * time.Second))
	r.Use(middleware.ContentTypeJSON)

	r.Get("/healthz", healthHandler(deps.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		deps.Attendance.RegisterPublic(r)

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
			deps.Locations.Register(r)
			deps.Attendance.RegisterAdmin(r)
		})
	})

	return r
}

func healthHandler(checks map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := http.StatusOK
		out := map[string]string{}
		for name, check := range checks {
			if err := check(r.Context()); err != nil {
				status = http.StatusServiceUnavailable
				out[name] = err.Error()
				continue
			}
			out[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{
			"status":       statusWord(status),
			"dependencies": out,
		})
	}
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
