// Package httptransport is the HTTP surface. Handlers decode, authorize
// against the authenticated identity, delegate to services, and encode; no
// business rules live here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"sahakosh/internal/platform/metrics"
	"sahakosh/internal/platform/middleware"
	"sahakosh/pkg/platform/httputil"
)

const requestTimeout = 30 * time.Second

// Deps carries everything the router needs.
type Deps struct {
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
	Validator middleware.JWTValidator
	Accounts  AccountService
	Ledger    LedgerService
	Schemes   SchemeService

	// Health reports backing-store reachability; nil means always healthy.
	Health func(ctx context.Context) error
}

// NewRouter wires the full route tree: public signup/login and operational
// endpoints, plus one authenticated subtree per role.
func NewRouter(d Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.ContentTypeJSON)
	r.Use(middleware.Latency(d.Metrics))

	r.Get("/healthz", handleHealth(d.Health))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	auth := &AuthHandler{accounts: d.Accounts, logger: d.Logger}
	auth.Register(r)

	citizen := &CitizenHandler{accounts: d.Accounts, ledger: d.Ledger, schemes: d.Schemes, logger: d.Logger}
	r.Route("/citizen", func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Validator, d.Logger))
		r.Use(middleware.RequireRole("citizen", d.Logger))
		citizen.Register(r)
	})

	vendor := &VendorHandler{accounts: d.Accounts, ledger: d.Ledger, logger: d.Logger}
	r.Route("/vendor", func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Validator, d.Logger))
		r.Use(middleware.RequireRole("vendor", d.Logger))
		vendor.Register(r)
	})

	government := &GovernmentHandler{accounts: d.Accounts, ledger: d.Ledger, schemes: d.Schemes, logger: d.Logger}
	r.Route("/government", func(r chi.Router) {
		r.Use(middleware.RequireAuth(d.Validator, d.Logger))
		r.Use(middleware.RequireRole("government", d.Logger))
		government.Register(r)
	})

	return r
}

func handleHealth(check func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if check != nil {
			if err := check(r.Context()); err != nil {
				httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded"})
				return
			}
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
