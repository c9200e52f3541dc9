// Package httpapi exposes the billing engine over HTTP: checkout and
// cancellation endpoints, gateway webhook ingestion, and read endpoints for
// status and lead usage. Authentication of end users is left to the outer
// application; account identity arrives as a path parameter.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/liguepro/billing/pkg/entitlement"
	"github.com/liguepro/billing/pkg/httpserver"
	"github.com/liguepro/billing/pkg/subscription"
)

// Deps carries the services the API routes to.
type Deps struct {
	Subscriptions *subscription.Service
	Entitlements  *entitlement.Gate
	Logger        *slog.Logger

	// ReadyChecks are probed by GET /healthz when present.
	ReadyChecks []func(context.Context) error
}

// NewRouter builds the chi router for the billing API.
func NewRouter(deps Deps) http.Handler {
	if deps.Subscriptions == nil {
		panic("httpapi: subscription.Service is required")
	}
	if deps.Entitlements == nil {
		panic("httpapi: entitlement.Gate is required")
	}
	log := deps.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	h := &handlers{
		subs: deps.Subscriptions,
		gate: deps.Entitlements,
		log:  log,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	r.Get("/healthz", httpserver.HealthCheckHandler(log, deps.ReadyChecks...))

	r.Post("/webhooks/billing", h.webhook)

	r.Route("/accounts/{accountID}/billing", func(r chi.Router) {
		r.Post("/checkout", h.startCheckout)
		r.Get("/checkout/qr", h.checkoutQR)
		r.Post("/cancel", h.cancel)
		r.Get("/status", h.status)
		r.Get("/usage", h.usage)
	})

	return r
}
