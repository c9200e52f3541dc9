package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/liguepro/billing/pkg/entitlement"
)

// RequireEntitlement gates a route subtree on a plan feature. The wrapped
// handler only runs when the account identified by the {accountID} path
// parameter is entitled to the feature under its effective plan.
func RequireEntitlement(gate *entitlement.Gate, feature entitlement.Feature, log *slog.Logger) func(http.Handler) http.Handler {
	if gate == nil {
		panic("httpapi: entitlement.Gate is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "accountID"))
			if err != nil {
				respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id", Code: "bad_request"})
				return
			}
			if err := gate.Allow(r.Context(), id, feature); err != nil {
				respondError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ReserveLead consumes one unit of the monthly lead quota before passing
// the request on. Exhausted quotas answer 402 without running the handler.
func ReserveLead(gate *entitlement.Gate, log *slog.Logger) func(http.Handler) http.Handler {
	if gate == nil {
		panic("httpapi: entitlement.Gate is required")
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := uuid.Parse(chi.URLParam(r, "accountID"))
			if err != nil {
				respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id", Code: "bad_request"})
				return
			}
			if err := gate.ReserveLead(r.Context(), id); err != nil {
				respondError(w, r, log, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
