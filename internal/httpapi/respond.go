package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/liguepro/billing/pkg/account"
	"github.com/liguepro/billing/pkg/entitlement"
	"github.com/liguepro/billing/pkg/gateway"
	"github.com/liguepro/billing/pkg/logger"
	"github.com/liguepro/billing/pkg/plan"
	"github.com/liguepro/billing/pkg/quota"
	"github.com/liguepro/billing/pkg/subscription"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// respondError maps domain errors onto HTTP statuses. Unknown errors are
// logged and reported as opaque 500s so internals never leak to clients.
func respondError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error) {
	status, code := classify(err)
	if status == http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "unhandled billing api error", logger.Error(err))
		respondJSON(w, status, errorResponse{Error: "internal error", Code: code})
		return
	}
	respondJSON(w, status, errorResponse{Error: err.Error(), Code: code})
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, subscription.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, account.ErrAccountNotFound):
		return http.StatusNotFound, "account_not_found"
	case errors.Is(err, gateway.ErrNoPaymentLink):
		return http.StatusNotFound, "no_payment_link"
	case errors.Is(err, quota.ErrQuotaExceeded):
		return http.StatusPaymentRequired, "quota_exceeded"
	case errors.Is(err, entitlement.ErrFeatureBlocked):
		return http.StatusForbidden, "feature_blocked"
	case errors.Is(err, subscription.ErrCheckoutConflict):
		return http.StatusConflict, "checkout_conflict"
	case errors.Is(err, account.ErrAccountAlreadyExists):
		return http.StatusConflict, "account_exists"
	case errors.Is(err, plan.ErrUnknownTier),
		errors.Is(err, plan.ErrTierNotPurchasable),
		errors.Is(err, entitlement.ErrUnknownFeature),
		errors.Is(err, subscription.ErrMalformedEvent):
		return http.StatusUnprocessableEntity, "invalid_request"
	case errors.Is(err, subscription.ErrGatewayFailed),
		errors.Is(err, gateway.ErrUnavailable):
		return http.StatusBadGateway, "gateway_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
