package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/liguepro/billing/pkg/entitlement"
	"github.com/liguepro/billing/pkg/plan"
	"github.com/liguepro/billing/pkg/qrcode"
	"github.com/liguepro/billing/pkg/subscription"
)

// Gateways deliver the shared secret in this header on every webhook call.
const webhookTokenHeader = "X-Webhook-Token"

// maxWebhookBody bounds webhook payload reads. Provider events are small;
// anything larger is garbage.
const maxWebhookBody = 1 << 20

type handlers struct {
	subs *subscription.Service
	gate *entitlement.Gate
	log  *slog.Logger
}

type checkoutRequest struct {
	Tier  string `json:"tier"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	TaxID string `json:"taxId"`
}

type checkoutResponse struct {
	Tier           string `json:"tier"`
	SubscriptionID string `json:"subscriptionId"`
	PaymentURL     string `json:"paymentUrl"`
}

func (h *handlers) startCheckout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON body", Code: "bad_request"})
		return
	}

	tier, err := plan.ParseTier(req.Tier)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	checkout, err := h.subs.StartCheckout(r.Context(), accountID, tier, subscription.CheckoutOptions{
		Name:  req.Name,
		Email: req.Email,
		Phone: req.Phone,
		TaxID: req.TaxID,
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusCreated, checkoutResponse{
		Tier:           string(checkout.Tier),
		SubscriptionID: checkout.SubscriptionID,
		PaymentURL:     checkout.PaymentURL,
	})
}

// checkoutQR renders the pending payment link as a PNG QR code.
func (h *handlers) checkoutQR(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	link, err := h.subs.PaymentLink(r.Context(), accountID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	size := 0
	if raw := r.URL.Query().Get("size"); raw != "" {
		size, _ = strconv.Atoi(raw)
	}

	png, err := qrcode.PNG(link, size)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(png)
}

func (h *handlers) cancel(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	if err := h.subs.Cancel(r.Context(), accountID); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"canceled": true})
}

type statusResponse struct {
	Tier           string            `json:"tier"`
	Status         string            `json:"status"`
	PlanValidUntil *time.Time        `json:"planValidUntil,omitempty"`
	DaysRemaining  int               `json:"daysRemaining"`
	Entitlements   plan.Entitlements `json:"entitlements"`
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	snap, err := h.subs.GetStatus(r.Context(), accountID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	ents, err := h.gate.Effective(r.Context(), accountID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, statusResponse{
		Tier:           string(snap.PlanTier),
		Status:         string(snap.Status),
		PlanValidUntil: snap.PlanValidUntil,
		DaysRemaining:  snap.DaysRemaining,
		Entitlements:   ents,
	})
}

type usageResponse struct {
	Period    string `json:"period"`
	LeadsUsed int64  `json:"leadsUsed"`
	LeadLimit int64  `json:"leadLimit"`
	Unlimited bool   `json:"unlimited"`
}

func (h *handlers) usage(w http.ResponseWriter, r *http.Request) {
	accountID, ok := h.accountID(w, r)
	if !ok {
		return
	}

	u, err := h.gate.LeadUsage(r.Context(), accountID)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	respondJSON(w, http.StatusOK, usageResponse{
		Period:    u.Period,
		LeadsUsed: u.Used,
		LeadLimit: u.Limit,
		Unlimited: u.Limit == plan.Unlimited,
	})
}

// webhook ingests gateway events. The response contract is deliberately
// coarse: 401 for a bad token, 200 for everything the engine accepted or
// chose to ignore, so the gateway retries only genuine processing failures.
func (h *handlers) webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "unreadable body", Code: "bad_request"})
		return
	}

	err = h.subs.HandleWebhook(r.Context(), payload, r.Header.Get(webhookTokenHeader))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"received": true})
}

func (h *handlers) accountID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := chi.URLParam(r, "accountID")
	id, err := uuid.Parse(raw)
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid account id", Code: "bad_request"})
		return uuid.Nil, false
	}
	return id, true
}
