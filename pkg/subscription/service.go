package subscription

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/liguepro/billing/pkg/account"
	"github.com/liguepro/billing/pkg/gateway"
	"github.com/liguepro/billing/pkg/notify"
	"github.com/liguepro/billing/pkg/plan"
)

// CheckoutOptions carries the payer details the gateway needs when the
// external customer does not exist yet.
type CheckoutOptions struct {
	Name  string
	Email string
	Phone string
	TaxID string
}

// Checkout is the result of starting a checkout: the provider subscription
// that now awaits payment and the link the user pays through.
type Checkout struct {
	AccountID      uuid.UUID
	Tier           plan.Tier
	SubscriptionID string
	PaymentURL     string
}

// StatusSnapshot is the read model feature-gating middleware consults.
type StatusSnapshot struct {
	PlanTier       plan.Tier
	Status         account.Status
	PlanValidUntil *time.Time
	DaysRemaining  int
}

// Service owns the subscription lifecycle: it drives the gateway for
// checkout and cancellation, guards inbound webhook events, and applies all
// state transitions through the account store's per-id atomic Update.
type Service struct {
	store        account.Store
	catalog      *plan.Catalog
	provider     gateway.Provider
	dedup        DedupStore
	notifier     notify.Notifier
	webhookToken string
	now          func() time.Time
	log          *slog.Logger
}

// NewService creates the subscription service.
// Panics if required dependencies are nil to fail fast during initialization.
func NewService(store account.Store, catalog *plan.Catalog, provider gateway.Provider, opts ...Option) *Service {
	if store == nil {
		panic("subscription: account.Store is required")
	}
	if catalog == nil {
		panic("subscription: plan.Catalog is required")
	}
	if provider == nil {
		panic("subscription: gateway.Provider is required")
	}

	s := &Service{
		store:    store,
		catalog:  catalog,
		provider: provider,
		dedup:    NewMemoryDedup(),
		now:      time.Now,
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartCheckout records checkout intent for the requested tier, creates or
// reuses the external customer and subscription, and returns the payment
// link. Re-requesting the tier already pending is idempotent and re-fetches
// the link; requesting a different tier while one is pending conflicts.
func (s *Service) StartCheckout(ctx context.Context, accountID uuid.UUID, tier plan.Tier, opts CheckoutOptions) (*Checkout, error) {
	p, err := s.catalog.Get(tier)
	if err != nil {
		return nil, err
	}
	if p.Free() {
		return nil, plan.ErrTierNotPurchasable
	}

	a, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	if a.SubscriptionStatus == account.StatusPending && a.PendingTier.Paid() {
		if a.PendingTier != tier {
			return nil, ErrCheckoutConflict
		}
		if a.HasSubscription() {
			// Same tier requested again: re-drive the link lookup only.
			link, err := s.provider.PendingPaymentLink(ctx, a.ExternalSubscriptionID)
			if err != nil {
				return nil, errors.Join(ErrGatewayFailed, err)
			}
			return &Checkout{
				AccountID:      accountID,
				Tier:           tier,
				SubscriptionID: a.ExternalSubscriptionID,
				PaymentURL:     link,
			}, nil
		}
	}

	customerID := a.ExternalCustomerID
	if customerID == "" {
		customerID, err = s.provider.CreateCustomer(ctx, gateway.CustomerRequest{
			Name:  opts.Name,
			Email: opts.Email,
			Phone: opts.Phone,
			TaxID: opts.TaxID,
		})
		if err != nil {
			return nil, errors.Join(ErrGatewayFailed, err)
		}
	}

	subID, err := s.provider.CreateSubscription(ctx, gateway.SubscriptionRequest{
		CustomerID:  customerID,
		PlanID:      string(tier),
		AmountCents: p.Price.Amount,
		Currency:    p.Price.Currency,
		Cycle:       gateway.CycleMonthly,
		StartDate:   s.now().UTC().AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, errors.Join(ErrGatewayFailed, err)
	}

	link, err := s.provider.PendingPaymentLink(ctx, subID)
	if err != nil {
		// The subscription exists; the link can be re-fetched by retrying
		// StartCheckout once the pending state is persisted below.
		s.log.WarnContext(ctx, "payment link lookup failed after subscription creation",
			"account_id", accountID, "subscription_id", subID, "error", err)
	}

	_, err = s.store.Update(ctx, accountID, func(rec *account.Account) error {
		if rec.ExternalSubscriptionID != "" && rec.ExternalSubscriptionID != subID {
			// A new checkout invalidates the previous pending request.
			s.log.InfoContext(ctx, "replacing prior provider subscription",
				"account_id", accountID,
				"previous_subscription_id", rec.ExternalSubscriptionID,
				"subscription_id", subID,
			)
		}
		if rec.ExternalCustomerID == "" {
			rec.ExternalCustomerID = customerID
		}
		if opts.Email != "" {
			rec.Email = opts.Email
		}
		rec.ExternalSubscriptionID = subID
		rec.PendingTier = tier
		rec.SubscriptionStatus = account.StatusPending
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "checkout started",
		"account_id", accountID, "tier", string(tier), "subscription_id", subID)

	return &Checkout{
		AccountID:      accountID,
		Tier:           tier,
		SubscriptionID: subID,
		PaymentURL:     link,
	}, nil
}

// Cancel deletes the subscription at the gateway and, only once the gateway
// confirmed, applies the terminal transition locally. A gateway failure
// leaves local state untouched and is surfaced for caller-driven retry.
func (s *Service) Cancel(ctx context.Context, accountID uuid.UUID) error {
	a, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return err
	}

	if a.HasSubscription() {
		if err := s.provider.DeleteSubscription(ctx, a.ExternalSubscriptionID); err != nil {
			return errors.Join(ErrGatewayFailed, err)
		}
	}

	now := s.now().UTC()
	canceled, err := s.store.Update(ctx, accountID, func(rec *account.Account) error {
		// The explicit command is authoritative by recency.
		cancelLocally(rec, now)
		return nil
	})
	if err != nil {
		return err
	}

	s.log.InfoContext(ctx, "subscription canceled", "account_id", accountID)
	s.sendNotification(ctx, notify.KindCanceled, canceled)
	return nil
}

// HandleWebhook is the ingestion entry point for provider deliveries.
//
// The shared-secret credential is checked first; failures are permanent and
// the caller must not re-drive them. Everything after authentication is
// acknowledged as success: events for unknown subscriptions, duplicate
// deliveries, and unknown event types are logged and dropped so the provider
// never retries what cannot usefully be retried.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, token string) error {
	if !s.authorized(token) {
		return ErrUnauthorized
	}

	ev, err := ParseEvent(payload, s.now())
	if err != nil {
		return err
	}
	return s.ApplyEvent(ctx, ev)
}

// ApplyEvent runs one normalized event through dedup, correlation, and the
// transition function. Exposed separately so replays from an audit trail can
// bypass transport concerns.
func (s *Service) ApplyEvent(ctx context.Context, ev Event) error {
	logAttrs := []any{
		"event", ev.ProviderEvent,
		"subscription_id", ev.ExternalSubscriptionID,
		"payment_id", ev.PaymentID,
	}

	if ev.ExternalSubscriptionID == "" {
		s.log.InfoContext(ctx, "webhook event without subscription correlation, dropped", logAttrs...)
		return nil
	}

	if ev.PaymentID != "" {
		seen, err := s.dedup.Seen(ctx, ev.ExternalSubscriptionID, ev.dedupKey())
		if err != nil {
			// Transitions are idempotent; losing dedup only costs log noise.
			s.log.WarnContext(ctx, "webhook dedup unavailable, proceeding", append(logAttrs, "error", err)...)
		} else if seen {
			s.log.InfoContext(ctx, "duplicate webhook delivery, dropped", logAttrs...)
			return nil
		}
	}

	a, err := s.store.GetByExternalSubscriptionID(ctx, ev.ExternalSubscriptionID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound) {
			// Not an error to the provider: nothing to retry into existence.
			s.log.InfoContext(ctx, "webhook event for unknown subscription, dropped", logAttrs...)
			return nil
		}
		return err
	}

	var outcome Outcome
	updated, err := s.store.Update(ctx, a.ID, func(rec *account.Account) error {
		outcome = Apply(rec, ev)
		return nil
	})
	if err != nil {
		return err
	}

	if !outcome.Applied {
		s.log.InfoContext(ctx, "webhook event ignored", append(logAttrs, "reason", outcome.Reason)...)
		return nil
	}

	s.log.InfoContext(ctx, "webhook event applied", append(logAttrs,
		"account_id", a.ID,
		"change", string(outcome.Change),
		"status", string(updated.SubscriptionStatus),
		"tier", string(updated.PlanTier),
	)...)

	switch outcome.Change {
	case ChangeActivated:
		s.sendNotification(ctx, notify.KindActivated, updated)
	case ChangeOverdue:
		s.sendNotification(ctx, notify.KindOverdue, updated)
	case ChangeCanceled:
		s.sendNotification(ctx, notify.KindCanceled, updated)
	}
	return nil
}

// GetStatus returns the read model for an account.
func (s *Service) GetStatus(ctx context.Context, accountID uuid.UUID) (StatusSnapshot, error) {
	a, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return StatusSnapshot{}, err
	}
	return StatusSnapshot{
		PlanTier:       a.PlanTier,
		Status:         a.SubscriptionStatus,
		PlanValidUntil: a.PlanValidUntil,
		DaysRemaining:  a.DaysRemainingAt(s.now().UTC()),
	}, nil
}

// PaymentLink returns the payment URL for the account's pending
// subscription. It exists for re-display flows (QR codes, resend links)
// and never creates anything at the provider.
func (s *Service) PaymentLink(ctx context.Context, accountID uuid.UUID) (string, error) {
	a, err := s.store.GetByID(ctx, accountID)
	if err != nil {
		return "", err
	}
	if a.SubscriptionStatus != account.StatusPending || !a.HasSubscription() {
		return "", gateway.ErrNoPaymentLink
	}
	link, err := s.provider.PendingPaymentLink(ctx, a.ExternalSubscriptionID)
	if err != nil {
		return "", errors.Join(ErrGatewayFailed, err)
	}
	return link, nil
}

// authorized compares the inbound credential in constant time.
// An unset token fails closed: every delivery is rejected.
func (s *Service) authorized(token string) bool {
	if s.webhookToken == "" || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(s.webhookToken), []byte(token)) == 1
}

// sendNotification delivers best-effort; failures never affect state.
func (s *Service) sendNotification(ctx context.Context, kind notify.Kind, a *account.Account) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, notify.Notification{
		Kind:      kind,
		AccountID: a.ID,
		Tier:      a.PlanTier,
	}); err != nil {
		s.log.WarnContext(ctx, "billing notification failed",
			"kind", string(kind), "account_id", a.ID, "error", err)
	}
}
