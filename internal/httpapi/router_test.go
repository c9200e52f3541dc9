package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liguepro/billing/internal/httpapi"
	"github.com/liguepro/billing/pkg/account"
	"github.com/liguepro/billing/pkg/entitlement"
	"github.com/liguepro/billing/pkg/gateway"
	"github.com/liguepro/billing/pkg/plan"
	"github.com/liguepro/billing/pkg/quota"
	"github.com/liguepro/billing/pkg/subscription"
)

const webhookToken = "whsec_test"

// stubProvider is a canned gateway: every checkout succeeds with fixed ids.
type stubProvider struct {
	deleteErr error
}

func (s *stubProvider) CreateCustomer(ctx context.Context, req gateway.CustomerRequest) (string, error) {
	return "cus_1", nil
}

func (s *stubProvider) CreateSubscription(ctx context.Context, req gateway.SubscriptionRequest) (string, error) {
	return "sub_1", nil
}

func (s *stubProvider) PendingPaymentLink(ctx context.Context, subscriptionID string) (string, error) {
	return "https://pay.example.com/inv_1", nil
}

func (s *stubProvider) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	return s.deleteErr
}

type apiFixture struct {
	store   *account.MemoryStore
	handler http.Handler
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()

	catalog, err := plan.NewCatalog(context.Background(), plan.DefaultSource())
	require.NoError(t, err)

	store := account.NewMemoryStore()
	counter := quota.NewCounter(store)
	gate := entitlement.NewGate(catalog, store, counter)
	svc := subscription.NewService(store, catalog, &stubProvider{},
		subscription.WithWebhookToken(webhookToken),
	)

	return &apiFixture{
		store: store,
		handler: httpapi.NewRouter(httpapi.Deps{
			Subscriptions: svc,
			Entitlements:  gate,
		}),
	}
}

func (f *apiFixture) createAccount(t *testing.T) uuid.UUID {
	t.Helper()
	a := account.New(uuid.New())
	require.NoError(t, f.store.Create(context.Background(), a))
	return a.ID
}

func (f *apiFixture) do(t *testing.T, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	var reqBody *strings.Reader
	if body == "" {
		reqBody = strings.NewReader("")
	} else {
		reqBody = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reqBody)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Checkout(t *testing.T) {
	t.Parallel()

	t.Run("starts checkout", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		id := f.createAccount(t)

		rec := f.do(t, http.MethodPost, "/accounts/"+id.String()+"/billing/checkout",
			`{"tier":"pro","name":"Maria","email":"maria@example.com","taxId":"12345678909"}`, nil)

		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		var resp struct {
			Tier           string `json:"tier"`
			SubscriptionID string `json:"subscriptionId"`
			PaymentURL     string `json:"paymentUrl"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, "pro", resp.Tier)
		assert.Equal(t, "sub_1", resp.SubscriptionID)
		assert.Equal(t, "https://pay.example.com/inv_1", resp.PaymentURL)
	})

	t.Run("invalid tier answers 422", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		id := f.createAccount(t)

		rec := f.do(t, http.MethodPost, "/accounts/"+id.String()+"/billing/checkout",
			`{"tier":"gold"}`, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("free tier answers 422", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		id := f.createAccount(t)

		rec := f.do(t, http.MethodPost, "/accounts/"+id.String()+"/billing/checkout",
			`{"tier":"free"}`, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("conflicting tier answers 409", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		id := f.createAccount(t)

		rec := f.do(t, http.MethodPost, "/accounts/"+id.String()+"/billing/checkout", `{"tier":"pro"}`, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = f.do(t, http.MethodPost, "/accounts/"+id.String()+"/billing/checkout", `{"tier":"premium"}`, nil)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("unknown account answers 404", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		rec := f.do(t, http.MethodPost, "/accounts/"+uuid.NewString()+"/billing/checkout", `{"tier":"pro"}`, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed account id answers 400", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		rec := f.do(t, http.MethodPost, "/accounts/not-a-uuid/billing/checkout", `{"tier":"pro"}`, nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_CheckoutQR(t *testing.T) {
	t.Parallel()

	t.Run("pending checkout renders a png", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		id := f.createAccount(t)
		rec := f.do(t, http.MethodPost, "/accounts/"+id.String()+"/billing/checkout", `{"tier":"pro"}`, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = f.do(t, http.MethodGet, "/accounts/"+id.String()+"/billing/checkout/qr", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Equal(t, "\x89PNG", rec.Body.String()[:4])
	})

	t.Run("no pending checkout answers 404", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		id := f.createAccount(t)
		rec := f.do(t, http.MethodGet, "/accounts/"+id.String()+"/billing/checkout/qr", "", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRouter_Cancel(t *testing.T) {
	t.Parallel()

	f := newAPI(t)
	id := f.createAccount(t)
	rec := f.do(t, http.MethodPost, "/accounts/"+id.String()+"/billing/checkout", `{"tier":"pro"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = f.do(t, http.MethodPost, "/accounts/"+id.String()+"/billing/cancel", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	a, err := f.store.GetByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, account.StatusCanceled, a.SubscriptionStatus)
}

func TestRouter_Webhook(t *testing.T) {
	t.Parallel()

	confirmed := `{"event":"PAYMENT_CONFIRMED","payment":{"id":"pay_1","subscription":"sub_1"}}`

	t.Run("missing token answers 401", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		rec := f.do(t, http.MethodPost, "/webhooks/billing", confirmed, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("activates pending account", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		id := f.createAccount(t)
		rec := f.do(t, http.MethodPost, "/accounts/"+id.String()+"/billing/checkout", `{"tier":"pro"}`, nil)
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = f.do(t, http.MethodPost, "/webhooks/billing", confirmed,
			http.Header{"X-Webhook-Token": []string{webhookToken}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		a, err := f.store.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, account.StatusActive, a.SubscriptionStatus)
		assert.Equal(t, plan.TierPro, a.PlanTier)
	})

	t.Run("unknown subscription still answers 200", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		rec := f.do(t, http.MethodPost, "/webhooks/billing", confirmed,
			http.Header{"X-Webhook-Token": []string{webhookToken}})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("malformed payload answers 422", func(t *testing.T) {
		t.Parallel()
		f := newAPI(t)
		rec := f.do(t, http.MethodPost, "/webhooks/billing", `{`,
			http.Header{"X-Webhook-Token": []string{webhookToken}})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

func TestRouter_StatusAndUsage(t *testing.T) {
	t.Parallel()

	f := newAPI(t)
	id := f.createAccount(t)

	rec := f.do(t, http.MethodGet, "/accounts/"+id.String()+"/billing/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var status struct {
		Tier         string `json:"tier"`
		Status       string `json:"status"`
		Entitlements struct {
			MaxLeadsPerMonth int64 `json:"MaxLeadsPerMonth"`
		} `json:"entitlements"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "free", status.Tier)
	assert.Equal(t, "none", status.Status)

	rec = f.do(t, http.MethodGet, "/accounts/"+id.String()+"/billing/usage", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var usage struct {
		Period    string `json:"period"`
		LeadsUsed int64  `json:"leadsUsed"`
		LeadLimit int64  `json:"leadLimit"`
		Unlimited bool   `json:"unlimited"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usage))
	assert.Equal(t, quota.PeriodToken(time.Now()), usage.Period)
	assert.Zero(t, usage.LeadsUsed)
	assert.Equal(t, int64(3), usage.LeadLimit)
	assert.False(t, usage.Unlimited)
}

func TestRequireEntitlement(t *testing.T) {
	t.Parallel()

	catalog, err := plan.NewCatalog(context.Background(), plan.DefaultSource())
	require.NoError(t, err)
	store := account.NewMemoryStore()
	gate := entitlement.NewGate(catalog, store, quota.NewCounter(store))

	free := account.New(uuid.New())
	require.NoError(t, store.Create(context.Background(), free))

	premium := account.New(uuid.New())
	premium.PlanTier = plan.TierPremium
	premium.SubscriptionStatus = account.StatusActive
	until := time.Now().Add(10 * 24 * time.Hour)
	premium.PlanValidUntil = &until
	require.NoError(t, store.Create(context.Background(), premium))

	r := chi.NewRouter()
	r.Route("/accounts/{accountID}", func(r chi.Router) {
		r.With(httpapi.RequireEntitlement(gate, entitlement.FeatureTop10, nil)).
			Get("/top10", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})
	})
	handler := r

	t.Run("premium passes", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/accounts/"+premium.ID.String()+"/top10", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})

	t.Run("free is blocked with 403", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/accounts/"+free.ID.String()+"/top10", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("unknown account answers 404", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/accounts/"+uuid.NewString()+"/top10", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
