package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RESTConfig holds configuration for the hosted REST billing gateway.
type RESTConfig struct {
	BaseURL string        `env:"BILLING_GATEWAY_URL,required"`
	APIKey  string        `env:"BILLING_GATEWAY_API_KEY,required"`
	Timeout time.Duration `env:"BILLING_GATEWAY_TIMEOUT" envDefault:"15s"`
}

// RESTProvider implements Provider against the gateway's JSON-over-HTTP API:
// customer and subscription resources, pending payments carrying an invoice
// URL, and subscription deletion. Authentication is a static access token
// sent on every request.
type RESTProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRESTProvider creates the REST gateway client.
func NewRESTProvider(cfg RESTConfig) (*RESTProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: BaseURL is required", ErrInvalidConfig)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: APIKey is required", ErrInvalidConfig)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RESTProvider{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

func (p *RESTProvider) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := p.do(ctx, http.MethodPost, "/customers", map[string]any{
		"name":    req.Name,
		"email":   req.Email,
		"phone":   req.Phone,
		"cpfCnpj": req.TaxID,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.Join(ErrUnavailable, errors.New("gateway returned empty customer id"))
	}
	return resp.ID, nil
}

func (p *RESTProvider) CreateSubscription(ctx context.Context, req SubscriptionRequest) (string, error) {
	if req.CustomerID == "" {
		return "", ErrMissingCustomer
	}
	var resp struct {
		ID string `json:"id"`
	}
	err := p.do(ctx, http.MethodPost, "/subscriptions", map[string]any{
		"customer":    req.CustomerID,
		"value":       float64(req.AmountCents) / 100,
		"cycle":       string(req.Cycle),
		"nextDueDate": req.StartDate.Format("2006-01-02"),
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", errors.Join(ErrUnavailable, errors.New("gateway returned empty subscription id"))
	}
	return resp.ID, nil
}

func (p *RESTProvider) PendingPaymentLink(ctx context.Context, subscriptionID string) (string, error) {
	var resp struct {
		Data []struct {
			InvoiceURL string `json:"invoiceUrl"`
		} `json:"data"`
	}
	path := fmt.Sprintf("/subscriptions/%s/payments?status=PENDING", subscriptionID)
	if err := p.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	return resp.Data[0].InvoiceURL, nil
}

func (p *RESTProvider) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	var resp struct {
		Deleted bool `json:"deleted"`
	}
	if err := p.do(ctx, http.MethodDelete, "/subscriptions/"+subscriptionID, nil, &resp); err != nil {
		return err
	}
	if !resp.Deleted {
		return errors.Join(ErrUnavailable, errors.New("gateway did not confirm subscription deletion"))
	}
	return nil
}

// do performs one gateway request. Non-2xx responses become ErrUnavailable
// with the first part of the body attached for diagnostics.
func (p *RESTProvider) do(ctx context.Context, method, path string, body any, out any) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return errors.Join(ErrUnavailable, err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, payload)
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("access_token", p.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return errors.Join(ErrUnavailable,
			fmt.Errorf("gateway responded %d on %s %s: %s", resp.StatusCode, method, path, snippet))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return errors.Join(ErrUnavailable, err)
		}
	}
	return nil
}
