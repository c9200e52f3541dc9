package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds configuration for the Paddle billing provider.
// PriceIDs maps internal tier names to Paddle catalog price ids, e.g.
// PADDLE_PRICE_IDS="pro:pri_01abc,premium:pri_01def".
type PaddleConfig struct {
	APIKey      string            `env:"PADDLE_API_KEY,required"`
	Environment string            `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
	PriceIDs    map[string]string `env:"PADDLE_PRICE_IDS" envSeparator:","`
}

// PaddleProvider implements Provider on top of the Paddle SDK. Paddle has no
// server-side subscription creation: a catalog transaction is opened instead
// and the hosted checkout URL doubles as the pending payment link; the real
// subscription id arrives later via webhook and replaces the transaction id
// on the account record.
type PaddleProvider struct {
	client   *paddle.SDK
	priceIDs map[string]string
}

// NewPaddleProvider creates a new Paddle gateway provider.
func NewPaddleProvider(cfg PaddleConfig) (*PaddleProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: paddle API key is required", ErrInvalidConfig)
	}

	var client *paddle.SDK
	var err error

	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		return nil, fmt.Errorf("%w: invalid paddle environment: %s", ErrInvalidConfig, cfg.Environment)
	}
	if err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}

	return &PaddleProvider{
		client:   client,
		priceIDs: cfg.PriceIDs,
	}, nil
}

func (p *PaddleProvider) CreateCustomer(ctx context.Context, req CustomerRequest) (string, error) {
	customer, err := p.client.CustomersClient.CreateCustomer(ctx, &paddle.CreateCustomerRequest{
		Email: req.Email,
		Name:  paddle.PtrTo(req.Name),
	})
	if err != nil {
		return "", errors.Join(ErrUnavailable, err)
	}
	return customer.ID, nil
}

func (p *PaddleProvider) CreateSubscription(ctx context.Context, req SubscriptionRequest) (string, error) {
	if req.CustomerID == "" {
		return "", ErrMissingCustomer
	}
	priceID, ok := p.priceIDs[req.PlanID]
	if !ok {
		return "", fmt.Errorf("%w: no paddle price mapped for plan %q", ErrInvalidConfig, req.PlanID)
	}

	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  priceID,
		Quantity: 1,
	})

	transaction, err := p.client.TransactionsClient.CreateTransaction(ctx, &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"customer_id": req.CustomerID,
			"plan":        req.PlanID,
		},
	})
	if err != nil {
		return "", errors.Join(ErrUnavailable, err)
	}
	return transaction.ID, nil
}

func (p *PaddleProvider) PendingPaymentLink(ctx context.Context, subscriptionID string) (string, error) {
	transaction, err := p.client.TransactionsClient.GetTransaction(ctx, &paddle.GetTransactionRequest{
		TransactionID: subscriptionID,
	})
	if err != nil {
		return "", errors.Join(ErrUnavailable, err)
	}
	if transaction.Checkout == nil || transaction.Checkout.URL == nil {
		return "", nil
	}
	return *transaction.Checkout.URL, nil
}

func (p *PaddleProvider) DeleteSubscription(ctx context.Context, subscriptionID string) error {
	_, err := p.client.SubscriptionsClient.CancelSubscription(ctx, &paddle.CancelSubscriptionRequest{
		SubscriptionID: subscriptionID,
	})
	if err != nil {
		return errors.Join(ErrUnavailable, err)
	}
	return nil
}
