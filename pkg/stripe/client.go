package stripe

import (
	"context"
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
)

type PaymentIntent = stripe.PaymentIntent

// PaymentIntentRequest describes the charge for one placed order.
type PaymentIntentRequest struct {
	Amount       int64
	Currency     string
	Description  string
	OrderNumber  string
	ReceiptEmail string
	Metadata     map[string]string
}

// defines the methods that any of payment client must implement.
type Client interface {
	CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error)
	Ping(ctx context.Context) error
}

type stripeClient struct {
	api *client.API
}

type Option func(*stripe.BackendConfig)

// WithBaseURL points the client at another API host, e.g. a test server.
func WithBaseURL(url string) Option {
	return func(cfg *stripe.BackendConfig) {
		cfg.URL = stripe.String(url)
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(cfg *stripe.BackendConfig) {
		cfg.HTTPClient = httpClient
	}
}

func NewStripeClient(apiKey string, opts ...Option) Client {
	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(1),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	api := &client.API{}
	api.Init(apiKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, cfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, cfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, cfg),
	})

	return &stripeClient{api: api}
}

// PaymentIntent == "planned payment" for an order that is waiting for payment.
// The order number is the idempotency key, so a retried call never creates
// a second intent for the same order.
func (s *stripeClient) CreatePaymentIntent(ctx context.Context, req PaymentIntentRequest) (*PaymentIntent, error) {
	if req.Amount <= 0 {
		return nil, errors.New("payment intent amount must be positive")
	}

	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount),
		Currency:    stripe.String(req.Currency),
		Description: stripe.String(req.Description),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx

	if req.ReceiptEmail != "" {
		params.ReceiptEmail = stripe.String(req.ReceiptEmail)
	}

	if req.OrderNumber != "" {
		params.AddMetadata("order_number", req.OrderNumber)
		params.SetIdempotencyKey("order-" + req.OrderNumber)
	}

	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	return s.api.PaymentIntents.New(params)
}

// Ping reads the account balance, which any valid key may do.
func (s *stripeClient) Ping(ctx context.Context) error {
	params := &stripe.BalanceParams{}
	params.Context = ctx

	_, err := s.api.Balance.Get(params)

	return err
}
