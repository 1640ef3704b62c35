// Package storefront is the HTTP client for the remote cart and order
// service, the single source of truth for cart contents and orders.
package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/auth"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Client talks to the storefront REST API. The bearer token is taken from
// the auth.Principal in the request context.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	maxRetries    uint64
	retryInterval time.Duration
	logger        *slog.Logger
}

func NewClient(cfg config.Storefront, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		logger:        logger,
	}
}

// Error is a failed call: a transport failure, a non-2xx status or an
// envelope with success=false. All three are treated alike by callers.
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error

	// transport is set when the request never produced a complete response.
	transport bool
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("storefront %s: %v", e.Op, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("storefront %s: status %d: %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("storefront %s: %s", e.Op, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// UserMessage is the server's message when it sent one.
func (e *Error) UserMessage() string {
	return e.Message
}

func (e *Error) retryable() bool {
	return e.transport || e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// UserMessage extracts the remote message from err, or returns fallback.
func UserMessage(err error, fallback string) string {
	var sfErr *Error
	if errors.As(err, &sfErr) && sfErr.Message != "" {
		return sfErr.Message
	}

	return fallback
}

type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message,omitempty"`
	Data       json.RawMessage `json:"data"`
	Pagination json.RawMessage `json:"pagination,omitempty"`
}

// GetCart reads the authoritative cart. Transient failures are retried.
func (c *Client) GetCart(ctx context.Context) (*models.CartSnapshot, error) {
	var payload cartPayload

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval

	operation := func() error {
		err := c.do(ctx, "get cart", http.MethodGet, "/cart", nil, &payload)
		if err == nil {
			return nil
		}

		var sfErr *Error
		if errors.As(err, &sfErr) && sfErr.retryable() && ctx.Err() == nil {
			c.logger.Debug("Retrying cart read", slog.String("error", err.Error()))
			return err
		}

		return backoff.Permanent(err)
	}

	if err := backoff.Retry(operation, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx)); err != nil {
		return nil, err
	}

	return payload.snapshot(), nil
}

func (c *Client) AddItem(ctx context.Context, req models.AddItemRequest) error {
	return c.do(ctx, "add item", http.MethodPost, "/cart", req, nil)
}

func (c *Client) UpdateItem(ctx context.Context, itemID string, req models.UpdateItemRequest) error {
	return c.do(ctx, "update item", http.MethodPut, "/cart/"+url.PathEscape(itemID), req, nil)
}

func (c *Client) RemoveItem(ctx context.Context, itemID string) error {
	return c.do(ctx, "remove item", http.MethodDelete, "/cart/"+url.PathEscape(itemID), nil, nil)
}

func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, "clear cart", http.MethodDelete, "/cart", nil, nil)
}

// PlaceOrder submits a finalized checkout. It is never retried: a repeated
// POST could create a second order.
func (c *Client) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.PlacedOrder, error) {
	var payload orderPayload

	if err := c.do(ctx, "place order", http.MethodPost, "/orders", req, &payload); err != nil {
		return nil, err
	}

	if payload.OrderNumber == "" {
		return nil, &Error{Op: "place order", Message: "order response did not include an order number"}
	}

	return payload.order(), nil
}

// Ping checks that the storefront answers at all; anything below 500 counts.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, c.baseURL, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("storefront returned %d", resp.StatusCode)
	}

	return nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader

	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Err: fmt.Errorf("encoding request: %w", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Op: op, Err: err}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := auth.FromContext(ctx).Token; token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Storefront request failed", slog.String("op", op), slog.String("error", err.Error()))
		return &Error{Op: op, Err: err, transport: true}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("reading response: %w", err), transport: true}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &Error{Op: op, StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		}
		return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding envelope: %w", err)}
	}

	if resp.StatusCode >= http.StatusBadRequest || !env.Success {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("Storefront rejected request",
			slog.String("op", op),
			slog.Int("status", resp.StatusCode),
			slog.String("message", msg),
		)
		return &Error{Op: op, StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(env.Data) > 0 && string(env.Data) != "null" {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &Error{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decoding data: %w", err)}
		}
	}

	return nil
}
