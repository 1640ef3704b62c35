package api_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/cart"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/checkout"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/config"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/testutils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtKey = []byte("router-test-key-0123456789abcdef")

type apiClient struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func (c *apiClient) do(method, path string, body any) (int, map[string]any) {
	c.t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, c.server.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if len(raw) > 0 && resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(c.t, json.Unmarshal(raw, &decoded))
	}

	return resp.StatusCode, decoded
}

func newServer(t *testing.T) (*httptest.Server, *testutils.FakeStorefront) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	remote := testutils.NewFakeStorefront()
	remote.Stock("kurta", 1250, 5)
	remote.Stock("shawl", 3000, 5)

	registry := cart.NewRegistry(remote, config.Cart{}, logger)
	t.Cleanup(registry.Close)

	service := checkout.NewService(checkout.Dependencies{
		Carts:   registry,
		Gateway: remote,
		Logger:  logger,
	})

	router := api.Router{
		Auth:     middleware.NewAuthMiddleware(jwtKey),
		Cart:     handlers.NewCartHandler(registry),
		Checkout: handlers.NewCheckoutHandler(service),
		Session:  handlers.NewSessionHandler(registry, service),
	}

	server := httptest.NewServer(router.Handler("storefront-checkout"))
	t.Cleanup(server.Close)

	return server, remote
}

func signedToken(t *testing.T) string {
	t.Helper()

	claims := &models.Claims{
		UserID: uuid.New(),
		Email:  "shopper@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(jwtKey)
	require.NoError(t, err)

	return token
}

func data(body map[string]any) map[string]any {
	d, _ := body["data"].(map[string]any)
	return d
}

func TestCheckoutFlow(t *testing.T) {
	server, remote := newServer(t)
	client := &apiClient{t: t, server: server, token: signedToken(t)}

	status, body := client.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": "kurta", "quantity": 2})
	require.Equal(t, http.StatusOK, status, body)

	status, body = client.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": "shawl"})
	require.Equal(t, http.StatusOK, status, body)
	totals := data(body)["totals"].(map[string]any)
	assert.Equal(t, 5500.0, totals["subtotal"])
	assert.Equal(t, 0.0, totals["shippingCost"])

	status, body = client.do(http.MethodPost, "/api/v1/checkout", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "shipping", data(body)["step"])

	for field, value := range map[string]string{
		"shippingAddress": "House 1, Street 2, Lahore",
		"shippingPhone":   "12345",
	} {
		status, _ = client.do(http.MethodPatch, "/api/v1/checkout/fields", map[string]string{"field": field, "value": value})
		require.Equal(t, http.StatusOK, status)
	}

	status, body = client.do(http.MethodPost, "/api/v1/checkout/next", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = client.do(http.MethodPatch, "/api/v1/checkout/fields", map[string]string{"field": "shippingPhone", "value": "+92-300-1234567"})
	require.Equal(t, http.StatusOK, status)

	status, body = client.do(http.MethodPost, "/api/v1/checkout/next", nil)
	require.Equal(t, http.StatusOK, status, body)
	assert.Equal(t, "payment", data(body)["step"])

	status, body = client.do(http.MethodPost, "/api/v1/checkout/orders", nil)
	require.Equal(t, http.StatusCreated, status, body)
	confirmation := data(body)
	assert.Equal(t, "ORD-0001", confirmation["orderNumber"])
	assert.Equal(t, 5940.0, confirmation["grandTotal"])
	assert.Equal(t, 1, remote.Orders())

	// The session is gone and the cart was emptied by the storefront.
	status, _ = client.do(http.MethodGet, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, body = client.do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, data(body)["items"])
}

func TestAnonymousCaller(t *testing.T) {
	server, remote := newServer(t)
	client := &apiClient{t: t, server: server}

	status, _ := client.do(http.MethodPost, "/api/v1/cart/items", map[string]any{"productId": "kurta"})
	assert.Equal(t, http.StatusUnauthorized, status)

	status, _ = client.do(http.MethodPost, "/api/v1/checkout", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	assert.Equal(t, 0, remote.Orders())
}

func TestInfrastructureRoutes(t *testing.T) {
	server, _ := newServer(t)
	client := &apiClient{t: t, server: server}

	req, err := http.NewRequest(http.MethodGet, server.URL+"/metrics", nil)
	require.NoError(t, err)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	status, _ := client.do(http.MethodGet, "/api/v1/unknown", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = client.do(http.MethodPost, "/api/v1/session/end", nil)
	assert.Equal(t, http.StatusNoContent, status)
}
