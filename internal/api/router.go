// Package api assembles the engine's HTTP surface.
package api

import (
	"net/http"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/handlers"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/metrics"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Router struct {
	Auth     *middleware.AuthMiddleware
	Cart     *handlers.CartHandler
	Checkout *handlers.CheckoutHandler
	Session  *handlers.SessionHandler
	// Health is optional.
	Health http.Handler
}

// Handler registers every route and wraps the mux with tracing, logging and
// metrics. Metrics sits directly on the mux so it can read the matched pattern.
func (rt Router) Handler(serviceName string) http.Handler {
	mux := http.NewServeMux()
	authed := rt.Auth.Authenticate

	mux.HandleFunc("GET /api/v1/cart", authed(rt.Cart.GetCart()))
	mux.HandleFunc("DELETE /api/v1/cart", authed(rt.Cart.ClearCart()))
	mux.HandleFunc("POST /api/v1/cart/refresh", authed(rt.Cart.RefreshCart()))
	mux.HandleFunc("POST /api/v1/cart/items", authed(rt.Cart.AddItem()))
	mux.HandleFunc("PUT /api/v1/cart/items/{id}", authed(rt.Cart.UpdateItem()))
	mux.HandleFunc("DELETE /api/v1/cart/items/{id}", authed(rt.Cart.RemoveItem()))

	mux.HandleFunc("POST /api/v1/checkout", authed(rt.Checkout.BeginCheckout()))
	mux.HandleFunc("GET /api/v1/checkout", authed(rt.Checkout.GetCheckout()))
	mux.HandleFunc("DELETE /api/v1/checkout", authed(rt.Checkout.CancelCheckout()))
	mux.HandleFunc("PATCH /api/v1/checkout/fields", authed(rt.Checkout.EditField()))
	mux.HandleFunc("POST /api/v1/checkout/blur", authed(rt.Checkout.BlurField()))
	mux.HandleFunc("POST /api/v1/checkout/next", authed(rt.Checkout.NextStep()))
	mux.HandleFunc("POST /api/v1/checkout/back", authed(rt.Checkout.PreviousStep()))
	mux.HandleFunc("POST /api/v1/checkout/orders", authed(rt.Checkout.PlaceOrder()))
	mux.HandleFunc("GET /api/v1/orders/{orderNumber}/confirmation", authed(rt.Checkout.GetConfirmation()))

	mux.HandleFunc("POST /api/v1/session/end", authed(rt.Session.EndSession()))

	mux.Handle("GET /metrics", metrics.Handler())
	if rt.Health != nil {
		mux.Handle("GET /health", rt.Health)
	}

	// Middleware chaining
	var handler http.Handler = mux
	handler = metrics.Middleware(handler)
	handler = middleware.Logging(handler)
	handler = otelhttp.NewHandler(handler, serviceName)

	return handler
}
