package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/auth"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/checkout"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

type CheckoutService interface {
	Begin(ctx context.Context, p auth.Principal) (checkout.Session, error)
	Get(p auth.Principal) (checkout.Session, error)
	Edit(p auth.Principal, field, value string) (checkout.Session, error)
	Blur(p auth.Principal, field string) (checkout.Session, error)
	Next(p auth.Principal) (checkout.Session, error)
	Back(p auth.Principal) (checkout.Session, error)
	Cancel(p auth.Principal)
	PlaceOrder(ctx context.Context, p auth.Principal) (*models.OrderConfirmation, error)
	Confirmation(ctx context.Context, p auth.Principal, orderNumber string) (*models.OrderConfirmation, error)
}

type CheckoutHandler struct {
	checkoutService CheckoutService
	validator       *validator.Validate
}

func NewCheckoutHandler(checkoutService CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService, validator: validator.New()}
}

// BeginCheckout godoc
//
//	@Summary		Start checkout
//	@Description	Starts checkout at the shipping step, or resumes the caller's checkout. The cart is reloaded first and must not be empty.
//	@Tags			Checkout
//	@Produce		json
//	@Success		200	{object}	checkout.Session		"Checkout session"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		412	{object}	response.ErrorResponse	"Cart is empty"
//	@Failure		502	{object}	response.ErrorResponse	"Storefront unavailable"
//	@Security		BearerAuth
//	@Router			/checkout [post]
func (h *CheckoutHandler) BeginCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		session, err := h.checkoutService.Begin(r.Context(), auth.FromContext(r.Context()))
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, session)
	}
}

// GetCheckout godoc
//
//	@Summary		Get the checkout session
//	@Tags			Checkout
//	@Produce		json
//	@Success		200	{object}	checkout.Session		"Checkout session"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"No checkout in progress"
//	@Security		BearerAuth
//	@Router			/checkout [get]
func (h *CheckoutHandler) GetCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		session, err := h.checkoutService.Get(auth.FromContext(r.Context()))
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, session)
	}
}

// EditField godoc
//
//	@Summary		Edit a checkout field
//	@Description	Stores a field value as typed. Card number and expiry are reformatted; the field's error is cleared.
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			field	body		models.EditFieldRequest	true	"Field and value"
//	@Success		200		{object}	checkout.Session		"Updated session"
//	@Failure		400		{object}	response.ErrorResponse	"Unknown field or value"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse	"No checkout in progress"
//	@Security		BearerAuth
//	@Router			/checkout/fields [patch]
func (h *CheckoutHandler) EditField() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.EditFieldRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		session, err := h.checkoutService.Edit(auth.FromContext(r.Context()), req.Field, req.Value)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, session)
	}
}

// BlurField godoc
//
//	@Summary		Validate a checkout field
//	@Description	Validates one field as it loses focus and records or clears its error.
//	@Tags			Checkout
//	@Accept			json
//	@Produce		json
//	@Param			field	body		models.BlurFieldRequest	true	"Field"
//	@Success		200		{object}	checkout.Session		"Updated session"
//	@Failure		400		{object}	response.ErrorResponse	"Unknown field"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse	"No checkout in progress"
//	@Security		BearerAuth
//	@Router			/checkout/blur [post]
func (h *CheckoutHandler) BlurField() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		var req models.BlurFieldRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			return
		}

		session, err := h.checkoutService.Blur(auth.FromContext(r.Context()), req.Field)
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, session)
	}
}

// NextStep godoc
//
//	@Summary		Continue to payment
//	@Description	Moves from shipping to payment when the address is filled in and the phone number is valid.
//	@Tags			Checkout
//	@Produce		json
//	@Success		200	{object}	checkout.Session		"Session at the payment step"
//	@Failure		400	{object}	response.ErrorResponse	"Shipping fields need correcting"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"No checkout in progress"
//	@Security		BearerAuth
//	@Router			/checkout/next [post]
func (h *CheckoutHandler) NextStep() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		session, err := h.checkoutService.Next(auth.FromContext(r.Context()))
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, session)
	}
}

// PreviousStep godoc
//
//	@Summary		Back to shipping
//	@Tags			Checkout
//	@Produce		json
//	@Success		200	{object}	checkout.Session		"Session at the shipping step"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		404	{object}	response.ErrorResponse	"No checkout in progress"
//	@Security		BearerAuth
//	@Router			/checkout/back [post]
func (h *CheckoutHandler) PreviousStep() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		session, err := h.checkoutService.Back(auth.FromContext(r.Context()))
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, session)
	}
}

// CancelCheckout godoc
//
//	@Summary		Leave checkout
//	@Tags			Checkout
//	@Success		204
//	@Security		BearerAuth
//	@Router			/checkout [delete]
func (h *CheckoutHandler) CancelCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		h.checkoutService.Cancel(auth.FromContext(r.Context()))
		w.WriteHeader(http.StatusNoContent)
	}
}

// PlaceOrder godoc
//
//	@Summary		Place the order
//	@Description	Submits the order with totals computed from the live cart. Card details are validated here and never sent to the order endpoint. On failure the checkout stays at the payment step.
//	@Tags			Checkout
//	@Produce		json
//	@Success		201	{object}	models.OrderConfirmation	"Order placed"
//	@Failure		400	{object}	response.ErrorResponse		"Payment fields need correcting"
//	@Failure		401	{object}	response.ErrorResponse		"Authentication required"
//	@Failure		409	{object}	response.ErrorResponse		"Order already being placed"
//	@Failure		412	{object}	response.ErrorResponse		"Not at the payment step or cart empty"
//	@Failure		429	{object}	response.ErrorResponse		"Too many attempts"
//	@Failure		502	{object}	response.ErrorResponse		"Order rejected by the storefront"
//	@Security		BearerAuth
//	@Router			/checkout/orders [post]
func (h *CheckoutHandler) PlaceOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())

		confirmation, err := h.checkoutService.PlaceOrder(r.Context(), auth.FromContext(r.Context()))
		if err != nil {
			logger.Warn("Order not placed", slog.String("error", err.Error()))
			response.Error(w, err)
			return
		}

		logger.Info("Order placed", slog.String("orderNumber", confirmation.OrderNumber))
		response.SuccessWithMessage(w, http.StatusCreated, "Your order has been placed", confirmation)
	}
}

// GetConfirmation godoc
//
//	@Summary		Get an order confirmation
//	@Tags			Checkout
//	@Produce		json
//	@Param			orderNumber	path		string						true	"Order number"
//	@Success		200			{object}	models.OrderConfirmation	"Confirmation"
//	@Failure		401			{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404			{object}	response.ErrorResponse		"Confirmation not found"
//	@Security		BearerAuth
//	@Router			/orders/{orderNumber}/confirmation [get]
func (h *CheckoutHandler) GetConfirmation() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		confirmation, err := h.checkoutService.Confirmation(r.Context(), auth.FromContext(r.Context()), r.PathValue("orderNumber"))
		if err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, confirmation)
	}
}
