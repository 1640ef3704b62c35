package handlers

import (
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/auth"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/cart"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/utils/response"
	"github.com/go-playground/validator/v10"
)

// Carts hands out the live cart aggregate for the caller.
type Carts interface {
	Acquire(p auth.Principal) *cart.Aggregate
}

type CartHandler struct {
	carts     Carts
	validator *validator.Validate
}

func NewCartHandler(carts Carts) *CartHandler {
	return &CartHandler{
		carts:     carts,
		validator: validator.New(),
	}
}

// GetCart godoc
//
//	@Summary		Get the cart
//	@Description	Returns the caller's cart with per-item totals, drift notices and the order summary. The cart is loaded from the storefront on first use.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	cart.View				"Current cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		502	{object}	response.ErrorResponse	"Storefront unavailable"
//	@Security		BearerAuth
//	@Router			/cart [get]
func (h *CartHandler) GetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		aggregate := h.carts.Acquire(auth.FromContext(r.Context()))

		if !aggregate.View().Loaded {
			if err := aggregate.Refresh(r.Context()); err != nil {
				response.Error(w, err)
				return
			}
		}

		response.Success(w, http.StatusOK, aggregate.View())
	}
}

// RefreshCart godoc
//
//	@Summary		Reload the cart
//	@Description	Re-reads the cart from the storefront, replacing the local copy.
//	@Tags			Cart
//	@Produce		json
//	@Success		200	{object}	cart.View				"Reloaded cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		502	{object}	response.ErrorResponse	"Storefront unavailable"
//	@Security		BearerAuth
//	@Router			/cart/refresh [post]
func (h *CartHandler) RefreshCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		aggregate := h.carts.Acquire(auth.FromContext(r.Context()))

		if err := aggregate.Refresh(r.Context()); err != nil {
			response.Error(w, err)
			return
		}

		response.Success(w, http.StatusOK, aggregate.View())
	}
}

// AddItem godoc
//
//	@Summary		Add an item
//	@Description	Adds a product to the cart. Quantity defaults to 1.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			item	body		models.AddItemRequest	true	"Product to add"
//	@Success		200		{object}	cart.View				"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse	"Validation error"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		409		{object}	response.ErrorResponse	"The same product is already being added"
//	@Failure		502		{object}	response.ErrorResponse	"Storefront rejected the change"
//	@Security		BearerAuth
//	@Router			/cart/items [post]
func (h *CartHandler) AddItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		aggregate := h.carts.Acquire(auth.FromContext(r.Context()))

		var req models.AddItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid add item input")
			return
		}

		if err := aggregate.AddItem(r.Context(), req.ProductID, req.Quantity, req.Customization); err != nil {
			response.Error(w, err)
			return
		}

		logger.Info("Item added to cart", slog.String("productId", req.ProductID))
		response.SuccessWithMessage(w, http.StatusOK, "Item added to your cart", aggregate.View())
	}
}

// UpdateItem godoc
//
//	@Summary		Change an item
//	@Description	Sets the quantity and/or the customization of a line item. A quantity of zero or less removes the item; a quantity above stock is refused.
//	@Tags			Cart
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string						true	"Line item ID"
//	@Param			item	body		models.UpdateItemRequest	true	"New quantity and/or customization"
//	@Success		200		{object}	cart.View					"Updated cart"
//	@Failure		400		{object}	response.ErrorResponse		"Validation error or quantity above stock"
//	@Failure		401		{object}	response.ErrorResponse		"Authentication required"
//	@Failure		404		{object}	response.ErrorResponse		"Item not in cart"
//	@Failure		409		{object}	response.ErrorResponse		"The item already has a change in progress"
//	@Failure		502		{object}	response.ErrorResponse		"Storefront rejected the change"
//	@Security		BearerAuth
//	@Router			/cart/items/{id} [put]
func (h *CartHandler) UpdateItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		logger := middleware.LoggerFromContext(r.Context())
		aggregate := h.carts.Acquire(auth.FromContext(r.Context()))
		itemID := r.PathValue("id")

		var req models.UpdateItemRequest
		if !utils.ParseAndValidate(r, w, &req, h.validator) {
			logger.Warn("Invalid update item input")
			return
		}

		if req.Quantity == nil && req.Customization == nil {
			response.Error(w, errors.ValidationError("Nothing to update").
				WithFields(map[string]string{"quantity": "quantity or customization is required"}))
			return
		}

		if req.Customization != nil {
			if err := aggregate.UpdateCustomization(r.Context(), itemID, req.Customization); err != nil {
				response.Error(w, err)
				return
			}
		}

		if req.Quantity != nil {
			if err := aggregate.UpdateQuantity(r.Context(), itemID, *req.Quantity); err != nil {
				response.Error(w, err)
				return
			}
		}

		response.Success(w, http.StatusOK, aggregate.View())
	}
}

// RemoveItem godoc
//
//	@Summary		Remove an item
//	@Tags			Cart
//	@Produce		json
//	@Param			id	path		string					true	"Line item ID"
//	@Success		200	{object}	cart.View				"Updated cart"
//	@Failure		401	{object}	response.ErrorResponse	"Authentication required"
//	@Failure		409	{object}	response.ErrorResponse	"The item already has a change in progress"
//	@Failure		502	{object}	response.ErrorResponse	"Storefront rejected the change"
//	@Security		BearerAuth
//	@Router			/cart/items/{id} [delete]
func (h *CartHandler) RemoveItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		aggregate := h.carts.Acquire(auth.FromContext(r.Context()))

		if err := aggregate.RemoveItem(r.Context(), r.PathValue("id")); err != nil {
			response.Error(w, err)
			return
		}

		response.SuccessWithMessage(w, http.StatusOK, "Item removed from your cart", aggregate.View())
	}
}

// ClearCart godoc
//
//	@Summary		Empty the cart
//	@Description	Removes every item. The shopper's confirmation must be passed as confirm=true.
//	@Tags			Cart
//	@Produce		json
//	@Param			confirm	query		bool					true	"Shopper confirmed"
//	@Success		200		{object}	cart.View				"Empty cart"
//	@Failure		401		{object}	response.ErrorResponse	"Authentication required"
//	@Failure		412		{object}	response.ErrorResponse	"Confirmation missing"
//	@Failure		502		{object}	response.ErrorResponse	"Storefront rejected the change"
//	@Security		BearerAuth
//	@Router			/cart [delete]
func (h *CartHandler) ClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		aggregate := h.carts.Acquire(auth.FromContext(r.Context()))

		if r.URL.Query().Get("confirm") != "true" {
			response.Error(w, errors.PreconditionFailedError("Please confirm that you want to empty your cart"))
			return
		}

		if err := aggregate.Clear(r.Context()); err != nil {
			response.Error(w, err)
			return
		}

		middleware.LoggerFromContext(r.Context()).Info("Cart cleared")
		response.SuccessWithMessage(w, http.StatusOK, "Your cart is now empty", aggregate.View())
	}
}
