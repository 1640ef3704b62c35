// Package cart keeps a principal's view of the remote cart.
//
// The Aggregate is a projection of the last successful read from the
// storefront. Mutations are sent to the storefront and followed by a fresh
// read that replaces the items wholesale; nothing is patched locally.
package cart

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/auth"
	appErrors "github.com/aaravmahajanofficial/storefront-checkout/internal/errors"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/metrics"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/storefront"
)

// API is the slice of the storefront client the aggregate needs.
type API interface {
	GetCart(ctx context.Context) (*models.CartSnapshot, error)
	AddItem(ctx context.Context, req models.AddItemRequest) error
	UpdateItem(ctx context.Context, itemID string, req models.UpdateItemRequest) error
	RemoveItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
}

const (
	triggerMutation = "mutation"
	triggerPoll     = "poll"
	triggerExplicit = "explicit"

	clearKey = "*"
)

type Aggregate struct {
	api    API
	logger *slog.Logger

	mu          sync.Mutex
	principal   auth.Principal
	items       []models.LineItem
	loaded      bool
	refreshedAt time.Time
	inFlight    map[string]struct{}
	closed      bool
	stopPolling context.CancelFunc
}

// New creates an empty aggregate. Every operation is refused without a
// network call unless principal is authenticated.
func New(principal auth.Principal, api API, logger *slog.Logger) *Aggregate {
	if logger == nil {
		logger = slog.Default()
	}

	return &Aggregate{
		api:       api,
		logger:    logger.With(slog.String("subject", principal.Subject)),
		principal: principal,
		inFlight:  make(map[string]struct{}),
	}
}

func (a *Aggregate) AddItem(ctx context.Context, productID string, quantity int, customization map[string]string) error {
	if err := a.authorize("add item"); err != nil {
		return err
	}

	if productID == "" {
		return appErrors.AddValidationError("productId", "is required")
	}

	if quantity == 0 {
		quantity = 1
	}

	if quantity < 0 {
		return appErrors.AddValidationError("quantity", "must be at least 1")
	}

	release, err := a.begin("product:" + productID)
	if err != nil {
		return err
	}
	defer release()

	err = a.api.AddItem(a.remoteContext(ctx), models.AddItemRequest{
		ProductID:     productID,
		Quantity:      quantity,
		Customization: customization,
	})
	metrics.RecordCartMutation("add", err)

	if err != nil {
		a.logger.Warn("Failed to add item to cart", slog.String("productId", productID), slog.String("error", err.Error()))
		return remoteError(err, "Could not add the item to your cart")
	}

	return a.refreshAfterMutation(ctx)
}

// UpdateQuantity sets an item's quantity. Zero or less removes the item.
// Quantities above the stock snapshot are refused without a network call.
func (a *Aggregate) UpdateQuantity(ctx context.Context, itemID string, quantity int) error {
	if err := a.authorize("update quantity"); err != nil {
		return err
	}

	if quantity <= 0 {
		return a.RemoveItem(ctx, itemID)
	}

	item, err := a.lookup(ctx, itemID)
	if err != nil {
		return err
	}

	if quantity > item.UnitStock {
		return appErrors.ValidationError(fmt.Sprintf("Only %d left in stock", item.UnitStock)).
			WithFields(map[string]string{"quantity": fmt.Sprintf("must not exceed %d", item.UnitStock)})
	}

	return a.mutateItem(ctx, "update", itemID, func(ctx context.Context) error {
		return a.api.UpdateItem(ctx, itemID, models.UpdateItemRequest{Quantity: &quantity})
	}, "Could not update the quantity")
}

func (a *Aggregate) UpdateCustomization(ctx context.Context, itemID string, customization map[string]string) error {
	if err := a.authorize("update customization"); err != nil {
		return err
	}

	if _, err := a.lookup(ctx, itemID); err != nil {
		return err
	}

	return a.mutateItem(ctx, "customize", itemID, func(ctx context.Context) error {
		return a.api.UpdateItem(ctx, itemID, models.UpdateItemRequest{Customization: customization})
	}, "Could not update the item")
}

func (a *Aggregate) RemoveItem(ctx context.Context, itemID string) error {
	if err := a.authorize("remove item"); err != nil {
		return err
	}

	if itemID == "" {
		return appErrors.AddValidationError("itemId", "is required")
	}

	return a.mutateItem(ctx, "remove", itemID, func(ctx context.Context) error {
		return a.api.RemoveItem(ctx, itemID)
	}, "Could not remove the item")
}

// Clear removes every item. Callers must have the shopper's confirmation.
func (a *Aggregate) Clear(ctx context.Context) error {
	if err := a.authorize("clear cart"); err != nil {
		return err
	}

	return a.mutateItem(ctx, "clear", clearKey, a.api.ClearCart, "Could not clear your cart")
}

// Refresh re-reads the cart from the storefront.
func (a *Aggregate) Refresh(ctx context.Context) error {
	if err := a.authorize("refresh cart"); err != nil {
		return err
	}

	return a.refresh(ctx, triggerExplicit)
}

// View is the cart as shown to the shopper.
func (a *Aggregate) View() View {
	a.mu.Lock()
	defer a.mu.Unlock()

	return buildView(a.items, a.inFlight, a.loaded)
}

func (a *Aggregate) Totals() Totals {
	a.mu.Lock()
	defer a.mu.Unlock()

	return ComputeTotals(a.items)
}

// ItemCount is the sum of quantities, used for the cart badge.
func (a *Aggregate) ItemCount() int {
	return a.Totals().ItemCount
}

// Items returns a copy of the current line items.
func (a *Aggregate) Items() []models.LineItem {
	a.mu.Lock()
	defer a.mu.Unlock()

	return cloneItems(a.items)
}

func (a *Aggregate) IsEmpty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return len(a.items) == 0
}

func (a *Aggregate) RefreshedAt() time.Time {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.refreshedAt
}

func (a *Aggregate) Principal() auth.Principal {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.principal
}

// StartPolling refreshes the cart every interval until Close. Polls run
// alongside mutations and never wait for them.
func (a *Aggregate) StartPolling(interval time.Duration) {
	if interval <= 0 || !a.Principal().Authenticated() {
		return
	}

	a.mu.Lock()
	if a.closed || a.stopPolling != nil {
		a.mu.Unlock()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	a.stopPolling = cancel
	a.mu.Unlock()

	go a.poll(ctx, interval)
}

// Close drops the items and stops polling. Responses to requests still in
// flight are discarded when they arrive.
func (a *Aggregate) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	a.closed = true
	a.items = nil
	a.loaded = false

	if a.stopPolling != nil {
		a.stopPolling()
	}
}

func (a *Aggregate) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.closed
}

// updatePrincipal swaps in a newer token for the same subject.
func (a *Aggregate) updatePrincipal(p auth.Principal) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if p.Subject == a.principal.Subject {
		a.principal = p
	}
}

func (a *Aggregate) poll(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := a.refresh(ctx, triggerPoll); err != nil && ctx.Err() == nil {
				a.logger.Debug("Cart poll failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (a *Aggregate) mutateItem(ctx context.Context, op, key string, call func(context.Context) error, fallback string) error {
	release, err := a.begin(key)
	if err != nil {
		return err
	}
	defer release()

	err = call(a.remoteContext(ctx))
	metrics.RecordCartMutation(op, err)

	if err != nil {
		a.logger.Warn("Cart mutation failed",
			slog.String("op", op),
			slog.String("itemId", key),
			slog.String("error", err.Error()),
		)
		return remoteError(err, fallback)
	}

	return a.refreshAfterMutation(ctx)
}

func (a *Aggregate) refreshAfterMutation(ctx context.Context) error {
	if err := a.refresh(ctx, triggerMutation); err != nil {
		var appErr *appErrors.AppError
		if errors.As(err, &appErr) && appErr.Code == appErrors.ErrCodeThirdPartyError {
			appErr.Message = "Your cart was updated but could not be reloaded"
		}
		return err
	}

	return nil
}

func (a *Aggregate) refresh(ctx context.Context, trigger string) error {
	if a.Closed() {
		return errClosed()
	}

	snapshot, err := a.api.GetCart(a.remoteContext(ctx))
	metrics.RecordCartRefresh(trigger, err)

	if err != nil {
		a.logger.Warn("Failed to read cart", slog.String("trigger", trigger), slog.String("error", err.Error()))
		return remoteError(err, "Could not load your cart")
	}

	a.replace(snapshot)

	return nil
}

// replace installs a snapshot wholesale. The last read to complete wins.
func (a *Aggregate) replace(snapshot *models.CartSnapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		a.logger.Debug("Discarding cart response received after close")
		return
	}

	var items []models.LineItem
	if snapshot != nil {
		items = cloneItems(snapshot.Items)
	}

	a.items = items
	a.loaded = true
	a.refreshedAt = time.Now()

	for _, item := range items {
		if item.PriceDrifted() {
			a.logger.Info("Cart item price changed since it was added",
				slog.String("itemId", item.ID),
				slog.Float64("priceAtTime", item.PriceAtTime),
				slog.Float64("currentPrice", item.CurrentPrice),
			)
		}
	}
}

// lookup finds an item in the current snapshot, loading it first if the
// aggregate has never been read.
func (a *Aggregate) lookup(ctx context.Context, itemID string) (models.LineItem, error) {
	a.mu.Lock()
	loaded := a.loaded
	a.mu.Unlock()

	if !loaded {
		if err := a.refresh(ctx, triggerExplicit); err != nil {
			return models.LineItem{}, err
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for _, item := range a.items {
		if item.ID == itemID {
			return item, nil
		}
	}

	return models.LineItem{}, appErrors.NotFoundError("Item not found in the cart")
}

// begin marks key as in flight. A second mutation on the same key is
// refused until the first one finishes.
func (a *Aggregate) begin(key string) (func(), error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, errClosed()
	}

	if _, busy := a.inFlight[key]; busy {
		return nil, appErrors.ConflictError("This item is already being updated")
	}

	a.inFlight[key] = struct{}{}

	return func() {
		a.mu.Lock()
		delete(a.inFlight, key)
		a.mu.Unlock()
	}, nil
}

func (a *Aggregate) authorize(op string) error {
	if a.Principal().Authenticated() {
		return nil
	}

	a.logger.Warn("Cart operation skipped for unauthenticated principal", slog.String("op", op))

	return appErrors.UnauthorizedError("Please sign in to manage your cart")
}

func (a *Aggregate) remoteContext(ctx context.Context) context.Context {
	return auth.NewContext(ctx, a.Principal())
}

func errClosed() error {
	return appErrors.PreconditionFailedError("Cart session has ended")
}

// remoteError keeps the storefront's own message when it sent one.
func remoteError(err error, fallback string) error {
	return appErrors.ThirdPartyError(storefront.UserMessage(err, fallback)).WithError(err)
}

func cloneItems(items []models.LineItem) []models.LineItem {
	if items == nil {
		return nil
	}

	out := make([]models.LineItem, len(items))
	for i, item := range items {
		item.Customization = maps.Clone(item.Customization)
		out[i] = item
	}

	return out
}
