package testutils

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/auth"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
)

// FakeStorefront is an in-memory stand-in for the remote cart service. It
// checks the forwarded bearer token like the real service does.
type FakeStorefront struct {
	mu     sync.Mutex
	items  []models.LineItem
	stock  map[string]int
	prices map[string]float64
	nextID int
	orders int

	// FailWith, when set, is returned by every mutation.
	FailWith error
}

func NewFakeStorefront() *FakeStorefront {
	return &FakeStorefront{stock: map[string]int{}, prices: map[string]float64{}}
}

// Stock registers a product.
func (f *FakeStorefront) Stock(productID string, price float64, units int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prices[productID] = price
	f.stock[productID] = units
}

func (f *FakeStorefront) authorized(ctx context.Context) error {
	if auth.FromContext(ctx).Token == "" {
		return fmt.Errorf("missing bearer token")
	}

	return nil
}

func (f *FakeStorefront) GetCart(ctx context.Context) (*models.CartSnapshot, error) {
	if err := f.authorized(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	items := make([]models.LineItem, len(f.items))
	copy(items, f.items)

	return &models.CartSnapshot{Items: items}, nil
}

func (f *FakeStorefront) AddItem(ctx context.Context, req models.AddItemRequest) error {
	if err := f.authorized(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailWith != nil {
		return f.FailWith
	}

	price, ok := f.prices[req.ProductID]
	if !ok {
		return fmt.Errorf("product %s not found", req.ProductID)
	}

	for i := range f.items {
		if f.items[i].ProductID == req.ProductID {
			f.items[i].Quantity += req.Quantity
			return nil
		}
	}

	f.nextID++
	f.items = append(f.items, models.LineItem{
		ID:            strconv.Itoa(f.nextID),
		ProductID:     req.ProductID,
		ProductName:   req.ProductID,
		UnitStock:     f.stock[req.ProductID],
		Quantity:      req.Quantity,
		PriceAtTime:   price,
		CurrentPrice:  price,
		Customization: req.Customization,
	})

	return nil
}

func (f *FakeStorefront) UpdateItem(ctx context.Context, itemID string, req models.UpdateItemRequest) error {
	if err := f.authorized(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailWith != nil {
		return f.FailWith
	}

	for i := range f.items {
		if f.items[i].ID != itemID {
			continue
		}
		if req.Quantity != nil {
			f.items[i].Quantity = *req.Quantity
		}
		if req.Customization != nil {
			f.items[i].Customization = req.Customization
		}
		return nil
	}

	return fmt.Errorf("item %s not found", itemID)
}

func (f *FakeStorefront) RemoveItem(ctx context.Context, itemID string) error {
	if err := f.authorized(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailWith != nil {
		return f.FailWith
	}

	for i := range f.items {
		if f.items[i].ID == itemID {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}

	return nil
}

func (f *FakeStorefront) ClearCart(ctx context.Context) error {
	if err := f.authorized(ctx); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailWith != nil {
		return f.FailWith
	}

	f.items = nil

	return nil
}

// PlaceOrder accepts the order and empties the cart.
func (f *FakeStorefront) PlaceOrder(ctx context.Context, req models.OrderRequest) (*models.PlacedOrder, error) {
	if err := f.authorized(ctx); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.FailWith != nil {
		return nil, f.FailWith
	}

	f.orders++
	f.items = nil

	return &models.PlacedOrder{
		ID:          strconv.Itoa(f.orders),
		OrderNumber: fmt.Sprintf("ORD-%04d", f.orders),
		Status:      "PENDING",
	}, nil
}

func (f *FakeStorefront) Orders() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.orders
}
