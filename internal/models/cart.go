package models

// LineItem is one product entry of the remote cart as last read from the
// storefront service. Totals are always derived, never stored.
type LineItem struct {
	ID            string            `json:"id"`
	ProductID     string            `json:"productId"`
	ProductName   string            `json:"productName"`
	UnitStock     int               `json:"unitStock"`
	Quantity      int               `json:"quantity"`
	PriceAtTime   float64           `json:"priceAtTime"`
	CurrentPrice  float64           `json:"currentPrice"`
	Customization map[string]string `json:"customization,omitempty"`
}

// ItemTotal is PriceAtTime × Quantity with no intermediate rounding.
func (i LineItem) ItemTotal() float64 {
	return i.PriceAtTime * float64(i.Quantity)
}

// PriceDrifted reports whether the live price differs from the captured one.
func (i LineItem) PriceDrifted() bool {
	return i.CurrentPrice != i.PriceAtTime
}

// ExceedsStock reports whether the quantity is above the stock snapshot.
func (i LineItem) ExceedsStock() bool {
	return i.Quantity > i.UnitStock
}

// CartSnapshot is an authoritative read of the remote cart. The summary is
// informational only: local totals are recomputed from Items.
type CartSnapshot struct {
	Items      []LineItem `json:"items"`
	TotalItems int        `json:"totalItems"`
	Subtotal   float64    `json:"subtotal"`
}

type AddItemRequest struct {
	ProductID     string            `json:"productId" validate:"required"`
	Quantity      int               `json:"quantity" validate:"omitempty,min=1"`
	Customization map[string]string `json:"customization,omitempty"`
}

// UpdateQuantityRequest accepts zero or negative quantities, which remove the item.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type UpdateItemRequest struct {
	Quantity      *int              `json:"quantity,omitempty"`
	Customization map[string]string `json:"customization,omitempty"`
}
