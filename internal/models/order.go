package models

import "time"

// OrderRequest is everything the order endpoint receives. Card data is
// deliberately absent.
type OrderRequest struct {
	ShippingAddress string        `json:"shippingAddress"`
	ShippingPhone   string        `json:"shippingPhone"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	Notes           string        `json:"notes,omitempty"`
}

type PlacedOrder struct {
	ID          string  `json:"id"`
	OrderNumber string  `json:"orderNumber"`
	Status      string  `json:"status"`
	TotalAmount float64 `json:"totalAmount"`
}

// OrderConfirmation backs the confirmation view shown after checkout.
type OrderConfirmation struct {
	OrderNumber     string        `json:"orderNumber"`
	OrderID         string        `json:"orderId,omitempty"`
	PaymentMethod   PaymentMethod `json:"paymentMethod"`
	ItemCount       int           `json:"itemCount"`
	Subtotal        float64       `json:"subtotal"`
	ShippingCost    float64       `json:"shippingCost"`
	TaxAmount       float64       `json:"taxAmount"`
	GrandTotal      float64       `json:"grandTotal"`
	PaymentIntentID string        `json:"paymentIntentId,omitempty"`
	ClientSecret    string        `json:"clientSecret,omitempty"`
	PlacedAt        time.Time     `json:"placedAt"`
}

// StoredConfirmation is the cached form; it keeps the owner and drops the
// payment client secret.
type StoredConfirmation struct {
	OrderConfirmation
	Owner string `json:"owner"`
}
