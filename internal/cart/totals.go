package cart

import (
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/money"
)

const (
	// FreeShippingThreshold is the subtotal from which shipping is free.
	FreeShippingThreshold = 5000.0
	StandardShippingFee   = 500.0
	TaxRate               = 0.08
)

// Totals are derived from the line items on every read and never stored.
type Totals struct {
	ItemCount    int     `json:"itemCount"`
	Subtotal     float64 `json:"subtotal"`
	ShippingCost float64 `json:"shippingCost"`
	TaxAmount    float64 `json:"taxAmount"`
	GrandTotal   float64 `json:"grandTotal"`
}

// ComputeTotals sums item totals and applies the shipping and tax rules.
// An empty cart has a zero subtotal and is charged standard shipping.
func ComputeTotals(items []models.LineItem) Totals {
	var t Totals

	for _, item := range items {
		t.Subtotal += item.ItemTotal()
		t.ItemCount += item.Quantity
	}

	t.ShippingCost = ShippingCost(t.Subtotal)
	t.TaxAmount = t.Subtotal * TaxRate
	t.GrandTotal = t.Subtotal + t.ShippingCost + t.TaxAmount

	return t
}

func ShippingCost(subtotal float64) float64 {
	if subtotal >= FreeShippingThreshold {
		return 0
	}

	return StandardShippingFee
}

// DisplayTotals is Totals rendered for the UI.
type DisplayTotals struct {
	Subtotal     string `json:"subtotal"`
	ShippingCost string `json:"shippingCost"`
	TaxAmount    string `json:"taxAmount"`
	GrandTotal   string `json:"grandTotal"`
}

func (t Totals) Display() DisplayTotals {
	return DisplayTotals{
		Subtotal:     money.FormatCurrency(t.Subtotal),
		ShippingCost: money.FormatCurrency(t.ShippingCost),
		TaxAmount:    money.FormatCurrency(t.TaxAmount),
		GrandTotal:   money.FormatCurrency(t.GrandTotal),
	}
}
