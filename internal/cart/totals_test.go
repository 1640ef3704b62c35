package cart_test

import (
	"testing"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/cart"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func line(price float64, qty int) models.LineItem {
	return models.LineItem{PriceAtTime: price, CurrentPrice: price, Quantity: qty, UnitStock: qty}
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name     string
		items    []models.LineItem
		subtotal float64
		shipping float64
		count    int
	}{
		{"Empty cart", nil, 0, cart.StandardShippingFee, 0},
		{"Just below threshold", []models.LineItem{line(4999.99, 1)}, 4999.99, 500, 1},
		{"At threshold", []models.LineItem{line(2500, 2)}, 5000, 0, 2},
		{"Above threshold", []models.LineItem{line(1250, 3), line(1500, 2)}, 6750, 0, 5},
		{"Fractional prices", []models.LineItem{line(99.5, 3)}, 298.5, 500, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := cart.ComputeTotals(tt.items)

			assert.Equal(t, tt.subtotal, got.Subtotal)
			assert.Equal(t, tt.shipping, got.ShippingCost)
			assert.Equal(t, tt.subtotal*cart.TaxRate, got.TaxAmount)
			assert.Equal(t, got.Subtotal+got.ShippingCost+got.TaxAmount, got.GrandTotal)
			assert.Equal(t, tt.count, got.ItemCount)
		})
	}
}

func TestDisplayTotals(t *testing.T) {
	got := cart.ComputeTotals([]models.LineItem{line(1250, 1)}).Display()

	assert.Equal(t, cart.DisplayTotals{
		Subtotal:     "1250.00",
		ShippingCost: "500.00",
		TaxAmount:    "100.00",
		GrandTotal:   "1850.00",
	}, got)
}

func TestTotalsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 300
	properties := gopter.NewProperties(parameters)

	genItem := gopter.CombineGens(
		gen.Float64Range(0, 20000),
		gen.IntRange(1, 50),
	).Map(func(v []interface{}) models.LineItem {
		return line(v[0].(float64), v[1].(int))
	})

	properties.Property("item total is price times quantity", prop.ForAll(
		func(item models.LineItem) bool {
			return item.ItemTotal() == item.PriceAtTime*float64(item.Quantity)
		},
		genItem,
	))

	properties.Property("subtotal is the sum of item totals", prop.ForAll(
		func(items []models.LineItem) bool {
			var sum float64
			for _, item := range items {
				sum += item.ItemTotal()
			}
			return cart.ComputeTotals(items).Subtotal == sum
		},
		gen.SliceOf(genItem),
	))

	properties.Property("shipping is free exactly from the threshold", prop.ForAll(
		func(items []models.LineItem) bool {
			got := cart.ComputeTotals(items)
			if got.Subtotal >= cart.FreeShippingThreshold {
				return got.ShippingCost == 0
			}
			return got.ShippingCost == cart.StandardShippingFee
		},
		gen.SliceOf(genItem),
	))

	properties.Property("grand total adds shipping and tax", prop.ForAll(
		func(items []models.LineItem) bool {
			got := cart.ComputeTotals(items)
			return got.TaxAmount == got.Subtotal*cart.TaxRate &&
				got.GrandTotal == got.Subtotal+got.ShippingCost+got.TaxAmount
		},
		gen.SliceOf(genItem),
	))

	properties.TestingRun(t)
}
