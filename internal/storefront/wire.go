package storefront

import (
	"bytes"
	"encoding/json"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/money"
)

// id accepts numeric and string identifiers alike.
type id string

func (i *id) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*i = ""
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*i = id(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*i = id(n.String())

	return nil
}

type productPayload struct {
	ID    id             `json:"id"`
	Name  string         `json:"name"`
	Price money.Amount   `json:"price"`
	Stock money.Quantity `json:"stock"`
}

type lineItemPayload struct {
	ID            id                `json:"id"`
	ProductID     id                `json:"productId"`
	Quantity      money.Quantity    `json:"quantity"`
	PriceAtTime   money.Amount      `json:"priceAtTime"`
	Customization map[string]string `json:"customization"`
	Product       productPayload    `json:"product"`
}

func (p lineItemPayload) lineItem() models.LineItem {
	productID := string(p.ProductID)
	if productID == "" {
		productID = string(p.Product.ID)
	}

	return models.LineItem{
		ID:            string(p.ID),
		ProductID:     productID,
		ProductName:   p.Product.Name,
		UnitStock:     int(p.Product.Stock),
		Quantity:      int(p.Quantity),
		PriceAtTime:   float64(p.PriceAtTime),
		CurrentPrice:  float64(p.Product.Price),
		Customization: p.Customization,
	}
}

type cartPayload struct {
	Items   []lineItemPayload `json:"items"`
	Summary struct {
		TotalItems money.Quantity `json:"totalItems"`
		Subtotal   money.Amount   `json:"subtotal"`
	} `json:"summary"`
}

func (p cartPayload) snapshot() *models.CartSnapshot {
	items := make([]models.LineItem, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, item.lineItem())
	}

	return &models.CartSnapshot{
		Items:      items,
		TotalItems: int(p.Summary.TotalItems),
		Subtotal:   float64(p.Summary.Subtotal),
	}
}

type orderPayload struct {
	ID          id           `json:"id"`
	OrderNumber string       `json:"orderNumber"`
	Status      string       `json:"status"`
	TotalAmount money.Amount `json:"totalAmount"`
}

func (p orderPayload) order() *models.PlacedOrder {
	return &models.PlacedOrder{
		ID:          string(p.ID),
		OrderNumber: p.OrderNumber,
		Status:      p.Status,
		TotalAmount: float64(p.TotalAmount),
	}
}
