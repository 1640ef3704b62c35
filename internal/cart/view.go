package cart

import (
	"fmt"

	"github.com/aaravmahajanofficial/storefront-checkout/internal/models"
	"github.com/aaravmahajanofficial/storefront-checkout/internal/money"
)

type NoticeKind string

const (
	NoticePriceChanged      NoticeKind = "price_changed"
	NoticeInsufficientStock NoticeKind = "insufficient_stock"
)

// Notice flags a drift between the captured line item and the live product.
// Notices never block checkout and never change the cart.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	ItemID  string     `json:"itemId"`
	Message string     `json:"message"`
}

func Notices(item models.LineItem) []Notice {
	var notices []Notice

	if item.PriceDrifted() {
		notices = append(notices, Notice{
			Kind:   NoticePriceChanged,
			ItemID: item.ID,
			Message: fmt.Sprintf("Price changed from %s to %s",
				money.FormatCurrency(item.PriceAtTime), money.FormatCurrency(item.CurrentPrice)),
		})
	}

	if item.ExceedsStock() {
		notices = append(notices, Notice{
			Kind:    NoticeInsufficientStock,
			ItemID:  item.ID,
			Message: fmt.Sprintf("Only %d left in stock", item.UnitStock),
		})
	}

	return notices
}

// CanIncrement is false once the quantity reaches the stock snapshot.
func CanIncrement(item models.LineItem) bool {
	return item.Quantity < item.UnitStock
}

type ItemView struct {
	models.LineItem
	ItemTotal    float64  `json:"itemTotal"`
	CanIncrement bool     `json:"canIncrement"`
	Pending      bool     `json:"pending"`
	Notices      []Notice `json:"notices,omitempty"`
}

type View struct {
	Items   []ItemView    `json:"items"`
	Totals  Totals        `json:"totals"`
	Display DisplayTotals `json:"display"`
	Loaded  bool          `json:"loaded"`
}

func buildView(items []models.LineItem, pending map[string]struct{}, loaded bool) View {
	views := make([]ItemView, 0, len(items))

	for _, item := range cloneItems(items) {
		_, busy := pending[item.ID]
		views = append(views, ItemView{
			LineItem:     item,
			ItemTotal:    item.ItemTotal(),
			CanIncrement: CanIncrement(item) && !busy,
			Pending:      busy,
			Notices:      Notices(item),
		})
	}

	totals := ComputeTotals(items)

	return View{
		Items:   views,
		Totals:  totals,
		Display: totals.Display(),
		Loaded:  loaded,
	}
}
