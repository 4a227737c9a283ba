package checkout

import (
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/types"
)

// DefaultShippingFee is the flat shipping charge in shillings.
const DefaultShippingFee int64 = 500

// Summary is the order summary shown before payment.
type Summary struct {
	Lines     []cart.Line `json:"lines"`
	ItemCount int         `json:"itemCount"`
	Subtotal  types.Money `json:"subtotal"`
	Shipping  types.Money `json:"shipping"`
	Total     types.Money `json:"total"`
}

// Totals computes subtotal and total with flat shipping.
func Totals(lines []cart.Line, shipping types.Money) Summary {
	if lines == nil {
		lines = []cart.Line{}
	}
	subtotal := cart.Subtotal(lines)
	return Summary{
		Lines:     lines,
		ItemCount: cart.ItemCount(lines),
		Subtotal:  subtotal,
		Shipping:  shipping,
		Total:     subtotal.Add(shipping),
	}
}

// Empty reports whether there is nothing to pay for.
func (s Summary) Empty() bool {
	return len(s.Lines) == 0
}
