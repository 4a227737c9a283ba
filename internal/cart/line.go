package cart

import (
	"github.com/angelmondragon/storefront/pkg/types"
)

// Line is one product/size combination in a cart.
type Line struct {
	ID        types.ID    `json:"id"`
	ProductID types.ID    `json:"productId"`
	Name      string      `json:"name"`
	Price     types.Money `json:"price"`
	Size      string      `json:"size,omitempty"`
	Quantity  int         `json:"quantity"`
	Image     string      `json:"image,omitempty"`
}

// Total is price times quantity.
func (l Line) Total() types.Money {
	return l.Price.Times(l.Quantity)
}

const (
	SourceLocal  = "local"
	SourceServer = "server"
)

// View is what the renderer draws.
type View struct {
	Lines        []Line      `json:"lines"`
	Subtotal     types.Money `json:"subtotal"`
	ItemCount    int         `json:"itemCount"`
	Source       string      `json:"source"`
	MergePending bool        `json:"mergePending,omitempty"`
}

// NewView derives totals for lines.
func NewView(lines []Line, source string) View {
	if lines == nil {
		lines = []Line{}
	}
	return View{
		Lines:     lines,
		Subtotal:  Subtotal(lines),
		ItemCount: ItemCount(lines),
		Source:    source,
	}
}

// Empty reports whether the view has no lines.
func (v View) Empty() bool {
	return len(v.Lines) == 0
}

// LineID builds the composite key productId-size. Lines without a size
// use the product id alone.
func LineID(productID types.ID, size string) types.ID {
	if size == "" {
		return productID
	}
	return types.ID(productID.String() + "-" + size)
}

func key(l Line) types.ID {
	if l.ProductID == "" {
		return l.ID
	}
	return LineID(l.ProductID, l.Size)
}

// Coalesce merges lines sharing (productId, size) by summing quantity.
// First-seen order is kept.
func Coalesce(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	index := make(map[types.ID]int, len(lines))
	for _, l := range lines {
		k := key(l)
		if i, ok := index[k]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		if l.ID == "" {
			l.ID = k
		}
		index[k] = len(out)
		out = append(out, l)
	}
	return out
}

// AddLine adds l, incrementing the quantity of an existing line with the
// same (productId, size). The input slice is not modified.
func AddLine(lines []Line, l Line) []Line {
	l.ID = LineID(l.ProductID, l.Size)
	out := make([]Line, len(lines), len(lines)+1)
	copy(out, lines)
	for i := range out {
		if key(out[i]) == l.ID {
			out[i].Quantity += l.Quantity
			return out
		}
	}
	return append(out, l)
}

// SetQuantity sets the quantity of line id, clamped to a minimum of 1.
func SetQuantity(lines []Line, id types.ID, qty int) ([]Line, bool) {
	if qty < 1 {
		qty = 1
	}
	out := make([]Line, len(lines))
	copy(out, lines)
	for i := range out {
		if out[i].ID == id {
			out[i].Quantity = qty
			return out, true
		}
	}
	return out, false
}

// RemoveLine drops line id. Removing a missing id returns the lines unchanged.
func RemoveLine(lines []Line, id types.ID) ([]Line, bool) {
	out := make([]Line, 0, len(lines))
	found := false
	for _, l := range lines {
		if l.ID == id {
			found = true
			continue
		}
		out = append(out, l)
	}
	return out, found
}

func Subtotal(lines []Line) types.Money {
	total := types.NewMoney(0)
	for _, l := range lines {
		total = total.Add(l.Total())
	}
	return total
}

func ItemCount(lines []Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
