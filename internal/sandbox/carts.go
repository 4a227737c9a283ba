package sandbox

import (
	"context"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/products"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/google/uuid"
)

// Cart returns a copy of the user's cart.
func (s *Store) Cart(userID uuid.UUID) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cartLocked(userID)
}

func (s *Store) cartLocked(userID uuid.UUID) []cart.Line {
	return append([]cart.Line{}, s.carts[userID]...)
}

// AddToCart adds a catalog product, incrementing an existing
// (productId, size) line, and returns the resulting cart.
func (s *Store) AddToCart(ctx context.Context, userID uuid.UUID, req cart.AddRequest) ([]cart.Line, error) {
	if req.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1.")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	product, err := s.productLocked(req.ProductID)
	if err != nil {
		return nil, err
	}
	if err := checkSize(product, req.Size); err != nil {
		return nil, err
	}
	s.carts[userID] = cart.AddLine(s.carts[userID], lineFor(product, req.Size, req.Quantity))
	s.logg.Debug(s.logg.WithField(ctx, "product_id", product.ID.String()), "sandbox cart add")
	return s.cartLocked(userID), nil
}

// UpdateCartItem sets a line's quantity.
func (s *Store) UpdateCartItem(userID uuid.UUID, id types.ID, qty int) ([]cart.Line, error) {
	if qty < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Quantity must be at least 1.")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, found := cart.SetQuantity(s.carts[userID], id, qty)
	if !found {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found.")
	}
	s.carts[userID] = lines
	return s.cartLocked(userID), nil
}

// RemoveCartItem drops a line. Missing lines are ignored.
func (s *Store) RemoveCartItem(userID uuid.UUID, id types.ID) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines, _ := cart.RemoveLine(s.carts[userID], id)
	s.carts[userID] = lines
	return s.cartLocked(userID)
}

func (s *Store) ClearCart(userID uuid.UUID) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return []cart.Line{}
}

// MergeCart folds guest lines into the user's cart. Prices and names come
// from the catalog; unknown products and invalid sizes are skipped.
func (s *Store) MergeCart(ctx context.Context, userID uuid.UUID, guest []cart.Line) []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()

	skipped := 0
	lines := s.carts[userID]
	for _, g := range cart.Coalesce(guest) {
		product, err := s.productLocked(g.ProductID)
		if err != nil || checkSize(product, g.Size) != nil {
			skipped++
			continue
		}
		qty := g.Quantity
		if qty < 1 {
			qty = 1
		}
		lines = cart.AddLine(lines, lineFor(product, g.Size, qty))
	}
	s.carts[userID] = lines
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"merged":  len(guest) - skipped,
		"skipped": skipped,
	}), "sandbox guest cart merged")
	return s.cartLocked(userID)
}

func lineFor(p products.Product, size string, qty int) cart.Line {
	return cart.Line{
		ID:        cart.LineID(p.ID, size),
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Size:      size,
		Quantity:  qty,
		Image:     p.ImageURL,
	}
}

func checkSize(p products.Product, size string) error {
	options := p.SizeOptions()
	if len(options) == 0 {
		return nil
	}
	for _, o := range options {
		if o == size {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "Please select a valid size.")
}

// Favourites returns the user's favourited products in insertion order.
func (s *Store) Favourites(userID uuid.UUID) []products.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []products.Product{}
	for _, id := range s.favourites[userID] {
		if p, err := s.productLocked(id); err == nil {
			out = append(out, p)
		}
	}
	return out
}

func (s *Store) AddFavourite(userID uuid.UUID, productID types.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.productLocked(productID); err != nil {
		return err
	}
	for _, id := range s.favourites[userID] {
		if id == productID {
			return nil
		}
	}
	s.favourites[userID] = append(s.favourites[userID], productID)
	return nil
}

func (s *Store) RemoveFavourite(userID uuid.UUID, productID types.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.favourites[userID]
	out := make([]types.ID, 0, len(ids))
	for _, id := range ids {
		if id != productID {
			out = append(out, id)
		}
	}
	s.favourites[userID] = out
}
