package cart

import (
	"context"

	"github.com/angelmondragon/storefront/internal/localstore"
	"github.com/angelmondragon/storefront/pkg/types"
)

// AddRequest is the body of POST /api/cart.
type AddRequest struct {
	ProductID types.ID `json:"productId"`
	Size      string   `json:"size"`
	Quantity  int      `json:"quantity"`
}

// WriteResult is the response of a cart write. Canonical is set when the
// backend returned the full cart rather than an acknowledgement.
type WriteResult struct {
	Lines     []Line
	Canonical bool
}

// API is the backend cart surface.
type API interface {
	GetCart(ctx context.Context) ([]Line, error)
	AddCartItem(ctx context.Context, req AddRequest) (WriteResult, error)
	UpdateCartItem(ctx context.Context, id types.ID, quantity int) (WriteResult, error)
	RemoveCartItem(ctx context.Context, id types.ID) (WriteResult, error)
	ClearCart(ctx context.Context) (WriteResult, error)
	MergeCart(ctx context.Context, lines []Line) error
}

// AuthProber answers whether the session is authenticated.
type AuthProber interface {
	IsLoggedIn(ctx context.Context) (bool, error)
}

// Store is the local cart cache. The origin tells a guest cart, which
// still has to be merged, apart from a copy of the server cart.
type Store interface {
	LoadWithOrigin(ctx context.Context) ([]Line, localstore.Origin)
	SaveWithOrigin(ctx context.Context, lines []Line, origin localstore.Origin)
	Clear(ctx context.Context)
}

// Renderer draws a cart view.
type Renderer interface {
	Render(ctx context.Context, view View)
}

// RendererFunc adapts a function to Renderer.
type RendererFunc func(ctx context.Context, view View)

func (f RendererFunc) Render(ctx context.Context, view View) {
	f(ctx, view)
}

type discardRenderer struct{}

func (discardRenderer) Render(context.Context, View) {}
