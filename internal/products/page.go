package products

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/notifications"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	DefaultRelatedLimit = 8

	msgBuyNowFailed = "Could not proceed to checkout. Please try again."
)

// CartAdder is the reconciliation engine surface used by the page.
type CartAdder interface {
	Add(ctx context.Context, line cart.Line) (cart.View, error)
}

// CartPoster posts a line straight to the server cart.
type CartPoster interface {
	AddCartItem(ctx context.Context, req cart.AddRequest) (cart.WriteResult, error)
}

// PageParams groups dependencies for the product detail page.
type PageParams struct {
	Catalog  Catalog
	Cart     CartAdder
	API      CartPoster
	Notifier notifications.Notifier
	Logger   *logger.Logger
}

// Page implements the product detail actions.
type Page struct {
	catalog  Catalog
	cart     CartAdder
	api      CartPoster
	notifier notifications.Notifier
	logg     *logger.Logger
}

func NewPage(params PageParams) (*Page, error) {
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog is required")
	}
	if params.Cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart engine is required")
	}
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart api is required")
	}
	p := &Page{
		catalog:  params.Catalog,
		cart:     params.Cart,
		api:      params.API,
		notifier: params.Notifier,
		logg:     params.Logger,
	}
	if p.notifier == nil {
		p.notifier = notifications.Discard{}
	}
	if p.logg == nil {
		p.logg = logger.Nop()
	}
	return p, nil
}

// Get loads one product.
func (p *Page) Get(ctx context.Context, id types.ID) (Product, error) {
	if id == "" {
		return Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	product, err := p.catalog.Product(ctx, id)
	if err != nil {
		return Product{}, err
	}
	return product.Normalize(), nil
}

// List loads the whole catalog.
func (p *Page) List(ctx context.Context) ([]Product, error) {
	all, err := p.catalog.Products(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		all[i] = all[i].Normalize()
	}
	return all, nil
}

// AddToCart adds qty of product in size through the reconciliation engine.
// A quantity below 1 means 1.
func (p *Page) AddToCart(ctx context.Context, product Product, size string, qty int) (cart.View, error) {
	if err := p.requireSize(ctx, product, size, "adding to cart"); err != nil {
		return cart.View{}, err
	}
	if qty < 1 {
		qty = 1
	}
	product = product.Normalize()

	view, err := p.cart.Add(ctx, cart.Line{
		ProductID: product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Size:      size,
		Quantity:  qty,
		Image:     product.ImageURL,
	})
	p.notifier.Notify(ctx, notifications.Success(addedMessage(product.Name, size)))
	return view, err
}

// BuyNow posts the line directly to the server cart and reports whether
// checkout can proceed.
func (p *Page) BuyNow(ctx context.Context, product Product, size string, qty int) (bool, error) {
	if err := p.requireSize(ctx, product, size, "buying"); err != nil {
		return false, err
	}
	if qty < 1 {
		qty = 1
	}
	_, err := p.api.AddCartItem(ctx, cart.AddRequest{ProductID: product.ID, Size: size, Quantity: qty})
	if err != nil {
		p.logg.Error(p.logg.WithField(ctx, "product_id", product.ID.String()), "buy now failed", err)
		p.notifier.Notify(ctx, notifications.Error(msgBuyNowFailed))
		return false, err
	}
	return true, nil
}

// Related lists up to limit products in the same category.
func (p *Page) Related(ctx context.Context, product Product, limit int) ([]Product, error) {
	all, err := p.List(ctx)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}
	return Related(all, product, limit), nil
}

func (p *Page) requireSize(ctx context.Context, product Product, size, action string) error {
	options := product.SizeOptions()
	if len(options) == 0 {
		return nil
	}
	if size == "" {
		msg := fmt.Sprintf("Please select a size before %s!", action)
		p.notifier.Notify(ctx, notifications.Error(msg))
		return pkgerrors.New(pkgerrors.CodeValidation, msg)
	}
	for _, option := range options {
		if option == size {
			return nil
		}
	}
	msg := fmt.Sprintf("Size %s is not available for %s.", size, product.Name)
	p.notifier.Notify(ctx, notifications.Error(msg))
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(map[string]any{"sizes": options})
}

func addedMessage(name, size string) string {
	if size == "" {
		return fmt.Sprintf("%s added to cart!", name)
	}
	return fmt.Sprintf("%s (Size: %s) added to cart!", name, size)
}
