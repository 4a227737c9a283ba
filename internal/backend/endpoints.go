package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/angelmondragon/storefront/internal/auth"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/checkout"
	"github.com/angelmondragon/storefront/internal/favourites"
	"github.com/angelmondragon/storefront/internal/products"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	PathAuthStatus     = "/api/auth/status"
	PathLogin          = "/api/login"
	PathRegister       = "/api/register"
	PathForgotPassword = "/api/forgot-password"
	PathResetPassword  = "/api/reset-password"
	PathLogout         = "/api/logout"
	PathCart           = "/api/cart"
	PathCartMerge      = "/api/cart/merge"
	PathFavourites     = "/api/favourites"
	PathProducts       = "/api/products"
	PathStkPush        = "/api/mpesa/stk-push"
)

var (
	_ auth.API         = (*Client)(nil)
	_ cart.API         = (*Client)(nil)
	_ favourites.API   = (*Client)(nil)
	_ products.Catalog = (*Client)(nil)
	_ checkout.API     = (*Client)(nil)
)

// UpdateCartRequest is the PUT /api/cart body.
type UpdateCartRequest struct {
	CartItemID types.ID `json:"cartItemId"`
	Quantity   int      `json:"quantity"`
}

// RemoveCartRequest is the DELETE /api/cart body. An empty id clears the cart.
type RemoveCartRequest struct {
	CartItemID types.ID `json:"cartItemId,omitempty"`
}

// MergeCartRequest is the POST /api/cart/merge body.
type MergeCartRequest struct {
	Cart []cart.Line `json:"cart"`
}

// FavouriteRequest is the POST /api/favourites body.
type FavouriteRequest struct {
	ProductID types.ID `json:"productId"`
}

func (c *Client) AuthStatus(ctx context.Context) (auth.State, error) {
	var state auth.State
	err := c.doJSON(ctx, "auth_status", http.MethodGet, PathAuthStatus, nil, &state)
	return state, err
}

func (c *Client) Login(ctx context.Context, req auth.LoginRequest) error {
	_, err := c.do(ctx, "login", http.MethodPost, PathLogin, req)
	return err
}

func (c *Client) Register(ctx context.Context, req auth.RegisterRequest) error {
	_, err := c.do(ctx, "register", http.MethodPost, PathRegister, req)
	return err
}

func (c *Client) ForgotPassword(ctx context.Context, req auth.ForgotPasswordRequest) error {
	_, err := c.do(ctx, "forgot_password", http.MethodPost, PathForgotPassword, req)
	return err
}

func (c *Client) ResetPassword(ctx context.Context, req auth.ResetPasswordRequest) error {
	_, err := c.do(ctx, "reset_password", http.MethodPost, PathResetPassword, req)
	return err
}

// Logout ends the server session and always drops local cookies.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, "logout", http.MethodPost, PathLogout, nil)
	if resetErr := c.session.reset(ctx); resetErr != nil && err == nil {
		err = resetErr
	}
	return err
}

func (c *Client) GetCart(ctx context.Context) ([]cart.Line, error) {
	var lines []cart.Line
	if err := c.doJSON(ctx, "cart", http.MethodGet, PathCart, nil, &lines); err != nil {
		return nil, err
	}
	if lines == nil {
		lines = []cart.Line{}
	}
	return lines, nil
}

func (c *Client) AddCartItem(ctx context.Context, req cart.AddRequest) (cart.WriteResult, error) {
	return c.cartWrite(ctx, http.MethodPost, req)
}

func (c *Client) UpdateCartItem(ctx context.Context, id types.ID, qty int) (cart.WriteResult, error) {
	return c.cartWrite(ctx, http.MethodPut, UpdateCartRequest{CartItemID: id, Quantity: qty})
}

// RemoveCartItem deletes one line. An empty id is refused since the same
// request without an id clears the whole cart.
func (c *Client) RemoveCartItem(ctx context.Context, id types.ID) (cart.WriteResult, error) {
	if id == "" {
		return cart.WriteResult{}, pkgerrors.New(pkgerrors.CodeValidation, "cart item id is required")
	}
	return c.cartWrite(ctx, http.MethodDelete, RemoveCartRequest{CartItemID: id})
}

func (c *Client) ClearCart(ctx context.Context) (cart.WriteResult, error) {
	return c.cartWrite(ctx, http.MethodDelete, RemoveCartRequest{})
}

func (c *Client) MergeCart(ctx context.Context, lines []cart.Line) error {
	_, err := c.do(ctx, "cart_merge", http.MethodPost, PathCartMerge, MergeCartRequest{Cart: lines})
	return err
}

func (c *Client) cartWrite(ctx context.Context, method string, body any) (cart.WriteResult, error) {
	raw, err := c.do(ctx, "cart", method, PathCart, body)
	if err != nil {
		return cart.WriteResult{}, err
	}
	return decodeCartWrite(raw), nil
}

// decodeCartWrite treats a JSON array, or an object with a "cart" array,
// as the canonical cart. Anything else is an acknowledgement.
func decodeCartWrite(raw []byte) cart.WriteResult {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return cart.WriteResult{}
	}
	switch trimmed[0] {
	case '[':
		var lines []cart.Line
		if err := json.Unmarshal(trimmed, &lines); err == nil {
			if lines == nil {
				lines = []cart.Line{}
			}
			return cart.WriteResult{Lines: lines, Canonical: true}
		}
	case '{':
		var wrapped struct {
			Cart *[]cart.Line `json:"cart"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Cart != nil {
			lines := *wrapped.Cart
			if lines == nil {
				lines = []cart.Line{}
			}
			return cart.WriteResult{Lines: lines, Canonical: true}
		}
	}
	return cart.WriteResult{}
}

func (c *Client) Favourites(ctx context.Context) ([]favourites.Entry, error) {
	var entries []favourites.Entry
	if err := c.doJSON(ctx, "favourites", http.MethodGet, PathFavourites, nil, &entries); err != nil {
		return nil, err
	}
	for i := range entries {
		entries[i] = entries[i].Normalize()
	}
	return entries, nil
}

func (c *Client) AddFavourite(ctx context.Context, productID types.ID) error {
	_, err := c.do(ctx, "favourites", http.MethodPost, PathFavourites, FavouriteRequest{ProductID: productID})
	return err
}

func (c *Client) RemoveFavourite(ctx context.Context, productID types.ID) error {
	_, err := c.do(ctx, "favourite", http.MethodDelete, PathFavourites+"/"+url.PathEscape(productID.String()), nil)
	return err
}

func (c *Client) Products(ctx context.Context) ([]products.Product, error) {
	var list []products.Product
	if err := c.doJSON(ctx, "products", http.MethodGet, PathProducts, nil, &list); err != nil {
		return nil, err
	}
	for i := range list {
		list[i] = list[i].Normalize()
	}
	return list, nil
}

func (c *Client) Product(ctx context.Context, id types.ID) (products.Product, error) {
	if id == "" {
		return products.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	var p products.Product
	if err := c.doJSON(ctx, "product", http.MethodGet, PathProducts+"/"+url.PathEscape(id.String()), nil, &p); err != nil {
		return products.Product{}, err
	}
	return p.Normalize(), nil
}

func (c *Client) StkPush(ctx context.Context, req checkout.StkPushRequest) (checkout.StkPushResponse, error) {
	var resp checkout.StkPushResponse
	err := c.doJSON(ctx, "stk_push", http.MethodPost, PathStkPush, req, &resp)
	return resp, err
}
