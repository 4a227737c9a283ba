package controllers

import (
	"net/http"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/sandbox"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

type addCartPayload struct {
	ProductID types.ID `json:"productId" validate:"required"`
	Size      string   `json:"size"`
	Quantity  int      `json:"quantity" validate:"gte=1"`
}

type updateCartPayload struct {
	CartItemID types.ID `json:"cartItemId" validate:"required"`
	Quantity   int      `json:"quantity"`
}

type removeCartPayload struct {
	CartItemID types.ID `json:"cartItemId"`
}

type mergeCartPayload struct {
	Cart []cart.Line `json:"cart"`
}

func CartGet(store *sandbox.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, store.Cart(middleware.UserIDFromContext(r.Context())))
	}
}

// CartAdd adds a line and answers with the updated cart.
func CartAdd(store *sandbox.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload addCartPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		lines, err := store.AddToCart(ctx, middleware.UserIDFromContext(ctx), cart.AddRequest{
			ProductID: payload.ProductID,
			Size:      payload.Size,
			Quantity:  payload.Quantity,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteJSON(w, http.StatusOK, lines)
	}
}

// CartUpdate sets a quantity and acknowledges without the cart.
func CartUpdate(store *sandbox.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload updateCartPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if _, err := store.UpdateCartItem(middleware.UserIDFromContext(ctx), payload.CartItemID, payload.Quantity); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, "Cart updated")
	}
}

// CartDelete removes one line, or every line when no id is given, and
// answers with the resulting cart.
func CartDelete(store *sandbox.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload removeCartPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		userID := middleware.UserIDFromContext(ctx)
		if payload.CartItemID == "" {
			responses.WriteJSON(w, http.StatusOK, store.ClearCart(userID))
			return
		}
		responses.WriteJSON(w, http.StatusOK, store.RemoveCartItem(userID, payload.CartItemID))
	}
}

func CartMerge(store *sandbox.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload mergeCartPayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		store.MergeCart(ctx, middleware.UserIDFromContext(ctx), payload.Cart)
		responses.WriteMessage(w, http.StatusOK, "Cart merged successfully")
	}
}
