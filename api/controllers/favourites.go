package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/storefront/api/middleware"
	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/sandbox"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

type addFavouritePayload struct {
	ProductID types.ID `json:"productId" validate:"required"`
}

func FavouritesList(store *sandbox.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteJSON(w, http.StatusOK, store.Favourites(middleware.UserIDFromContext(r.Context())))
	}
}

func FavouritesAdd(store *sandbox.Store, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		var payload addFavouritePayload
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		if err := store.AddFavourite(middleware.UserIDFromContext(ctx), payload.ProductID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusCreated, "Added to favourites")
	}
}

// FavouritesRemove is idempotent.
func FavouritesRemove(store *sandbox.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		store.RemoveFavourite(middleware.UserIDFromContext(r.Context()), types.ID(chi.URLParam(r, "productID")))
		responses.WriteMessage(w, http.StatusOK, "Removed from favourites")
	}
}
