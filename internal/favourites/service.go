package favourites

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/internal/notifications"
	"github.com/angelmondragon/storefront/internal/products"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

const (
	FeaturedTitle = "Featured Products"
	FeaturedLimit = 8

	msgAddFailed    = "Could not add to favourites."
	msgFetchFailed  = "Could not fetch product details to save locally."
	msgRemoveFailed = "Could not remove from favourites."
)

// Entry is a favourited product with its display fields.
type Entry = products.Product

// API is the backend favourites surface.
type API interface {
	Favourites(ctx context.Context) ([]Entry, error)
	AddFavourite(ctx context.Context, productID types.ID) error
	RemoveFavourite(ctx context.Context, productID types.ID) error
}

// AuthProber answers whether the session is authenticated.
type AuthProber interface {
	IsLoggedIn(ctx context.Context) (bool, error)
}

// Store persists guest favourites.
type Store interface {
	Load(ctx context.Context) []Entry
	Save(ctx context.Context, entries []Entry)
	Clear(ctx context.Context)
}

// ServiceParams groups dependencies for the favourites aggregator.
type ServiceParams struct {
	API      API
	Auth     AuthProber
	Store    Store
	Catalog  products.Catalog
	Notifier notifications.Notifier
	Logger   *logger.Logger
}

// Service aggregates guest favourites held locally with the account's
// favourites on the server.
type Service struct {
	api      API
	auth     AuthProber
	store    Store
	catalog  products.Catalog
	notifier notifications.Notifier
	logg     *logger.Logger
}

// Recommendation is a titled product list shown next to favourites.
type Recommendation struct {
	Title    string             `json:"title"`
	Products []products.Product `json:"products"`
}

func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favourites api is required")
	}
	if params.Auth == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "auth prober is required")
	}
	if params.Store == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "favourites store is required")
	}
	if params.Catalog == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "catalog is required")
	}
	s := &Service{
		api:      params.API,
		auth:     params.Auth,
		store:    params.Store,
		catalog:  params.Catalog,
		notifier: params.Notifier,
		logg:     params.Logger,
	}
	if s.notifier == nil {
		s.notifier = notifications.Discard{}
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	return s, nil
}

// List unions local entries with server entries when authenticated. Entries
// sharing an id keep the first position and the last value seen.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	local := s.store.Load(ctx)
	if !s.loggedIn(ctx) {
		return Union(local), nil
	}
	server, err := s.api.Favourites(ctx)
	if err != nil {
		s.logg.Error(ctx, "fetching server favourites failed", err)
		return Union(local), nil
	}
	return Union(local, server), nil
}

// IDs returns the set of favourited product ids.
func (s *Service) IDs(ctx context.Context) (map[types.ID]bool, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make(map[types.ID]bool, len(entries))
	for _, entry := range entries {
		ids[entry.ID] = true
	}
	return ids, nil
}

// Add favourites a product on the server for authenticated sessions. Guests
// store the full product locally, which needs one catalog read; a failed
// read aborts the add.
func (s *Service) Add(ctx context.Context, productID types.ID, name string) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	ctx = s.logg.WithField(ctx, "product_id", productID.String())

	if s.loggedIn(ctx) {
		if err := s.api.AddFavourite(ctx, productID); err != nil {
			s.logg.Error(ctx, "adding server favourite failed", err)
			s.notifier.Notify(ctx, notifications.Error(msgAddFailed))
			return err
		}
		s.notifier.Notify(ctx, notifications.Success(fmt.Sprintf("%s added to favourites!", name)))
		return nil
	}

	entries := s.store.Load(ctx)
	for _, existing := range entries {
		if existing.ID != productID {
			continue
		}
		if name == "" {
			name = existing.Name
		}
		s.notifier.Notify(ctx, notifications.Success(fmt.Sprintf("%s added to local favourites!", name)))
		return nil
	}

	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		s.logg.Error(ctx, "fetching product for local favourite failed", err)
		s.notifier.Notify(ctx, notifications.Error(msgFetchFailed))
		return err
	}
	product = product.Normalize()
	if name == "" {
		name = product.Name
	}

	s.store.Save(ctx, append(entries, product))
	s.notifier.Notify(ctx, notifications.Success(fmt.Sprintf("%s added to local favourites!", name)))
	return nil
}

// Remove drops the entry locally first, then on the server for
// authenticated sessions. Server failures do not restore the local entry.
func (s *Service) Remove(ctx context.Context, productID types.ID) error {
	if productID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	ctx = s.logg.WithField(ctx, "product_id", productID.String())

	entries := s.store.Load(ctx)
	if remaining, found := without(entries, productID); found {
		s.store.Save(ctx, remaining)
	}

	if !s.loggedIn(ctx) {
		return nil
	}
	if err := s.api.RemoveFavourite(ctx, productID); err != nil {
		s.logg.Error(ctx, "removing server favourite failed", err)
		s.notifier.Notify(ctx, notifications.Error(msgRemoveFailed))
		return err
	}
	return nil
}

// Recommend suggests products in the category of the most recent
// favourite, falling back to featured products.
func (s *Service) Recommend(ctx context.Context) (Recommendation, error) {
	favs, err := s.List(ctx)
	if err != nil {
		return Recommendation{}, err
	}
	all, err := s.catalog.Products(ctx)
	if err != nil {
		return Recommendation{}, err
	}
	for i := range all {
		all[i] = all[i].Normalize()
	}
	return Recommend(favs, all), nil
}

// Recommend is the pure selection behind Service.Recommend.
func Recommend(favs, all []products.Product) Recommendation {
	if len(favs) == 0 {
		return Recommendation{Title: FeaturedTitle, Products: firstN(all, FeaturedLimit)}
	}

	favourited := make(map[types.ID]bool, len(favs))
	for _, f := range favs {
		favourited[f.ID] = true
	}
	category := favs[len(favs)-1].Category

	sameCategory := []products.Product{}
	others := []products.Product{}
	for _, p := range all {
		if favourited[p.ID] {
			continue
		}
		others = append(others, p)
		if category != "" && p.Category == category {
			sameCategory = append(sameCategory, p)
		}
	}
	if len(sameCategory) > 0 {
		return Recommendation{Title: "More in " + category, Products: sameCategory}
	}
	return Recommendation{Title: FeaturedTitle, Products: firstN(others, FeaturedLimit)}
}

// Union merges entry lists in order, de-duplicating by id.
func Union(lists ...[]Entry) []Entry {
	out := []Entry{}
	index := map[types.ID]int{}
	for _, list := range lists {
		for _, entry := range list {
			if i, ok := index[entry.ID]; ok {
				out[i] = entry
				continue
			}
			index[entry.ID] = len(out)
			out = append(out, entry)
		}
	}
	return out
}

func (s *Service) loggedIn(ctx context.Context) bool {
	ok, err := s.auth.IsLoggedIn(ctx)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "auth check failed, treating session as guest")
		return false
	}
	return ok
}

func without(entries []Entry, id types.ID) ([]Entry, bool) {
	out := make([]Entry, 0, len(entries))
	found := false
	for _, entry := range entries {
		if entry.ID == id {
			found = true
			continue
		}
		out = append(out, entry)
	}
	return out, found
}

func firstN(list []products.Product, n int) []products.Product {
	if len(list) > n {
		list = list[:n]
	}
	return append([]products.Product{}, list...)
}
