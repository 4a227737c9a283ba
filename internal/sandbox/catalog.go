package sandbox

import (
	"github.com/angelmondragon/storefront/internal/products"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/types"
)

// SeedCatalog is the product list the sandbox serves by default.
func SeedCatalog() []products.Product {
	return []products.Product{
		{ID: "1", Name: "Linen Shirt", Price: types.NewMoney(1800), ImageURL: "/images/linen-shirt.jpg", Sizes: "38-44", Category: "shirts", Description: "Breathable linen shirt with a relaxed fit."},
		{ID: "2", Name: "Oxford Shirt", Price: types.NewMoney(2200), ImageURL: "/images/oxford-shirt.jpg", Sizes: "38-44", Category: "shirts", Description: "Classic button-down oxford."},
		{ID: "3", Name: "Denim Jacket", Price: types.NewMoney(4500), ImageURL: "/images/denim-jacket.jpg", Sizes: "40–46", Category: "jackets", Description: "Washed denim jacket."},
		{ID: "4", Name: "Bomber Jacket", Price: types.NewMoney(5200), ImageURL: "/images/bomber.jpg", Sizes: "40,42,44", Category: "jackets", Description: "Lightweight bomber with ribbed cuffs."},
		{ID: "5", Name: "Chelsea Boots", Price: types.NewMoney(6800), ImageURL: "/images/chelsea.jpg", Sizes: "39-45", Category: "shoes", Description: "Leather chelsea boots."},
		{ID: "6", Name: "Canvas Sneakers", Price: types.NewMoney(3200), ImageURL: "/images/sneakers.jpg", Sizes: "36-45", Category: "shoes", Description: "Everyday canvas sneakers."},
		{ID: "7", Name: "Kids Sandals", Price: types.NewMoney(1500), ImageURL: "/images/sandals.jpg", Sizes: "29-36", Category: "shoes", Description: "Strapped sandals for kids."},
		{ID: "8", Name: "Chino Trousers", Price: types.NewMoney(2600), ImageURL: "/images/chinos.jpg", Sizes: "30-38", Category: "trousers", Description: "Slim chino trousers."},
		{ID: "9", Name: "Wool Scarf", Price: types.NewMoney(900), ImageURL: "/images/scarf.jpg", Category: "accessories", Description: "Soft merino scarf."},
		{ID: "10", Name: "Leather Belt", Price: types.NewMoney(1200), ImageURL: "/images/belt.jpg", Sizes: "30-40", Category: "accessories", Description: "Full-grain leather belt."},
		{ID: "11", Name: "Kikoi Wrap", Price: types.NewMoney(1100), ImageURL: "/images/kikoi.jpg", Category: "accessories", Description: "Hand-woven cotton kikoi."},
		{ID: "12", Name: "Maasai Shuka Throw", Price: types.NewMoney(1600), ImageURL: "/images/shuka.jpg", Category: "home", Description: "Checked shuka blanket."},
	}
}

func (s *Store) Products() []products.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]products.Product{}, s.catalog...)
}

func (s *Store) Product(id types.ID) (products.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.productLocked(id)
}

func (s *Store) productLocked(id types.ID) (products.Product, error) {
	for _, p := range s.catalog {
		if p.ID == id {
			return p, nil
		}
	}
	return products.Product{}, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found.")
}
