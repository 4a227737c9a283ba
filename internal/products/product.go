package products

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/angelmondragon/storefront/pkg/types"
)

// Product is a catalog entry as served by the storefront API.
type Product struct {
	ID          types.ID    `json:"id"`
	Name        string      `json:"name"`
	Price       types.Money `json:"price"`
	ImageURL    string      `json:"image_url,omitempty"`
	Image       string      `json:"image,omitempty"`
	Sizes       string      `json:"sizes,omitempty"`
	Category    string      `json:"category,omitempty"`
	Description string      `json:"description,omitempty"`
}

// Normalize fills image_url from the legacy image field.
func (p Product) Normalize() Product {
	if p.ImageURL == "" {
		p.ImageURL = p.Image
	}
	p.Image = ""
	return p
}

// SizeOptions returns the selectable sizes.
func (p Product) SizeOptions() []string {
	return ExpandSizes(p.Sizes)
}

// Catalog reads products from the backend.
type Catalog interface {
	Products(ctx context.Context) ([]Product, error)
	Product(ctx context.Context, id types.ID) (Product, error)
}

var rangeRe = regexp.MustCompile(`^(\d+)\s*-\s*(\d+)$`)
var numberRe = regexp.MustCompile(`^\d+$`)

// ExpandSizes turns "29-31, 40" into [29 30 31 40]. En and em dashes count
// as hyphens, reversed ranges are swapped and non-numeric tokens are
// dropped. Duplicates keep their first position.
func ExpandSizes(sizes string) []string {
	if strings.TrimSpace(sizes) == "" {
		return []string{}
	}
	normalized := strings.NewReplacer("—", "-", "–", "-").Replace(sizes)

	out := []string{}
	seen := map[string]bool{}
	push := func(s string) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, raw := range strings.Split(normalized, ",") {
		part := strings.TrimSpace(raw)
		if part == "" {
			continue
		}
		if m := rangeRe.FindStringSubmatch(part); m != nil {
			start, err1 := strconv.Atoi(m[1])
			end, err2 := strconv.Atoi(m[2])
			if err1 != nil || err2 != nil {
				continue
			}
			if end < start {
				start, end = end, start
			}
			for i := start; i <= end; i++ {
				push(strconv.Itoa(i))
			}
			continue
		}
		if numberRe.MatchString(part) {
			push(part)
		}
	}
	return out
}

// Related returns up to limit products sharing p's category, excluding p.
func Related(all []Product, p Product, limit int) []Product {
	out := []Product{}
	for _, candidate := range all {
		if limit > 0 && len(out) >= limit {
			break
		}
		if candidate.ID == p.ID || candidate.Category != p.Category {
			continue
		}
		out = append(out, candidate)
	}
	return out
}
