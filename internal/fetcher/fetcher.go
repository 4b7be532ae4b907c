// Package fetcher defines the contract for retrieving normalized product
// state from a marketplace and the HTTP provider implementing it.
package fetcher

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

// Sentinel errors returned by Fetch implementations.
var (
	// ErrProductNotFound means the marketplace no longer lists the product.
	// Terminal: callers unlist the product and stop tracking it.
	ErrProductNotFound = errors.New("product not found on marketplace")

	// ErrFetchFailed covers transient provider or network failures. A fetch
	// that times out falls under this; callers may retry on their own
	// schedule, the tracking core never retries automatically.
	ErrFetchFailed = errors.New("product fetch failed")

	// ErrInvalidPayload means the fetched data failed boundary validation.
	// The product is skipped for this cycle.
	ErrInvalidPayload = errors.New("fetched payload failed validation")
)

// ProductData is the normalized point-in-time state of a product as seen
// by the marketplace. Required fields are validated at the fetcher boundary
// so partial structures never propagate downstream.
type ProductData struct {
	ASIN        string
	Marketplace string

	Price           *decimal.Decimal
	OriginalPrice   *decimal.Decimal
	BuyBoxPrice     *decimal.Decimal
	Currency        string
	DiscountPercent *decimal.Decimal

	MainRank     *int
	MainCategory string
	SubRank      *int
	SubCategory  string

	Rating      *float64
	ReviewCount *int

	InStock       bool
	StockQuantity *int
	StockStatus   string

	SellerName  string
	SellerID    string
	FulfilledBy string

	// Descriptive fields, optional. Used by Refresh to update product
	// metadata when non-empty.
	Title       string
	Brand       string
	Category    string
	Description string
	Features    []string
	Specs       map[string]string
	ImageURL    string
}

// Fetcher retrieves normalized product state for an ASIN in a marketplace.
type Fetcher interface {
	Fetch(ctx context.Context, asin, marketplace string) (*ProductData, error)
}

// Validate checks the invariants every normalized payload must satisfy.
// Violations are reported as ErrInvalidPayload.
func (d *ProductData) Validate() error {
	if d.ASIN == "" {
		return errors.Join(ErrInvalidPayload, errors.New("missing asin"))
	}
	if d.Marketplace == "" {
		return errors.Join(ErrInvalidPayload, errors.New("missing marketplace"))
	}
	if d.Price != nil && d.Price.IsNegative() {
		return errors.Join(ErrInvalidPayload, errors.New("negative price"))
	}
	if d.MainRank != nil && *d.MainRank < 0 {
		return errors.Join(ErrInvalidPayload, errors.New("negative rank"))
	}
	if d.SubRank != nil && *d.SubRank < 0 {
		return errors.Join(ErrInvalidPayload, errors.New("negative sub rank"))
	}
	if d.Rating != nil && (*d.Rating < 0 || *d.Rating > 5) {
		return errors.Join(ErrInvalidPayload, errors.New("rating out of range"))
	}
	if d.ReviewCount != nil && *d.ReviewCount < 0 {
		return errors.Join(ErrInvalidPayload, errors.New("negative review count"))
	}
	return nil
}
