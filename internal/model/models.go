package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a marketplace catalog item being tracked for a user.
// The Current* fields mirror the most recent snapshot so dashboards can
// read current state without scanning history.
type Product struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	UserID      *uuid.UUID `db:"user_id" json:"userId,omitempty"`
	ASIN        string     `db:"asin" json:"asin"`
	Marketplace string     `db:"marketplace" json:"marketplace"`

	Title       string         `db:"title" json:"title"`
	Brand       string         `db:"brand" json:"brand"`
	Category    string         `db:"category" json:"category"`
	Description string         `db:"description" json:"description"`
	Features    pq.StringArray `db:"features" json:"features"`
	Specs       types.JSONText `db:"specs" json:"specs,omitempty"`
	ImageURL    string         `db:"image_url" json:"imageUrl"`

	Active         bool            `db:"active" json:"active"`
	PriceThreshold decimal.Decimal `db:"price_threshold" json:"priceThreshold"` // percent
	RankThreshold  decimal.Decimal `db:"rank_threshold" json:"rankThreshold"`   // percent

	// Projection of the latest snapshot.
	CurrentPrice   *decimal.Decimal `db:"current_price" json:"currentPrice,omitempty"`
	CurrentRank    *int             `db:"current_rank" json:"currentRank,omitempty"`
	CurrentRating  *float64         `db:"current_rating" json:"currentRating,omitempty"`
	InStock        *bool            `db:"in_stock" json:"inStock,omitempty"`
	StockStatus    *string          `db:"stock_status" json:"stockStatus,omitempty"`
	LastSnapshotAt *time.Time       `db:"last_snapshot_at" json:"lastSnapshotAt,omitempty"`

	Unlisted   bool       `db:"unlisted" json:"unlisted"`
	UnlistedAt *time.Time `db:"unlisted_at" json:"unlistedAt,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// Snapshot is an immutable point-in-time observation of a product.
// Ordering key is (product_id, captured_at). Snapshots are never updated;
// the only delete path is the retention purge.
type Snapshot struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ProductID uuid.UUID `db:"product_id" json:"productId"`

	Price           *decimal.Decimal `db:"price" json:"price,omitempty"`
	OriginalPrice   *decimal.Decimal `db:"original_price" json:"originalPrice,omitempty"`
	BuyBoxPrice     *decimal.Decimal `db:"buybox_price" json:"buyboxPrice,omitempty"`
	Currency        string           `db:"currency" json:"currency"`
	DiscountPercent *decimal.Decimal `db:"discount_percent" json:"discountPercent,omitempty"`

	MainRank     *int   `db:"main_rank" json:"mainRank,omitempty"`
	MainCategory string `db:"main_category" json:"mainCategory"`
	SubRank      *int   `db:"sub_rank" json:"subRank,omitempty"`
	SubCategory  string `db:"sub_category" json:"subCategory"`

	Rating      *float64 `db:"rating" json:"rating,omitempty"`
	ReviewCount *int     `db:"review_count" json:"reviewCount,omitempty"`

	InStock       bool   `db:"in_stock" json:"inStock"`
	StockQuantity *int   `db:"stock_quantity" json:"stockQuantity,omitempty"`
	StockStatus   string `db:"stock_status" json:"stockStatus"`

	SellerName  string `db:"seller_name" json:"sellerName"`
	SellerID    string `db:"seller_id" json:"sellerId"`
	FulfilledBy string `db:"fulfilled_by" json:"fulfilledBy"` // "FBA", "FBM", "AMZ"

	CapturedAt time.Time `db:"captured_at" json:"capturedAt"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

type AlertKind string

const (
	AlertKindPriceChange AlertKind = "price_change"
	AlertKindRankChange  AlertKind = "rank_change"
	AlertKindStockChange AlertKind = "stock_change"
)

type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// Alert records a significant change between two consecutive snapshots.
// At most one alert of a given kind exists per (product, snapshot) pair.
// Only the Read and Dismissed flags are ever mutated.
type Alert struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ProductID  uuid.UUID `db:"product_id" json:"productId"`
	SnapshotID uuid.UUID `db:"snapshot_id" json:"snapshotId"`
	UserID     uuid.UUID `db:"user_id" json:"userId"`

	Kind     AlertKind     `db:"kind" json:"kind"`
	Severity AlertSeverity `db:"severity" json:"severity"`

	OldValue      string           `db:"old_value" json:"oldValue"`
	NewValue      string           `db:"new_value" json:"newValue"`
	ChangePercent *decimal.Decimal `db:"change_percent" json:"changePercent,omitempty"`

	Read      bool `db:"read" json:"read"`
	Dismissed bool `db:"dismissed" json:"dismissed"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Marketplace codes accepted by the fetcher.
var Marketplaces = []string{"US", "CA", "UK", "DE", "FR", "IT", "ES", "JP", "AU", "IN"}

// ValidMarketplace reports whether code is a supported marketplace.
func ValidMarketplace(code string) bool {
	for _, m := range Marketplaces {
		if m == code {
			return true
		}
	}
	return false
}
