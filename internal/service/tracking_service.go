// Package service provides business logic for the application.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shelfwatch/backend/internal/apperror"
	"github.com/shelfwatch/backend/internal/cache"
	"github.com/shelfwatch/backend/internal/fetcher"
	"github.com/shelfwatch/backend/internal/logger"
	"github.com/shelfwatch/backend/internal/model"
	"github.com/shelfwatch/backend/internal/repository"
)

var asinPattern = regexp.MustCompile(`^[A-Z0-9]{10}$`)

// Default alert thresholds (percent) applied when a product is registered
// without explicit tracking configuration.
var (
	DefaultPriceThreshold = decimal.NewFromInt(10)
	DefaultRankThreshold  = decimal.NewFromInt(30)
)

// Severity boundaries. Price changes at or beyond 20% are critical; rank
// changes below 30% stay informational.
var (
	priceCriticalBound = decimal.NewFromInt(20)
	rankWarningBound   = decimal.NewFromInt(30)
)

// TrackingService orchestrates the tracking pipeline for one product:
// cache, fetcher, snapshot store, projection, change detection.
type TrackingService struct {
	products  repository.ProductRepositoryInterface
	snapshots repository.SnapshotRepositoryInterface
	alerts    repository.AlertRepositoryInterface
	fetcher   fetcher.Fetcher
	cache     cache.SnapshotCache
	notifier  AlertNotifier
}

// NewTrackingService creates a tracking service. notifier may be nil, in
// which case alerts are persisted but not dispatched.
func NewTrackingService(
	products repository.ProductRepositoryInterface,
	snapshots repository.SnapshotRepositoryInterface,
	alerts repository.AlertRepositoryInterface,
	f fetcher.Fetcher,
	c cache.SnapshotCache,
	notifier AlertNotifier,
) *TrackingService {
	return &TrackingService{
		products:  products,
		snapshots: snapshots,
		alerts:    alerts,
		fetcher:   f,
		cache:     c,
		notifier:  notifier,
	}
}

// TrackProductInput is the payload for registering a product.
type TrackProductInput struct {
	ASIN           string           `json:"asin"`
	Marketplace    string           `json:"marketplace"`
	PriceThreshold *decimal.Decimal `json:"priceThreshold,omitempty"`
	RankThreshold  *decimal.Decimal `json:"rankThreshold,omitempty"`
}

// Track registers a product for a user and attempts an immediate first
// refresh. A failed first fetch does not fail registration; the scheduled
// cycle will pick the product up.
func (s *TrackingService) Track(ctx context.Context, userID uuid.UUID, input TrackProductInput) (*model.Product, error) {
	if !asinPattern.MatchString(input.ASIN) {
		return nil, apperror.ValidationError("asin", "must be 10 uppercase alphanumeric characters")
	}
	if !model.ValidMarketplace(input.Marketplace) {
		return nil, apperror.ValidationError("marketplace", "unsupported marketplace")
	}

	// (asin, marketplace) is unique across the table.
	if _, err := s.products.GetByASIN(ctx, input.ASIN, input.Marketplace); err == nil {
		return nil, apperror.Conflict("product is already tracked")
	} else if !errors.Is(err, repository.ErrProductNotFound) {
		return nil, fmt.Errorf("check existing product: %w", err)
	}

	product := &model.Product{
		UserID:         &userID,
		ASIN:           input.ASIN,
		Marketplace:    input.Marketplace,
		Active:         true,
		PriceThreshold: DefaultPriceThreshold,
		RankThreshold:  DefaultRankThreshold,
	}
	if input.PriceThreshold != nil {
		product.PriceThreshold = *input.PriceThreshold
	}
	if input.RankThreshold != nil {
		product.RankThreshold = *input.RankThreshold
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	if _, err := s.Refresh(ctx, product, true); err != nil {
		logger.FromContext(ctx).Warn("initial refresh failed, will retry on schedule",
			slog.String("asin", product.ASIN),
			slog.String("error", err.Error()),
		)
	}

	return product, nil
}

// Update runs the cache-preferring tracking path. A cached snapshot within
// the freshness window is returned without touching the fetcher; otherwise
// the product is fetched, snapshotted, projected, cached, and checked for
// alert-worthy changes.
func (s *TrackingService) Update(ctx context.Context, product *model.Product) (*model.Snapshot, error) {
	if snapshot, ok := s.cache.Get(ctx, product.ID); ok {
		return snapshot, nil
	}

	data, err := s.fetch(ctx, product)
	if err != nil {
		return nil, err
	}

	snapshot := snapshotFromData(product.ID, data)
	if err := s.snapshots.CreateWithProjection(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	s.cache.Set(ctx, product.ID, snapshot)

	if err := s.detectChanges(ctx, product, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Refresh runs the cache-bypassing tracking path: the fetcher is always
// called, descriptive metadata is optionally overwritten from the fetched
// state, and the cache entry is invalidated so the next Update refetches.
func (s *TrackingService) Refresh(ctx context.Context, product *model.Product, updateMetadata bool) (*model.Snapshot, error) {
	data, err := s.fetch(ctx, product)
	if err != nil {
		return nil, err
	}

	if updateMetadata {
		if changed := applyMetadata(product, data); changed {
			if err := s.products.UpdateMetadata(ctx, product); err != nil {
				return nil, fmt.Errorf("update metadata: %w", err)
			}
		}
	}

	snapshot := snapshotFromData(product.ID, data)
	if err := s.snapshots.CreateWithProjection(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("persist snapshot: %w", err)
	}
	s.cache.Delete(ctx, product.ID)

	if err := s.detectChanges(ctx, product, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// fetch calls the provider and maps its sentinel errors onto the service
// taxonomy. A not-found result unlists the product before failing.
func (s *TrackingService) fetch(ctx context.Context, product *model.Product) (*fetcher.ProductData, error) {
	data, err := s.fetcher.Fetch(ctx, product.ASIN, product.Marketplace)
	switch {
	case err == nil:
		return data, nil
	case errors.Is(err, fetcher.ErrProductNotFound):
		now := time.Now()
		if markErr := s.products.MarkUnlisted(ctx, product.ID, now); markErr != nil {
			logger.FromContext(ctx).Error("failed to unlist product",
				slog.String("asin", product.ASIN),
				slog.String("error", markErr.Error()),
			)
		}
		product.Unlisted = true
		product.UnlistedAt = &now
		product.Active = false
		return nil, apperror.ProductGone(product.ASIN)
	case errors.Is(err, fetcher.ErrInvalidPayload):
		logger.FromContext(ctx).Warn("fetched payload invalid, skipping cycle",
			slog.String("asin", product.ASIN),
			slog.String("error", err.Error()),
		)
		return nil, apperror.ValidationError("payload", err.Error())
	default:
		return nil, apperror.FetchFailed(err)
	}
}

// detectChanges compares the newest snapshot against its predecessor and
// persists any threshold-crossing alerts as one all-or-nothing batch. It is
// a no-op for products without a prior snapshot or without an owning user.
func (s *TrackingService) detectChanges(ctx context.Context, product *model.Product, current *model.Snapshot) error {
	if product.UserID == nil {
		return nil
	}

	pair, err := s.snapshots.GetLatestTwo(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("load snapshot pair: %w", err)
	}
	var previous *model.Snapshot
	for i := range pair {
		if pair[i].ID != current.ID {
			previous = &pair[i]
			break
		}
	}
	if previous == nil {
		return nil
	}

	alerts := DetectAlerts(product, previous, current)
	if len(alerts) == 0 {
		return nil
	}

	if err := s.alerts.CreateBatch(ctx, alerts); err != nil {
		return fmt.Errorf("persist alerts: %w", err)
	}

	if s.notifier != nil {
		// Delivery is best-effort; failures are the notifier's problem.
		s.notifier.NotifyAlerts(ctx, product, alerts)
	}
	return nil
}

// DetectAlerts compares two consecutive snapshots under the product's
// thresholds. Emission requires the absolute percentage change to strictly
// exceed the threshold; a change of exactly the threshold does not alert.
func DetectAlerts(product *model.Product, previous, current *model.Snapshot) []model.Alert {
	var alerts []model.Alert

	base := model.Alert{
		ProductID:  product.ID,
		SnapshotID: current.ID,
		UserID:     *product.UserID,
	}

	// Price
	if previous.Price != nil && current.Price != nil && previous.Price.IsPositive() {
		if pct, ok := pctChange(*previous.Price, *current.Price); ok &&
			pct.Abs().GreaterThan(product.PriceThreshold) {
			a := base
			a.Kind = model.AlertKindPriceChange
			a.Severity = model.SeverityWarning
			if pct.Abs().GreaterThanOrEqual(priceCriticalBound) {
				a.Severity = model.SeverityCritical
			}
			a.OldValue = previous.Price.StringFixed(2)
			a.NewValue = current.Price.StringFixed(2)
			rounded := pct.Round(2)
			a.ChangePercent = &rounded
			alerts = append(alerts, a)
		}
	}

	// Rank: the sub-category rank is the primary signal. A falling rank
	// number is an improvement, so the sign carries direction.
	if previous.SubRank != nil && current.SubRank != nil && *previous.SubRank != 0 {
		old := decimal.NewFromInt(int64(*previous.SubRank))
		cur := decimal.NewFromInt(int64(*current.SubRank))
		if pct, ok := pctChange(old, cur); ok && pct.Abs().GreaterThan(product.RankThreshold) {
			a := base
			a.Kind = model.AlertKindRankChange
			a.Severity = model.SeverityInfo
			if pct.Abs().GreaterThanOrEqual(rankWarningBound) {
				a.Severity = model.SeverityWarning
			}
			a.OldValue = strconv.Itoa(*previous.SubRank)
			a.NewValue = strconv.Itoa(*current.SubRank)
			rounded := pct.Round(2)
			a.ChangePercent = &rounded
			alerts = append(alerts, a)
		}
	}

	// Stock: any flip alerts; going out of stock is critical.
	if previous.InStock != current.InStock {
		a := base
		a.Kind = model.AlertKindStockChange
		a.Severity = model.SeverityInfo
		if !current.InStock {
			a.Severity = model.SeverityCritical
		}
		a.OldValue = stockLabel(previous.InStock)
		a.NewValue = stockLabel(current.InStock)
		alerts = append(alerts, a)
	}

	return alerts
}

// pctChange returns ((new - old) / old) * 100, or ok=false when the
// denominator is zero. Callers branch on presence; there is no zero default.
func pctChange(old, new decimal.Decimal) (decimal.Decimal, bool) {
	if old.IsZero() {
		return decimal.Decimal{}, false
	}
	return new.Sub(old).Div(old).Mul(decimal.NewFromInt(100)), true
}

func stockLabel(inStock bool) string {
	if inStock {
		return "in_stock"
	}
	return "out_of_stock"
}

// snapshotFromData maps a validated fetch payload onto a snapshot row.
func snapshotFromData(productID uuid.UUID, data *fetcher.ProductData) *model.Snapshot {
	return &model.Snapshot{
		ProductID:       productID,
		Price:           data.Price,
		OriginalPrice:   data.OriginalPrice,
		BuyBoxPrice:     data.BuyBoxPrice,
		Currency:        data.Currency,
		DiscountPercent: data.DiscountPercent,
		MainRank:        data.MainRank,
		MainCategory:    data.MainCategory,
		SubRank:         data.SubRank,
		SubCategory:     data.SubCategory,
		Rating:          data.Rating,
		ReviewCount:     data.ReviewCount,
		InStock:         data.InStock,
		StockQuantity:   data.StockQuantity,
		StockStatus:     data.StockStatus,
		SellerName:      data.SellerName,
		SellerID:        data.SellerID,
		FulfilledBy:     data.FulfilledBy,
		CapturedAt:      time.Now().UTC(),
	}
}

// applyMetadata overwrites descriptive product fields from the fetched
// state, keeping existing values where the payload is empty. Reports
// whether anything changed.
func applyMetadata(product *model.Product, data *fetcher.ProductData) bool {
	changed := false
	if data.Title != "" && data.Title != product.Title {
		product.Title = data.Title
		changed = true
	}
	if data.Brand != "" && data.Brand != product.Brand {
		product.Brand = data.Brand
		changed = true
	}
	if data.Category != "" && data.Category != product.Category {
		product.Category = data.Category
		changed = true
	}
	if data.Description != "" && data.Description != product.Description {
		product.Description = data.Description
		changed = true
	}
	if data.ImageURL != "" && data.ImageURL != product.ImageURL {
		product.ImageURL = data.ImageURL
		changed = true
	}
	if len(data.Features) > 0 {
		product.Features = data.Features
		changed = true
	}
	if len(data.Specs) > 0 {
		if specs, err := json.Marshal(data.Specs); err == nil {
			product.Specs = specs
			changed = true
		}
	}
	return changed
}
