package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shelfwatch/backend/internal/apperror"
	"github.com/shelfwatch/backend/internal/model"
	"github.com/shelfwatch/backend/internal/repository"
)

// MetricKind selects which snapshot field family a comparison projects.
type MetricKind string

const (
	MetricPrice  MetricKind = "price"
	MetricRank   MetricKind = "rank"
	MetricRating MetricKind = "rating"
)

// MaxComparisonProducts caps a comparison request; extra ids are silently
// truncated.
const MaxComparisonProducts = 10

// metricField pairs a series field name with a pure extractor over a
// snapshot. The table is built once and never mutated.
type metricField struct {
	name    string
	extract func(*model.Snapshot) *decimal.Decimal
}

var comparisonMetrics = map[MetricKind][]metricField{
	MetricPrice: {
		{"price", func(s *model.Snapshot) *decimal.Decimal { return s.Price }},
		{"originalPrice", func(s *model.Snapshot) *decimal.Decimal { return s.OriginalPrice }},
		{"buyboxPrice", func(s *model.Snapshot) *decimal.Decimal { return s.BuyBoxPrice }},
	},
	MetricRank: {
		{"mainRank", func(s *model.Snapshot) *decimal.Decimal { return intField(s.MainRank) }},
		{"subRank", func(s *model.Snapshot) *decimal.Decimal { return intField(s.SubRank) }},
	},
	MetricRating: {
		{"rating", func(s *model.Snapshot) *decimal.Decimal { return floatField(s.Rating) }},
		{"reviewCount", func(s *model.Snapshot) *decimal.Decimal { return intField(s.ReviewCount) }},
	},
}

func intField(v *int) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromInt(int64(*v))
	return &d
}

func floatField(v *float64) *decimal.Decimal {
	if v == nil {
		return nil
	}
	d := decimal.NewFromFloat(*v)
	return &d
}

// ChangeSummary holds period-over-period percentage changes. A nil field
// means the change is unavailable (no anchor snapshot, missing operand, or
// a zero denominator) — never zero, never an error.
type ChangeSummary struct {
	Price       *decimal.Decimal `json:"price,omitempty"`
	Rank        *decimal.Decimal `json:"rank,omitempty"`
	Rating      *decimal.Decimal `json:"rating,omitempty"`
	ReviewDelta *int             `json:"reviewDelta,omitempty"` // raw difference, not a percentage
}

// ProductSummary is the rolling-window summary for one product.
type ProductSummary struct {
	ProductID   uuid.UUID      `json:"productId"`
	Latest      model.Snapshot `json:"latest"`
	WeekChange  ChangeSummary  `json:"weekChange"`
	MonthChange ChangeSummary  `json:"monthChange"`
}

// ComparisonPoint is one observation projected onto the requested metric
// family. Absent values stay nil.
type ComparisonPoint struct {
	CapturedAt time.Time                   `json:"capturedAt"`
	Values     map[string]*decimal.Decimal `json:"values"`
}

// ComparisonSeries is a single product's series within a comparison.
type ComparisonSeries struct {
	ProductID uuid.UUID         `json:"productId"`
	ASIN      string            `json:"asin"`
	Title     string            `json:"title"`
	Points    []ComparisonPoint `json:"points"`
}

// ComparisonResult aligns series for several products over a trailing
// window. CategoryAverage is optional: nil when the overlay cannot be
// computed, which is not an error.
type ComparisonResult struct {
	Metric          MetricKind         `json:"metric"`
	Days            int                `json:"days"`
	Series          []ComparisonSeries `json:"series"`
	CategoryAverage *ComparisonSeries  `json:"categoryAverage,omitempty"`
}

// MetricsService reads snapshot history and computes dashboard metrics.
// It degrades to "no value" instead of raising wherever data is missing,
// because partial series are the common case on dashboards.
type MetricsService struct {
	products  repository.ProductRepositoryInterface
	snapshots repository.SnapshotRepositoryInterface
}

func NewMetricsService(products repository.ProductRepositoryInterface, snapshots repository.SnapshotRepositoryInterface) *MetricsService {
	return &MetricsService{products: products, snapshots: snapshots}
}

// Summary computes 7-day and 30-day changes for a product. A summary
// cannot be produced from nothing: a product with no snapshots fails with
// not-found. Missing anchors degrade to unavailable change fields.
func (s *MetricsService) Summary(ctx context.Context, productID uuid.UUID) (*ProductSummary, error) {
	latest, err := s.snapshots.GetLatest(ctx, productID)
	if err != nil {
		if errors.Is(err, repository.ErrSnapshotNotFound) {
			return nil, apperror.NotFound("snapshot history")
		}
		return nil, fmt.Errorf("load latest snapshot: %w", err)
	}

	now := time.Now().UTC()
	summary := &ProductSummary{
		ProductID: productID,
		Latest:    *latest,
	}
	summary.WeekChange = s.changeSince(ctx, productID, latest, now.AddDate(0, 0, -7))
	summary.MonthChange = s.changeSince(ctx, productID, latest, now.AddDate(0, 0, -30))

	return summary, nil
}

func (s *MetricsService) changeSince(ctx context.Context, productID uuid.UUID, latest *model.Snapshot, anchor time.Time) ChangeSummary {
	old, err := s.snapshots.GetLatestBefore(ctx, productID, anchor)
	if err != nil {
		// No anchor snapshot: every change field stays unavailable.
		return ChangeSummary{}
	}

	var change ChangeSummary
	change.Price = optionalPctChange(old.Price, latest.Price)
	change.Rank = optionalPctChange(intField(old.SubRank), intField(latest.SubRank))
	change.Rating = optionalPctChange(floatField(old.Rating), floatField(latest.Rating))
	if old.ReviewCount != nil && latest.ReviewCount != nil {
		delta := *latest.ReviewCount - *old.ReviewCount
		change.ReviewDelta = &delta
	}
	return change
}

// optionalPctChange computes ((new - old) / old) * 100 and returns nil
// when either operand is absent or the denominator is zero.
func optionalPctChange(old, new *decimal.Decimal) *decimal.Decimal {
	if old == nil || new == nil {
		return nil
	}
	pct, ok := pctChange(*old, *new)
	if !ok {
		return nil
	}
	rounded := pct.Round(2)
	return &rounded
}

// Comparison builds aligned series for up to MaxComparisonProducts
// products over a trailing window. Products that do not exist are skipped
// silently.
func (s *MetricsService) Comparison(ctx context.Context, ids []uuid.UUID, metric MetricKind, days int) (*ComparisonResult, error) {
	fields, ok := comparisonMetrics[metric]
	if !ok {
		return nil, apperror.ValidationError("metric", "must be one of price, rank, rating")
	}
	if days <= 0 {
		days = 30
	}
	if len(ids) > MaxComparisonProducts {
		ids = ids[:MaxComparisonProducts]
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	result := &ComparisonResult{
		Metric: metric,
		Days:   days,
		Series: []ComparisonSeries{},
	}

	for _, id := range ids {
		product, err := s.products.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrProductNotFound) {
				continue
			}
			return nil, fmt.Errorf("load product %s: %w", id, err)
		}

		snapshots, err := s.snapshots.ListSince(ctx, id, since)
		if err != nil {
			return nil, fmt.Errorf("load snapshots for %s: %w", id, err)
		}

		series := ComparisonSeries{
			ProductID: product.ID,
			ASIN:      product.ASIN,
			Title:     product.Title,
			Points:    make([]ComparisonPoint, 0, len(snapshots)),
		}
		for i := range snapshots {
			point := ComparisonPoint{
				CapturedAt: snapshots[i].CapturedAt,
				Values:     make(map[string]*decimal.Decimal, len(fields)),
			}
			for _, field := range fields {
				point.Values[field.name] = field.extract(&snapshots[i])
			}
			series.Points = append(series.Points, point)
		}
		result.Series = append(result.Series, series)
	}

	// No category-average source is wired yet; the overlay stays omitted.
	return result, nil
}
