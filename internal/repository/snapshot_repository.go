package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shelfwatch/backend/internal/model"
)

var ErrSnapshotNotFound = errors.New("snapshot not found")

type SnapshotRepository struct {
	db *sqlx.DB
}

func NewSnapshotRepository(db *sqlx.DB) *SnapshotRepository {
	return &SnapshotRepository{db: db}
}

const insertSnapshotQuery = `
	INSERT INTO snapshots (id, product_id, price, original_price, buybox_price, currency, discount_percent,
		main_rank, main_category, sub_rank, sub_category, rating, review_count,
		in_stock, stock_quantity, stock_status, seller_name, seller_id, fulfilled_by, captured_at, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW())
	RETURNING created_at`

func snapshotArgs(s *model.Snapshot) []interface{} {
	return []interface{}{
		s.ID, s.ProductID, s.Price, s.OriginalPrice, s.BuyBoxPrice, s.Currency, s.DiscountPercent,
		s.MainRank, s.MainCategory, s.SubRank, s.SubCategory, s.Rating, s.ReviewCount,
		s.InStock, s.StockQuantity, s.StockStatus, s.SellerName, s.SellerID, s.FulfilledBy, s.CapturedAt,
	}
}

func (r *SnapshotRepository) Create(ctx context.Context, snapshot *model.Snapshot) error {
	snapshot.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, insertSnapshotQuery, snapshotArgs(snapshot)...).
		Scan(&snapshot.CreatedAt)
}

// CreateWithProjection appends the snapshot and updates the product's
// current-state projection in one transaction, so the projection always
// mirrors the latest snapshot.
func (r *SnapshotRepository) CreateWithProjection(ctx context.Context, snapshot *model.Snapshot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	snapshot.ID = uuid.New()
	if err := tx.QueryRowxContext(ctx, insertSnapshotQuery, snapshotArgs(snapshot)...).
		Scan(&snapshot.CreatedAt); err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}

	// last_snapshot_at guards against an older concurrent refresh clobbering
	// a newer projection: last write wins by capture time, not arrival time.
	projectionQuery := `
		UPDATE products
		SET current_price = $2, current_rank = $3, current_rating = $4,
		    in_stock = $5, stock_status = $6, last_snapshot_at = $7, updated_at = NOW()
		WHERE id = $1 AND (last_snapshot_at IS NULL OR last_snapshot_at <= $7)`
	if _, err := tx.ExecContext(ctx, projectionQuery,
		snapshot.ProductID, snapshot.Price, snapshot.SubRank, snapshot.Rating,
		snapshot.InStock, snapshot.StockStatus, snapshot.CapturedAt,
	); err != nil {
		return fmt.Errorf("update projection: %w", err)
	}

	return tx.Commit()
}

func (r *SnapshotRepository) GetLatest(ctx context.Context, productID uuid.UUID) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	query := `SELECT * FROM snapshots WHERE product_id = $1 ORDER BY captured_at DESC LIMIT 1`
	err := r.db.GetContext(ctx, &snapshot, query, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	return &snapshot, err
}

// GetLatestTwo returns the newest snapshot and its predecessor, newest
// first. Change detection compares exactly these two.
func (r *SnapshotRepository) GetLatestTwo(ctx context.Context, productID uuid.UUID) ([]model.Snapshot, error) {
	var snapshots []model.Snapshot
	query := `SELECT * FROM snapshots WHERE product_id = $1 ORDER BY captured_at DESC LIMIT 2`
	err := r.db.SelectContext(ctx, &snapshots, query, productID)
	return snapshots, err
}

// GetLatestBefore returns the most recent snapshot captured at or before
// the given instant, used as the 7d/30d comparison anchor.
func (r *SnapshotRepository) GetLatestBefore(ctx context.Context, productID uuid.UUID, before time.Time) (*model.Snapshot, error) {
	var snapshot model.Snapshot
	query := `SELECT * FROM snapshots WHERE product_id = $1 AND captured_at <= $2 ORDER BY captured_at DESC LIMIT 1`
	err := r.db.GetContext(ctx, &snapshot, query, productID, before)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSnapshotNotFound
	}
	return &snapshot, err
}

func (r *SnapshotRepository) ListSince(ctx context.Context, productID uuid.UUID, since time.Time) ([]model.Snapshot, error) {
	var snapshots []model.Snapshot
	query := `SELECT * FROM snapshots WHERE product_id = $1 AND captured_at >= $2 ORDER BY captured_at ASC`
	err := r.db.SelectContext(ctx, &snapshots, query, productID, since)
	return snapshots, err
}

// DeleteOlderThan purges snapshots captured before the cutoff. Alerts and
// the projection are left untouched.
func (r *SnapshotRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `DELETE FROM snapshots WHERE captured_at < $1`
	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge snapshots: %w", err)
	}
	return result.RowsAffected()
}
