package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/shelfwatch/backend/internal/model"
)

var ErrProductNotFound = errors.New("product not found")

type ProductRepository struct {
	db *sqlx.DB
}

func NewProductRepository(db *sqlx.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

func (r *ProductRepository) Create(ctx context.Context, product *model.Product) error {
	query := `
		INSERT INTO products (id, user_id, asin, marketplace, title, brand, category, description,
			features, specs, image_url, active, price_threshold, rank_threshold, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
		RETURNING created_at, updated_at`

	product.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		product.ID, product.UserID, product.ASIN, product.Marketplace,
		product.Title, product.Brand, product.Category, product.Description,
		product.Features, product.Specs, product.ImageURL,
		product.Active, product.PriceThreshold, product.RankThreshold,
	).Scan(&product.CreatedAt, &product.UpdatedAt)
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1`
	err := r.db.GetContext(ctx, &product, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return &product, err
}

func (r *ProductRepository) GetByASIN(ctx context.Context, asin, marketplace string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE asin = $1 AND marketplace = $2`
	err := r.db.GetContext(ctx, &product, query, asin, marketplace)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	return &product, err
}

func (r *ProductRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	query := `SELECT * FROM products WHERE user_id = $1 ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &products, query, userID)
	return products, err
}

func (r *ProductRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	query := `SELECT * FROM products WHERE user_id = $1 AND active = true ORDER BY created_at DESC`
	err := r.db.SelectContext(ctx, &products, query, userID)
	return products, err
}

func (r *ProductRepository) ListAllActive(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	query := `SELECT * FROM products WHERE active = true ORDER BY last_snapshot_at ASC NULLS FIRST`
	err := r.db.SelectContext(ctx, &products, query)
	return products, err
}

func (r *ProductRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []model.Product
	query := `SELECT * FROM products WHERE id = ANY($1)`
	err := r.db.SelectContext(ctx, &products, query, pq.Array(ids))
	return products, err
}

// Update writes user-editable fields: display metadata and tracking config.
func (r *ProductRepository) Update(ctx context.Context, product *model.Product) error {
	query := `
		UPDATE products
		SET title = $2, brand = $3, category = $4, description = $5, features = $6, specs = $7,
		    image_url = $8, active = $9, price_threshold = $10, rank_threshold = $11, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.db.QueryRowxContext(ctx, query,
		product.ID, product.Title, product.Brand, product.Category, product.Description,
		product.Features, product.Specs, product.ImageURL,
		product.Active, product.PriceThreshold, product.RankThreshold,
	).Scan(&product.UpdatedAt)
}

// UpdateMetadata overwrites only descriptive fields, used when a refresh
// carries fresh metadata from the marketplace.
func (r *ProductRepository) UpdateMetadata(ctx context.Context, product *model.Product) error {
	query := `
		UPDATE products
		SET title = $2, brand = $3, category = $4, description = $5, features = $6, specs = $7,
		    image_url = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	return r.db.QueryRowxContext(ctx, query,
		product.ID, product.Title, product.Brand, product.Category, product.Description,
		product.Features, product.Specs, product.ImageURL,
	).Scan(&product.UpdatedAt)
}

// MarkUnlisted records the terminal state transition applied when the
// marketplace no longer lists the product. Tracking is deactivated.
func (r *ProductRepository) MarkUnlisted(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE products
		SET unlisted = true, unlisted_at = $2, active = false, updated_at = NOW()
		WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	query := `DELETE FROM products WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrProductNotFound
	}
	return nil
}
