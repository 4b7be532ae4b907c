package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/shelfwatch/backend/internal/model"
)

var ErrAlertNotFound = errors.New("alert not found")

type AlertRepository struct {
	db *sqlx.DB
}

func NewAlertRepository(db *sqlx.DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// CreateBatch persists all alerts derived from one snapshot in a single
// transaction. All-or-nothing: a failed insert rolls back the whole set so
// a snapshot never ends up partially alerted.
func (r *AlertRepository) CreateBatch(ctx context.Context, alerts []model.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin alert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		INSERT INTO alerts (id, product_id, snapshot_id, user_id, kind, severity,
			old_value, new_value, change_percent, read, dismissed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, false, NOW())
		ON CONFLICT (snapshot_id, kind) DO NOTHING
		RETURNING created_at`

	for i := range alerts {
		a := &alerts[i]
		a.ID = uuid.New()
		err := tx.QueryRowxContext(ctx, query,
			a.ID, a.ProductID, a.SnapshotID, a.UserID, a.Kind, a.Severity,
			a.OldValue, a.NewValue, a.ChangePercent,
		).Scan(&a.CreatedAt)
		if errors.Is(err, sql.ErrNoRows) {
			// Conflict path: this (snapshot, kind) alert already exists.
			continue
		}
		if err != nil {
			return fmt.Errorf("insert %s alert: %w", a.Kind, err)
		}
	}

	return tx.Commit()
}

func (r *AlertRepository) ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Alert, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT * FROM alerts WHERE user_id = $1 AND dismissed = false`
	if unreadOnly {
		query += ` AND read = false`
	}
	query += ` ORDER BY created_at DESC LIMIT $2`

	var alerts []model.Alert
	err := r.db.SelectContext(ctx, &alerts, query, userID, limit)
	return alerts, err
}

func (r *AlertRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM alerts WHERE user_id = $1 AND read = false AND dismissed = false`
	err := r.db.GetContext(ctx, &count, query, userID)
	return count, err
}

func (r *AlertRepository) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	query := `UPDATE alerts SET read = true WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlertNotFound
	}
	return nil
}

func (r *AlertRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	query := `UPDATE alerts SET read = true WHERE user_id = $1 AND read = false`
	_, err := r.db.ExecContext(ctx, query, userID)
	return err
}

func (r *AlertRepository) Dismiss(ctx context.Context, id, userID uuid.UUID) error {
	query := `UPDATE alerts SET dismissed = true WHERE id = $1 AND user_id = $2`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlertNotFound
	}
	return nil
}
