package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shelfwatch/backend/internal/model"
)

//go:generate mockery --name=ProductRepositoryInterface --output=../mocks --outpkg=mocks
type ProductRepositoryInterface interface {
	Create(ctx context.Context, product *model.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	GetByASIN(ctx context.Context, asin, marketplace string) (*model.Product, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Product, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]model.Product, error)
	ListAllActive(ctx context.Context) ([]model.Product, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Product, error)
	Update(ctx context.Context, product *model.Product) error
	UpdateMetadata(ctx context.Context, product *model.Product) error
	MarkUnlisted(ctx context.Context, id uuid.UUID, at time.Time) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

//go:generate mockery --name=SnapshotRepositoryInterface --output=../mocks --outpkg=mocks
type SnapshotRepositoryInterface interface {
	Create(ctx context.Context, snapshot *model.Snapshot) error
	CreateWithProjection(ctx context.Context, snapshot *model.Snapshot) error
	GetLatest(ctx context.Context, productID uuid.UUID) (*model.Snapshot, error)
	GetLatestTwo(ctx context.Context, productID uuid.UUID) ([]model.Snapshot, error)
	GetLatestBefore(ctx context.Context, productID uuid.UUID, before time.Time) (*model.Snapshot, error)
	ListSince(ctx context.Context, productID uuid.UUID, since time.Time) ([]model.Snapshot, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

//go:generate mockery --name=AlertRepositoryInterface --output=../mocks --outpkg=mocks
type AlertRepositoryInterface interface {
	CreateBatch(ctx context.Context, alerts []model.Alert) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Alert, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Dismiss(ctx context.Context, id, userID uuid.UUID) error
}
