package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shelfwatch/backend/internal/apperror"
	"github.com/shelfwatch/backend/internal/model"
	"github.com/shelfwatch/backend/internal/repository"
)

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestProductService_Get(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	tests := []struct {
		name       string
		setupMock  func(*MockProductRepo, uuid.UUID)
		wantErr    bool
		wantStatus int
	}{
		{
			name: "success",
			setupMock: func(m *MockProductRepo, id uuid.UUID) {
				m.On("GetByID", mock.Anything, id).Return(&model.Product{ID: id, UserID: &userID}, nil)
			},
		},
		{
			name: "not found",
			setupMock: func(m *MockProductRepo, id uuid.UUID) {
				m.On("GetByID", mock.Anything, id).Return(nil, repository.ErrProductNotFound)
			},
			wantErr:    true,
			wantStatus: 404,
		},
		{
			name: "foreign product",
			setupMock: func(m *MockProductRepo, id uuid.UUID) {
				other := uuid.New()
				m.On("GetByID", mock.Anything, id).Return(&model.Product{ID: id, UserID: &other}, nil)
			},
			wantErr:    true,
			wantStatus: 403,
		},
		{
			name: "ownerless product",
			setupMock: func(m *MockProductRepo, id uuid.UUID) {
				m.On("GetByID", mock.Anything, id).Return(&model.Product{ID: id}, nil)
			},
			wantErr:    true,
			wantStatus: 403,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := new(MockProductRepo)
			id := uuid.New()
			tt.setupMock(repo, id)

			svc := NewProductService(repo)
			product, err := svc.Get(context.Background(), id, userID)

			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, product)
				assert.Equal(t, tt.wantStatus, apperror.GetStatusCode(err))
			} else {
				assert.NoError(t, err)
				assert.Equal(t, id, product.ID)
			}
		})
	}
}

func TestProductService_Update(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("applies provided fields only", func(t *testing.T) {
		t.Parallel()

		repo := new(MockProductRepo)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&model.Product{
			ID: id, UserID: &userID, Title: "Old", Brand: "KeepMe", Active: true,
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*model.Product")).Return(nil)

		svc := NewProductService(repo)
		product, err := svc.Update(context.Background(), id, userID, UpdateProductInput{
			Title: strPtr("New"),
		})

		assert.NoError(t, err)
		assert.Equal(t, "New", product.Title)
		assert.Equal(t, "KeepMe", product.Brand)
		assert.True(t, product.Active)
	})

	t.Run("unlisted product cannot be reactivated", func(t *testing.T) {
		t.Parallel()

		repo := new(MockProductRepo)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&model.Product{
			ID: id, UserID: &userID, Unlisted: true, Active: false,
		}, nil)

		svc := NewProductService(repo)
		product, err := svc.Update(context.Background(), id, userID, UpdateProductInput{
			Active: boolPtr(true),
		})

		assert.Error(t, err)
		assert.Nil(t, product)
		assert.Equal(t, 400, apperror.GetStatusCode(err))
		repo.AssertNotCalled(t, "Update")
	})

	t.Run("deactivating an unlisted product is fine", func(t *testing.T) {
		t.Parallel()

		repo := new(MockProductRepo)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&model.Product{
			ID: id, UserID: &userID, Unlisted: true, Active: true,
		}, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*model.Product")).Return(nil)

		svc := NewProductService(repo)
		product, err := svc.Update(context.Background(), id, userID, UpdateProductInput{
			Active: boolPtr(false),
		})

		assert.NoError(t, err)
		assert.False(t, product.Active)
	})

	t.Run("negative threshold rejected", func(t *testing.T) {
		t.Parallel()

		repo := new(MockProductRepo)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(&model.Product{ID: id, UserID: &userID}, nil)

		svc := NewProductService(repo)
		_, err := svc.Update(context.Background(), id, userID, UpdateProductInput{
			PriceThreshold: decPtr(-5),
		})

		assert.Error(t, err)
		assert.Equal(t, 400, apperror.GetStatusCode(err))
	})
}

func TestProductService_Delete(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		repo := new(MockProductRepo)
		id := uuid.New()
		repo.On("Delete", mock.Anything, id, userID).Return(nil)

		svc := NewProductService(repo)
		assert.NoError(t, svc.Delete(context.Background(), id, userID))
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()

		repo := new(MockProductRepo)
		id := uuid.New()
		repo.On("Delete", mock.Anything, id, userID).Return(repository.ErrProductNotFound)

		svc := NewProductService(repo)
		err := svc.Delete(context.Background(), id, userID)

		assert.Error(t, err)
		assert.Equal(t, 404, apperror.GetStatusCode(err))
	})
}
