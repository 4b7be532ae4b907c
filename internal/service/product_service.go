package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/shelfwatch/backend/internal/apperror"
	"github.com/shelfwatch/backend/internal/model"
	"github.com/shelfwatch/backend/internal/repository"
)

// ProductService handles product read/edit operations outside the
// tracking pipeline.
type ProductService struct {
	products repository.ProductRepositoryInterface
}

func NewProductService(products repository.ProductRepositoryInterface) *ProductService {
	return &ProductService{products: products}
}

// UpdateProductInput carries user-editable fields. Nil means unchanged.
type UpdateProductInput struct {
	Title          *string          `json:"title,omitempty"`
	Brand          *string          `json:"brand,omitempty"`
	Category       *string          `json:"category,omitempty"`
	Description    *string          `json:"description,omitempty"`
	Active         *bool            `json:"active,omitempty"`
	PriceThreshold *decimal.Decimal `json:"priceThreshold,omitempty"`
	RankThreshold  *decimal.Decimal `json:"rankThreshold,omitempty"`
}

func (s *ProductService) List(ctx context.Context, userID uuid.UUID) ([]model.Product, error) {
	return s.products.ListByUser(ctx, userID)
}

func (s *ProductService) Get(ctx context.Context, id, userID uuid.UUID) (*model.Product, error) {
	product, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, id, userID uuid.UUID, input UpdateProductInput) (*model.Product, error) {
	product, err := s.getOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		product.Title = *input.Title
	}
	if input.Brand != nil {
		product.Brand = *input.Brand
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Active != nil {
		if *input.Active && product.Unlisted {
			return nil, apperror.BadRequest("an unlisted product cannot be reactivated")
		}
		product.Active = *input.Active
	}
	if input.PriceThreshold != nil {
		if input.PriceThreshold.IsNegative() {
			return nil, apperror.ValidationError("priceThreshold", "must not be negative")
		}
		product.PriceThreshold = *input.PriceThreshold
	}
	if input.RankThreshold != nil {
		if input.RankThreshold.IsNegative() {
			return nil, apperror.ValidationError("rankThreshold", "must not be negative")
		}
		product.RankThreshold = *input.RankThreshold
	}

	if err := s.products.Update(ctx, product); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}
	return product, nil
}

func (s *ProductService) Delete(ctx context.Context, id, userID uuid.UUID) error {
	err := s.products.Delete(ctx, id, userID)
	if errors.Is(err, repository.ErrProductNotFound) {
		return apperror.NotFound("product")
	}
	return err
}

func (s *ProductService) getOwned(ctx context.Context, id, userID uuid.UUID) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			return nil, apperror.NotFound("product")
		}
		return nil, err
	}
	if product.UserID == nil || *product.UserID != userID {
		return nil, apperror.Forbidden("product does not belong to user")
	}
	return product, nil
}
