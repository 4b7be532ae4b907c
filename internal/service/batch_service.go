package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/shelfwatch/backend/internal/apperror"
	"github.com/shelfwatch/backend/internal/logger"
	"github.com/shelfwatch/backend/internal/model"
	"github.com/shelfwatch/backend/internal/repository"
)

// productTracker is the slice of TrackingService the batch runner needs.
type productTracker interface {
	Refresh(ctx context.Context, product *model.Product, updateMetadata bool) (*model.Snapshot, error)
}

// BatchError records one product's failure inside a batch.
type BatchError struct {
	ProductID uuid.UUID `json:"productId"`
	ASIN      string    `json:"asin"`
	Message   string    `json:"message"`
}

// BatchResult aggregates a batch run. A batch never rolls back: partial
// success is reported, not undone.
type BatchResult struct {
	Success int          `json:"success"`
	Failed  int          `json:"failed"`
	Errors  []BatchError `json:"errors"`
}

// BatchService drives the tracking orchestrator over many products with
// per-product failure isolation.
type BatchService struct {
	products    repository.ProductRepositoryInterface
	tracker     productTracker
	concurrency int
}

// NewBatchService creates a batch runner with bounded concurrency.
func NewBatchService(products repository.ProductRepositoryInterface, tracker productTracker, concurrency int) *BatchService {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchService{products: products, tracker: tracker, concurrency: concurrency}
}

// RefreshForUser refreshes the given products for a user, or all of the
// user's active products when ids is empty. Ownership is validated for the
// whole id set before any product is refreshed.
func (s *BatchService) RefreshForUser(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (*BatchResult, error) {
	var (
		products []model.Product
		err      error
	)
	if len(ids) > 0 {
		products, err = s.products.ListByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("load products: %w", err)
		}
		if len(products) != len(ids) {
			return nil, apperror.BadRequest("one or more products do not exist")
		}
		for i := range products {
			if products[i].UserID == nil || *products[i].UserID != userID {
				return nil, apperror.Forbidden("product does not belong to user")
			}
		}
	} else {
		products, err = s.products.ListActiveByUser(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("list active products: %w", err)
		}
	}

	return s.run(ctx, products), nil
}

// RefreshAllActive refreshes every active product in the system. Used by
// the scheduled refresh cycle.
func (s *BatchService) RefreshAllActive(ctx context.Context) (*BatchResult, error) {
	products, err := s.products.ListAllActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	return s.run(ctx, products), nil
}

// run fans products out over a bounded worker pool. One product's failure
// never cancels its siblings; each error lands in its own result entry.
func (s *BatchService) run(ctx context.Context, products []model.Product) *BatchResult {
	result := &BatchResult{Errors: []BatchError{}}
	if len(products) == 0 {
		return result
	}

	jobs := make(chan *model.Product)
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)

	workers := s.concurrency
	if workers > len(products) {
		workers = len(products)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for product := range jobs {
				_, err := s.tracker.Refresh(ctx, product, false)

				mu.Lock()
				if err != nil {
					result.Failed++
					result.Errors = append(result.Errors, BatchError{
						ProductID: product.ID,
						ASIN:      product.ASIN,
						Message:   apperror.GetMessage(err),
					})
				} else {
					result.Success++
				}
				mu.Unlock()

				if err != nil {
					logger.FromContext(ctx).Warn("batch refresh failed for product",
						slog.String("product_id", product.ID.String()),
						slog.String("asin", product.ASIN),
						slog.String("error", err.Error()),
					)
				}
			}
		}()
	}

	for i := range products {
		jobs <- &products[i]
	}
	close(jobs)
	wg.Wait()

	return result
}
