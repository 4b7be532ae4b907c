package service

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/shelfwatch/backend/internal/apperror"
	"github.com/shelfwatch/backend/internal/model"
)

// MockTracker for testing
type MockTracker struct {
	mock.Mock
}

func (m *MockTracker) Refresh(ctx context.Context, product *model.Product, updateMetadata bool) (*model.Snapshot, error) {
	args := m.Called(ctx, product, updateMetadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Snapshot), args.Error(1)
}

func userProducts(userID uuid.UUID, n int) []model.Product {
	products := make([]model.Product, n)
	for i := range products {
		products[i] = model.Product{
			ID:          uuid.New(),
			UserID:      &userID,
			ASIN:        "B00000000" + string(rune('A'+i)),
			Marketplace: "US",
			Active:      true,
		}
	}
	return products
}

func TestBatchService_RefreshForUser_PartialFailure(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	products := userProducts(userID, 5)
	failing := products[2]

	repo := new(MockProductRepo)
	tracker := new(MockTracker)
	repo.On("ListActiveByUser", mock.Anything, userID).Return(products, nil)

	for i := range products {
		p := products[i]
		if p.ID == failing.ID {
			tracker.On("Refresh", mock.Anything, mock.MatchedBy(func(pr *model.Product) bool {
				return pr.ID == p.ID
			}), false).Return(nil, apperror.FetchFailed(assert.AnError))
		} else {
			tracker.On("Refresh", mock.Anything, mock.MatchedBy(func(pr *model.Product) bool {
				return pr.ID == p.ID
			}), false).Return(&model.Snapshot{ID: uuid.New()}, nil)
		}
	}

	svc := NewBatchService(repo, tracker, 2)
	result, err := svc.RefreshForUser(context.Background(), userID, nil)

	assert.NoError(t, err)
	assert.Equal(t, 4, result.Success)
	assert.Equal(t, 1, result.Failed)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, failing.ID, result.Errors[0].ProductID)
	assert.Equal(t, failing.ASIN, result.Errors[0].ASIN)
	assert.Equal(t, "failed to fetch product data", result.Errors[0].Message)
}

func TestBatchService_RefreshForUser_ExplicitIDs(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	products := userProducts(userID, 2)
	ids := []uuid.UUID{products[0].ID, products[1].ID}

	repo := new(MockProductRepo)
	tracker := new(MockTracker)
	repo.On("ListByIDs", mock.Anything, ids).Return(products, nil)
	tracker.On("Refresh", mock.Anything, mock.Anything, false).Return(&model.Snapshot{}, nil)

	svc := NewBatchService(repo, tracker, 4)
	result, err := svc.RefreshForUser(context.Background(), userID, ids)

	assert.NoError(t, err)
	assert.Equal(t, 2, result.Success)
	assert.Equal(t, 0, result.Failed)
}

func TestBatchService_RefreshForUser_UnknownID(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	products := userProducts(userID, 1)
	ids := []uuid.UUID{products[0].ID, uuid.New()} // second id does not exist

	repo := new(MockProductRepo)
	tracker := new(MockTracker)
	repo.On("ListByIDs", mock.Anything, ids).Return(products, nil)

	svc := NewBatchService(repo, tracker, 4)
	result, err := svc.RefreshForUser(context.Background(), userID, ids)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 400, apperror.GetStatusCode(err))
	// Validation happens before any refresh starts.
	tracker.AssertNotCalled(t, "Refresh")
}

func TestBatchService_RefreshForUser_ForeignProduct(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	otherID := uuid.New()
	foreign := userProducts(otherID, 1)
	ids := []uuid.UUID{foreign[0].ID}

	repo := new(MockProductRepo)
	tracker := new(MockTracker)
	repo.On("ListByIDs", mock.Anything, ids).Return(foreign, nil)

	svc := NewBatchService(repo, tracker, 4)
	result, err := svc.RefreshForUser(context.Background(), userID, ids)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, 403, apperror.GetStatusCode(err))
	tracker.AssertNotCalled(t, "Refresh")
}

func TestBatchService_RefreshForUser_EmptySet(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	repo := new(MockProductRepo)
	tracker := new(MockTracker)
	repo.On("ListActiveByUser", mock.Anything, userID).Return([]model.Product{}, nil)

	svc := NewBatchService(repo, tracker, 4)
	result, err := svc.RefreshForUser(context.Background(), userID, nil)

	assert.NoError(t, err)
	assert.Equal(t, 0, result.Success)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
}

func TestBatchService_RefreshAllActive(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	products := userProducts(userID, 3)

	repo := new(MockProductRepo)
	tracker := new(MockTracker)
	repo.On("ListAllActive", mock.Anything).Return(products, nil)
	tracker.On("Refresh", mock.Anything, mock.Anything, false).Return(&model.Snapshot{}, nil)

	svc := NewBatchService(repo, tracker, 4)
	result, err := svc.RefreshAllActive(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 3, result.Success)
	tracker.AssertNumberOfCalls(t, "Refresh", 3)
}

func TestBatchService_ConcurrencyBound(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	products := userProducts(userID, 8)

	repo := new(MockProductRepo)
	repo.On("ListAllActive", mock.Anything).Return(products, nil)

	var inFlight, peak int32
	tracker := new(MockTracker)
	tracker.On("Refresh", mock.Anything, mock.Anything, false).
		Run(func(args mock.Arguments) {
			n := atomic.AddInt32(&inFlight, 1)
			for {
				p := atomic.LoadInt32(&peak)
				if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
					break
				}
			}
			atomic.AddInt32(&inFlight, -1)
		}).Return(&model.Snapshot{}, nil)

	svc := NewBatchService(repo, tracker, 2)
	result, err := svc.RefreshAllActive(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 8, result.Success)
	assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
}
