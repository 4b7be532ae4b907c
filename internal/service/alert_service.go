package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/shelfwatch/backend/internal/apperror"
	"github.com/shelfwatch/backend/internal/model"
	"github.com/shelfwatch/backend/internal/repository"
)

// AlertService exposes a user's alert feed. Alerts are immutable except
// for their read and dismissed flags.
type AlertService struct {
	alerts repository.AlertRepositoryInterface
}

func NewAlertService(alerts repository.AlertRepositoryInterface) *AlertService {
	return &AlertService{alerts: alerts}
}

func (s *AlertService) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Alert, error) {
	return s.alerts.ListByUser(ctx, userID, unreadOnly, limit)
}

func (s *AlertService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.alerts.CountUnread(ctx, userID)
}

func (s *AlertService) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	err := s.alerts.MarkRead(ctx, id, userID)
	if errors.Is(err, repository.ErrAlertNotFound) {
		return apperror.NotFound("alert")
	}
	return err
}

func (s *AlertService) MarkAllRead(ctx context.Context, userID uuid.UUID) error {
	return s.alerts.MarkAllRead(ctx, userID)
}

func (s *AlertService) Dismiss(ctx context.Context, id, userID uuid.UUID) error {
	err := s.alerts.Dismiss(ctx, id, userID)
	if errors.Is(err, repository.ErrAlertNotFound) {
		return apperror.NotFound("alert")
	}
	return err
}
