package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/shelfwatch/backend/internal/logger"
	"github.com/shelfwatch/backend/internal/model"
)

// AlertNotifier hands persisted alerts off for downstream delivery.
// Delivery success is not tracked by the tracking core.
type AlertNotifier interface {
	NotifyAlerts(ctx context.Context, product *model.Product, alerts []model.Alert)
}

// EmailSender defines the interface for sending emails
type EmailSender interface {
	Send(to, subject, body string) error
}

// UserDirectory resolves the email address of an alert's owning user.
type UserDirectory interface {
	GetEmail(ctx context.Context, userID uuid.UUID) (string, error)
}

// NotificationService formats and dispatches alert emails. Failures are
// logged, never propagated: notification must not block tracking.
type NotificationService struct {
	users  UserDirectory
	sender EmailSender
}

func NewNotificationService(users UserDirectory, sender EmailSender) *NotificationService {
	return &NotificationService{users: users, sender: sender}
}

// NotifyAlerts sends one digest email covering all alerts raised by a
// single snapshot.
func (s *NotificationService) NotifyAlerts(ctx context.Context, product *model.Product, alerts []model.Alert) {
	if len(alerts) == 0 || s.sender == nil || product.UserID == nil {
		return
	}

	email, err := s.users.GetEmail(ctx, *product.UserID)
	if err != nil {
		logger.FromContext(ctx).Warn("cannot resolve alert recipient",
			slog.String("user_id", product.UserID.String()),
			slog.String("error", err.Error()),
		)
		return
	}

	subject := fmt.Sprintf("%s %s: %d change(s) detected", severityEmoji(alerts), product.Title, len(alerts))
	body := formatAlertBody(product, alerts)

	if err := s.sender.Send(email, subject, body); err != nil {
		logger.FromContext(ctx).Warn("alert email delivery failed",
			slog.String("user_id", product.UserID.String()),
			slog.String("error", err.Error()),
		)
	}
}

func severityEmoji(alerts []model.Alert) string {
	for _, a := range alerts {
		if a.Severity == model.SeverityCritical {
			return "🚨"
		}
	}
	return "📊"
}

func formatAlertBody(product *model.Product, alerts []model.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Changes detected for %s (%s, %s):\n\n", product.Title, product.ASIN, product.Marketplace)

	for _, a := range alerts {
		switch a.Kind {
		case model.AlertKindPriceChange:
			fmt.Fprintf(&b, "• Price: %s → %s", a.OldValue, a.NewValue)
		case model.AlertKindRankChange:
			fmt.Fprintf(&b, "• Rank: #%s → #%s", a.OldValue, a.NewValue)
		case model.AlertKindStockChange:
			fmt.Fprintf(&b, "• Stock: %s → %s", a.OldValue, a.NewValue)
		}
		if a.ChangePercent != nil {
			fmt.Fprintf(&b, " (%s%%)", a.ChangePercent.StringFixed(2))
		}
		fmt.Fprintf(&b, " [%s]\n", a.Severity)
	}

	b.WriteString("\nOpen ShelfWatch to review and compare.\n")
	return b.String()
}

// NoopNotifier discards alerts. Used when no email transport is configured.
type NoopNotifier struct{}

func (NoopNotifier) NotifyAlerts(context.Context, *model.Product, []model.Alert) {}
