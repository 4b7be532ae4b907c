package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfwatch/backend/internal/model"
)

// AlertServiceInterface for handler testing
type AlertServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit int) ([]model.Alert, error)
	CountUnread(ctx context.Context, userID uuid.UUID) (int, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
	MarkAllRead(ctx context.Context, userID uuid.UUID) error
	Dismiss(ctx context.Context, id, userID uuid.UUID) error
}

type AlertHandler struct {
	service AlertServiceInterface
}

func NewAlertHandler(service AlertServiceInterface) *AlertHandler {
	return &AlertHandler{service: service}
}

func (h *AlertHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	unreadOnly, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	alerts, err := h.service.List(r.Context(), userID, unreadOnly, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list alerts")
		return
	}

	respondJSON(w, http.StatusOK, alerts)
}

func (h *AlertHandler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	count, err := h.service.CountUnread(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to count alerts")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"unread": count})
}

func (h *AlertHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.service.MarkRead(r.Context(), id, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AlertHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	if err := h.service.MarkAllRead(r.Context(), userID); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to mark alerts read")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AlertHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.service.Dismiss(r.Context(), id, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
