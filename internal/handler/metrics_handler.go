package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfwatch/backend/internal/service"
)

// MetricsServiceInterface for handler testing
type MetricsServiceInterface interface {
	Summary(ctx context.Context, productID uuid.UUID) (*service.ProductSummary, error)
	Comparison(ctx context.Context, ids []uuid.UUID, metric service.MetricKind, days int) (*service.ComparisonResult, error)
}

type MetricsHandler struct {
	service  MetricsServiceInterface
	products ProductServiceInterface
}

func NewMetricsHandler(metrics MetricsServiceInterface, products ProductServiceInterface) *MetricsHandler {
	return &MetricsHandler{service: metrics, products: products}
}

// Summary returns rolling 7d/30d changes for one product.
func (h *MetricsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	// Ownership check before reading history.
	if _, err := h.products.Get(r.Context(), id, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	summary, err := h.service.Summary(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// Comparison returns aligned metric series for several products.
// Query: ids=<uuid,uuid,...>&metric=price|rank|rating&days=N
func (h *MetricsHandler) Comparison(w http.ResponseWriter, r *http.Request) {
	rawIDs := strings.Split(r.URL.Query().Get("ids"), ",")
	var ids []uuid.UUID
	for _, raw := range rawIDs {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid product id: "+raw)
			return
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		respondError(w, http.StatusBadRequest, "at least one product id is required")
		return
	}

	metric := service.MetricKind(r.URL.Query().Get("metric"))
	if metric == "" {
		metric = service.MetricPrice
	}
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	result, err := h.service.Comparison(r.Context(), ids, metric, days)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
