package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shelfwatch/backend/internal/model"
	"github.com/shelfwatch/backend/internal/service"
)

// ProductServiceInterface for handler testing
type ProductServiceInterface interface {
	List(ctx context.Context, userID uuid.UUID) ([]model.Product, error)
	Get(ctx context.Context, id, userID uuid.UUID) (*model.Product, error)
	Update(ctx context.Context, id, userID uuid.UUID, input service.UpdateProductInput) (*model.Product, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

// TrackingServiceInterface for handler testing
type TrackingServiceInterface interface {
	Track(ctx context.Context, userID uuid.UUID, input service.TrackProductInput) (*model.Product, error)
	Update(ctx context.Context, product *model.Product) (*model.Snapshot, error)
	Refresh(ctx context.Context, product *model.Product, updateMetadata bool) (*model.Snapshot, error)
}

// BatchServiceInterface for handler testing
type BatchServiceInterface interface {
	RefreshForUser(ctx context.Context, userID uuid.UUID, ids []uuid.UUID) (*service.BatchResult, error)
}

type ProductHandler struct {
	products ProductServiceInterface
	tracking TrackingServiceInterface
	batch    BatchServiceInterface
}

func NewProductHandler(products ProductServiceInterface, tracking TrackingServiceInterface, batch BatchServiceInterface) *ProductHandler {
	return &ProductHandler{products: products, tracking: tracking, batch: batch}
}

// Track registers a product for tracking and attempts a first refresh.
func (h *ProductHandler) Track(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var input service.TrackProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.tracking.Track(r.Context(), userID, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	products, err := h.products.List(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	respondJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	product, err := h.products.Get(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	var input service.UpdateProductInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.Update(r.Context(), id, userID, input)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	if err := h.products.Delete(r.Context(), id, userID); err != nil {
		respondServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Current returns the freshest snapshot via the cache-preferring path.
func (h *ProductHandler) Current(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	product, err := h.products.Get(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	snapshot, err := h.tracking.Update(r.Context(), product)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

// Refresh forces a fetch, bypassing the cache. ?metadata=true also
// overwrites descriptive fields from the fetched state.
func (h *ProductHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}

	product, err := h.products.Get(r.Context(), id, userID)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	updateMetadata, _ := strconv.ParseBool(r.URL.Query().Get("metadata"))

	snapshot, err := h.tracking.Refresh(r.Context(), product, updateMetadata)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, snapshot)
}

type batchRefreshRequest struct {
	ProductIDs []uuid.UUID `json:"productIds"`
}

// BatchRefresh refreshes a set of products (or all active products when
// the list is empty). Always responds 200 with per-product failures
// embedded; a batch is never reported as a single opaque failure.
func (h *ProductHandler) BatchRefresh(w http.ResponseWriter, r *http.Request) {
	userID := GetUserID(r.Context())

	var req batchRefreshRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	result, err := h.batch.RefreshForUser(r.Context(), userID, req.ProductIDs)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
