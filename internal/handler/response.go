package handler

import (
	"encoding/json"
	"net/http"

	"github.com/shelfwatch/backend/internal/apperror"
)

// ErrorResponse represents a JSON error response body.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// respondJSON writes a JSON response with the given status code.
// It sets the Content-Type header to application/json.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// respondError writes a JSON error response with the given status code and message.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

// respondServiceError maps a service-layer error onto an HTTP response
// using the apperror taxonomy.
func respondServiceError(w http.ResponseWriter, err error) {
	respondJSON(w, apperror.GetStatusCode(err), ErrorResponse{Error: apperror.GetMessage(err)})
}
