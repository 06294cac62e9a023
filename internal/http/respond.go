package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/repository"
)

// ErrorResponse is the error body shape for every failure the API reports.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, ErrorResponse{Detail: detail})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}

// handleDomainError maps store/engine sentinels to contractual status codes.
// Anything unclassified is a persistence failure and surfaces as 500.
func handleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "Product not found")
	case errors.Is(err, repository.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "Cart not found")
	case errors.Is(err, repository.ErrCartItemNotFound):
		respondError(w, http.StatusNotFound, "Cart item not found")
	default:
		slog.Error("request failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
