package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/wonny/hedgevol/internal/contracts"
	"github.com/wonny/hedgevol/internal/portfolio"
)

// Helper functions

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

// statusFor maps the error taxonomy onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, contracts.ErrInvalidParameter), errors.Is(err, contracts.ErrRange):
		return http.StatusBadRequest
	case errors.Is(err, contracts.ErrNoBracket), errors.Is(err, contracts.ErrNonConvergence):
		return http.StatusUnprocessableEntity
	case errors.Is(err, portfolio.ErrNotLoaded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
