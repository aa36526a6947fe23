package api

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"raffler/service"
)

type errorResponse struct {
	Error string `json:"error"`
}

// respondError maps domain errors to HTTP status codes. Conflicts cover every
// state-machine rejection: wrong status, repeated reconciliation, repeated
// resolution, and exhausted capacity or number space.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	switch {
	case errors.Is(err, service.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden):
		status = http.StatusForbidden
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrAlreadyProcessed),
		errors.Is(err, service.ErrAlreadyResolved),
		errors.Is(err, service.ErrCapacityExceeded),
		errors.Is(err, service.ErrNumberSpaceExhausted):
		status = http.StatusConflict
	case errors.Is(err, service.ErrLotteryUnavailable):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).Error("Request failed")
		respondJSON(w, status, errorResponse{Error: "internal error"})
		return
	}

	respondJSON(w, status, errorResponse{Error: err.Error()})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Error("Failed to encode response")
	}
}
