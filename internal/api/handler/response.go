package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/monteirok/popmart-tracker/internal/repository"
	"github.com/monteirok/popmart-tracker/internal/view"
)

// Helper to respond with JSON
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Warn("failed to encode response JSON", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, action string, err error) {
	resp := map[string]any{
		"error": err.Error(),
	}
	if action != "" {
		resp["action"] = action
	}
	respondJSON(w, status, resp)
}

// respondValidation writes form problems keyed by field.
func respondValidation(w http.ResponseWriter, action string, errs view.ValidationErrors) {
	respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"error":  errs.Error(),
		"action": action,
		"fields": errs,
	})
}

// respondStoreError maps a failed state operation onto an HTTP status.
func respondStoreError(w http.ResponseWriter, action string, err error) {
	var verrs view.ValidationErrors
	if errors.As(err, &verrs) {
		respondValidation(w, action, verrs)
		return
	}
	switch repository.KindOf(err) {
	case repository.KindNotFound:
		respondError(w, http.StatusNotFound, action, err)
	case repository.KindRejected:
		respondError(w, http.StatusUnprocessableEntity, action, err)
	default:
		respondError(w, http.StatusBadGateway, action, err)
	}
}

func decodeJSON(r *http.Request, dest any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return fmt.Errorf("decode request body: %w", err)
	}
	return nil
}
