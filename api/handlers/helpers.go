package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"cocina-ops/core/incidents"
	"cocina-ops/core/store"
	"cocina-ops/core/utils"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeServiceError maps the service error taxonomy onto HTTP: validation
// failures are 400 with field detail, missing records 404, everything else an
// opaque 500.
func writeServiceError(w http.ResponseWriter, logger *utils.Logger, err error) {
	var ve *incidents.ValidationError
	if errors.As(err, &ve) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Message, "field": ve.Field})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if logger != nil {
		logger.Errorf("request failed: %v", err)
	}
	http.Error(w, "server error", http.StatusInternalServerError)
}

func writeValidationError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": message, "field": field})
}

func parseBoolParam(raw string) bool {
	return raw == "1" || raw == "true"
}
