package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"insider-tracker/database"
)

// respondJSON writes the payload as a JSON response with the given status.
func respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("❌ Failed to encode response: %v", err)
		}
	}
}

// respondError logs the error and sends a JSON error response.
// Use this to avoid exposing internal errors while still logging them.
func respondError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil {
		log.Printf("API Error [%d]: %s - %v", code, message, err)
	} else {
		log.Printf("API Error [%d]: %s", code, message)
	}
	respondJSON(w, code, map[string]string{"error": message})
}

// errorStatus maps storage errors to HTTP status codes.
func errorStatus(err error) int {
	var notFound *database.NotFoundError
	var duplicate *database.DuplicateError
	var validation *database.ValidationError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound
	case errors.As(err, &duplicate):
		return http.StatusConflict
	case errors.As(err, &validation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// getIntParam retrieves an integer query parameter with default value and optional range validation
func getIntParam(r *http.Request, key string, defaultVal int, minVal, maxVal *int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}

	if minVal != nil && val < *minVal {
		return defaultVal
	}
	if maxVal != nil && val > *maxVal {
		return defaultVal
	}

	return val
}

// getFloatPtrParam retrieves an optional float query parameter, nil when absent or invalid.
func getFloatPtrParam(r *http.Request, key string) *float64 {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return nil
	}

	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return nil
	}

	return &val
}
