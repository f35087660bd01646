package utils

import (
	"encoding/json"
	"net/http"
)

type M map[string]any

// RespondWithJSON sends a JSON response with the given status code.
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// RespondWithError sends the standard {message} error body.
func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, M{"message": msg})
}

// RespondWithServerError sends a 500 with the underlying error passed through.
func RespondWithServerError(w http.ResponseWriter, err error) {
	RespondWithJSON(w, http.StatusInternalServerError, M{
		"message": "Server error",
		"error":   err.Error(),
	})
}
