package utils

import (
	"encoding/json"
	"net/http"
)

// WriteJSONResponse writes the payload with the given status code.
func WriteJSONResponse(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

// WriteErrorResponse writes a machine-readable error code plus a message.
func WriteErrorResponse(w http.ResponseWriter, status int, code, message string) {
	WriteJSONResponse(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}
