// Package httpx provides HTTP response utilities for the JSON API boundary.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the structured error envelope returned to clients: a stable
// code plus a human readable message, never a partial result.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// DecodeJSON decodes the JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
