package server

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in APIError bodies
const (
	CodeNotFound      = "not_found"
	CodeLoadFailed    = "load_failed"
	CodeBadRequest    = "bad_request"
	CodeTooLarge      = "too_large"
	CodeInternalError = "internal_error"
)

// APIError is the JSON body of every error response
type APIError struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Status  []string `json:"status,omitempty"`
}

func (e *APIError) Error() string {
	return e.Code + ": " + e.Message
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, apiErr *APIError) {
	writeJSON(w, status, apiErr)
}
