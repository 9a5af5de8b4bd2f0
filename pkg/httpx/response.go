package httpx

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// SuccessResponse is the envelope for all successful API responses
type SuccessResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope for all error API responses
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   ErrorBody `json:"error"`
}

// ErrorBody carries the machine-readable code, the human-readable message,
// and optional per-field details.
type ErrorBody struct {
	Code       string              `json:"code"`
	Message    string              `json:"message"`
	Details    map[string][]string `json:"details,omitempty"`
	RetryAfter int                 `json:"retryAfter,omitempty"`
}

// WriteSuccess writes a JSON success envelope with the given status code
func WriteSuccess(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	}

	// Encoding errors at this point cannot be reported to the client
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteError writes a JSON error envelope with the given status code
func WriteError(w http.ResponseWriter, statusCode int, errorCode, message string) {
	writeErrorBody(w, statusCode, ErrorBody{Code: errorCode, Message: message})
}

// WriteValidationError writes a 400 with per-field violation message lists
func WriteValidationError(w http.ResponseWriter, details map[string][]string) {
	writeErrorBody(w, http.StatusBadRequest, ErrorBody{
		Code:    "VALIDATION_ERROR",
		Message: "Validation failed",
		Details: details,
	})
}

// WriteRateLimited writes a 429 carrying the retry-after duration in
// seconds, both in the body and the Retry-After header.
func WriteRateLimited(w http.ResponseWriter, message string, retryAfterSeconds int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	writeErrorBody(w, http.StatusTooManyRequests, ErrorBody{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    message,
		RetryAfter: retryAfterSeconds,
	})
}

func writeErrorBody(w http.ResponseWriter, statusCode int, body ErrorBody) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(ErrorResponse{Success: false, Error: body})
}
