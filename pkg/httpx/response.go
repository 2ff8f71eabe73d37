package httpx

import (
	"encoding/json"
	"net/http"
)

// Machine-readable error codes carried in every error body.
const (
	CodeUnauthenticated    = "unauthenticated"
	CodePermissionDenied   = "permission_denied"
	CodeInvalidArgument    = "invalid_argument"
	CodeFailedPrecondition = "failed_precondition"
	CodeNotFound           = "not_found"
	CodeInsufficientStock  = "insufficient_stock"
	CodeAlreadyExists      = "already_exists"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error" example:"only 3 left"`
	Code  string `json:"code" example:"insufficient_stock"`
} // @name ErrorResponse

// JSON writes v as JSON with the given status code. Encoding errors are
// discarded; use it for handler responses, not for streaming.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes an ErrorResponse.
func JSONError(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorResponse{Error: message, Code: code})
}
