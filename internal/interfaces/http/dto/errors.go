package dto

import (
	"net/http"

	"github.com/hospital/backend/internal/domain/shared"
)

// HTTP-layer error codes for failures that never reach the domain
const (
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeUnauthorized is used when hospital identification is missing
	ErrCodeUnauthorized = "UNAUTHORIZED"
)

// errorCodeHTTPStatus maps domain and HTTP-layer error codes to status codes.
// Invalid state maps to 422: the request was well formed but the entity's
// lifecycle forbids the operation.
var errorCodeHTTPStatus = map[string]int{
	shared.CodeNotFound:            http.StatusNotFound,
	shared.CodeValidation:          http.StatusBadRequest,
	shared.CodeInvalidState:        http.StatusUnprocessableEntity,
	shared.CodeAlreadyExists:       http.StatusConflict,
	shared.CodeConcurrencyConflict: http.StatusConflict,

	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeInternal:     http.StatusInternalServerError,
}

// HTTPStatus returns the HTTP status code for an error code, defaulting to
// 500 for unknown codes
func HTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
