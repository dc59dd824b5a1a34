// Package handlers implements the HTTP handlers for the document analysis
// API.
package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/clauselens/clauselens/pkg/errors"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// ErrorResponse is the standard error response body.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeAppError renders an error using its ErrorCode's HTTP mapping.  Server
// errors are masked with the code's default message so internals never leak.
func writeAppError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := err.Error()
	if appErr, ok := err.(*errors.AppError); ok {
		message = appErr.Message
	}
	if errors.IsServerError(code) {
		message = errors.DefaultMessageForCode(code)
	}

	writeJSON(w, status, ErrorResponse{Code: code.String(), Message: message})
}

// parseListParams extracts limit and offset query parameters.
func parseListParams(r *http.Request) (limit, offset int) {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}
