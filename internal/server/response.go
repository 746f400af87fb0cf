package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/mcp-x-studio/canvas/internal/canvas"
	"github.com/mcp-x-studio/canvas/internal/logging"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 4 << 20

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeInvalidPayload   = "INVALID_PAYLOAD"
	ErrCodeInvalidStyle     = "INVALID_STYLE"
	ErrCodeInvalidID        = "INVALID_ID"
	ErrCodeDuplicateID      = "DUPLICATE_ID"
	ErrCodeUnknownID        = "UNKNOWN_ID"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logging.Debug().Err(err).Msg("write response")
	}
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// errorStatus maps a canvas error to an HTTP status and error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, canvas.ErrInvalidPayload):
		return http.StatusBadRequest, ErrCodeInvalidPayload
	case errors.Is(err, canvas.ErrInvalidStyle):
		return http.StatusBadRequest, ErrCodeInvalidStyle
	case errors.Is(err, canvas.ErrInvalidID):
		return http.StatusBadRequest, ErrCodeInvalidID
	case errors.Is(err, canvas.ErrDuplicateID):
		return http.StatusConflict, ErrCodeDuplicateID
	case errors.Is(err, canvas.ErrUnknownID):
		return http.StatusNotFound, ErrCodeUnknownID
	default:
		return http.StatusInternalServerError, ErrCodeInternalError
	}
}

// writeCanvasError logs err and writes the mapped error response.
func writeCanvasError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := errorStatus(err)
	logging.Warn().
		Err(err).
		Str("code", code).
		Str("request_id", middleware.GetReqID(r.Context())).
		Msg("canvas request rejected")
	writeError(w, status, code, err.Error())
}

// decodeBody decodes the JSON request body into v. Malformed bodies,
// including style strings that do not hold a JSON object, are reported
// as canvas.ErrInvalidPayload.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", canvas.ErrInvalidPayload)
		}
		return fmt.Errorf("%w: %v", canvas.ErrInvalidPayload, err)
	}
	return nil
}
