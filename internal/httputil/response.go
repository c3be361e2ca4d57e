package httputil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// MaxBodySize is the maximum allowed request body size (1MB).
const MaxBodySize = 1 << 20

// DecodeJSON decodes exactly one JSON value from the request body into v,
// rejecting unknown fields. On failure it writes the error response itself
// (413 for oversized bodies, 400 otherwise) and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err == nil && dec.More() {
		err = errors.New("unexpected data after JSON value")
	}
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	var syntax *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &tooLarge):
		WriteError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", tooLarge.Limit))
	case errors.As(err, &syntax), errors.Is(err, io.ErrUnexpectedEOF):
		WriteError(w, http.StatusBadRequest, "invalid JSON body: malformed JSON")
	case errors.As(err, &typeErr):
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON body: %s must be %s", typeErr.Field, typeErr.Type))
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		WriteError(w, http.StatusBadRequest, "invalid JSON body: "+strings.TrimPrefix(err.Error(), "json: "))
	case errors.Is(err, io.EOF):
		WriteError(w, http.StatusBadRequest, "invalid JSON body: empty body")
	default:
		WriteError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
	}
	return false
}

// ErrorResponse is the standard error envelope for all smspool API errors.
type ErrorResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// FieldError describes why a single request field was rejected.
type FieldError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes a standard error response.
func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{
		Code:    status,
		Message: message,
	})
}

// WriteFieldErrors writes an error response with field-level validation detail.
func WriteFieldErrors(w http.ResponseWriter, status int, message string, fields map[string]FieldError) {
	data := make(map[string]any, len(fields))
	for name, fe := range fields {
		data[name] = fe
	}
	WriteJSON(w, status, ErrorResponse{
		Code:    status,
		Message: message,
		Data:    data,
	})
}
