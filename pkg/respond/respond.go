// Package respond writes JSON responses and maps domain errors onto HTTP statuses.
package respond

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/FACorreiaa/campusnest-api/internal/types"
	"github.com/FACorreiaa/campusnest-api/pkg/validation"
)

// ErrorBody is the error envelope returned by every endpoint.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string                  `json:"code"`
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
}

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", slog.Any("error", err))
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// NoContent writes 204.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Error writes an error envelope with an explicit status and code.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// ValidationError writes 400 with one entry per failed field.
func ValidationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	JSON(w, http.StatusBadRequest, ErrorBody{Error: ErrorDetail{
		Code:    "VALIDATION_ERROR",
		Message: verr.Error(),
		Fields:  verr.Fields,
	}})
}

// FromError maps err onto a status using the sentinels in internal/types.
// Unknown errors become 500 without leaking their text.
func FromError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal server error"
	}
	Error(w, status, code, msg)
}

// StatusFor returns the HTTP status and error code for err.
func StatusFor(err error) (int, string) {
	var verr *validation.RequestValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case errors.Is(err, types.ErrBadRequest):
		return http.StatusBadRequest, "BAD_REQUEST"
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, types.ErrConflict):
		return http.StatusConflict, "CONFLICT"
	case errors.Is(err, types.ErrUnauthenticated):
		return http.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden, "FORBIDDEN"
	default:
		return http.StatusInternalServerError, "INTERNAL"
	}
}

// Decode reads a JSON body into dst and validates it.
func Decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return errors.Join(types.ErrBadRequest, err)
	}
	if len(body) == 0 {
		return errors.Join(types.ErrBadRequest, errors.New("request body is empty"))
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return errors.Join(types.ErrBadRequest, errors.New("malformed JSON body"))
	}
	if verr := validation.ValidateStruct(dst); verr != nil {
		return verr
	}
	return nil
}

// DecodeError writes the response for an error returned by Decode.
func DecodeError(w http.ResponseWriter, err error) {
	var verr *validation.RequestValidationError
	if errors.As(err, &verr) {
		ValidationError(w, verr)
		return
	}
	Error(w, http.StatusBadRequest, "BAD_REQUEST", "invalid request body")
}
