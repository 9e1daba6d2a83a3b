package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/taskmark/internal/apperr"
	"github.com/starford/taskmark/internal/generator"
)

const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// decodeJSON reads a JSON body into dst and runs its validation, writing a
// 400 response on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	if v, ok := dst.(validation.Validatable); ok {
		if err := v.Validate(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
			return false
		}
	}
	return true
}

// writeError maps a service error onto an HTTP status. Unexpected errors
// are logged with op and hidden from the client.
func writeError(w http.ResponseWriter, op string, err error, attrs ...slog.Attr) {
	status, msg := http.StatusInternalServerError, "internal error"
	var netErr net.Error
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, apperr.ErrConflict):
		status, msg = http.StatusConflict, "checksum mismatch"
	case errors.Is(err, apperr.ErrAlreadyExists):
		status, msg = http.StatusConflict, "already exists"
	case errors.Is(err, apperr.ErrInvalid):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, generator.ErrRateLimited):
		status, msg = http.StatusTooManyRequests, unwrapSentinel(err)
	case errors.Is(err, generator.ErrDisabled), errors.Is(err, generator.ErrServiceUnavailable):
		status, msg = http.StatusServiceUnavailable, unwrapSentinel(err)
	case errors.Is(err, generator.ErrInvalidKey), errors.Is(err, generator.ErrModelUnavailable),
		errors.Is(err, generator.ErrEmptyResponse), errors.Is(err, generator.ErrAPI):
		status, msg = http.StatusBadGateway, unwrapSentinel(err)
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr):
		status, msg = http.StatusServiceUnavailable, "upstream unavailable"
	}
	if status >= 500 {
		args := []any{slog.String("error", err.Error())}
		for _, a := range attrs {
			args = append(args, a)
		}
		slog.Error(op+" failed", args...)
	}
	writeJSON(w, status, errorBody(msg))
}

// unwrapSentinel keeps upstream response bodies out of client messages.
func unwrapSentinel(err error) string {
	var apiErr *generator.APIError
	if errors.As(err, &apiErr) {
		return errors.Unwrap(apiErr).Error()
	}
	return err.Error()
}
