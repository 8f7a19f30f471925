package server

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/jobboard-auth/internal/errors"
)

// Messages returned to clients for failures that must not reveal detail.
const (
	msgInvalidCredentials = "invalid username or password"
	msgInvalidSession     = "invalid session, please log in again"
	msgRateLimited        = "too many requests, please try again later"
	msgUnauthorized       = "missing or invalid access token"
	msgForbidden          = "you do not have permission to access this resource"
	msgInternal           = "internal server error"
)

type successResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

type errorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Error      string `json:"error"`
}

func writeJSON(w http.ResponseWriter, statusCode int, message string, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(successResponse{StatusCode: statusCode, Message: message, Data: data}); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		StatusCode: statusCode,
		Message:    message,
		Error:      http.StatusText(statusCode),
	})
}

// writeError maps err onto a status code and client message. Unclassified errors
// are logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, message := classify(err)
	if statusCode == http.StatusInternalServerError {
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("request failed")
	}
	writeJSONError(w, statusCode, message)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, errors.ErrInvalidCredentials):
		return http.StatusUnauthorized, msgInvalidCredentials
	case errors.Is(err, errors.ErrInvalidSession):
		return http.StatusBadRequest, msgInvalidSession
	case errors.Is(err, errors.ErrDuplicateIdentity), errors.Is(err, errors.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errors.ErrRateLimited):
		return http.StatusTooManyRequests, msgRateLimited
	case errors.Is(err, errors.ErrUnauthorized):
		return http.StatusUnauthorized, msgUnauthorized
	case errors.Is(err, errors.ErrForbidden):
		return http.StatusForbidden, msgForbidden
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

// decodeJSON reads a JSON request body into dst. Malformed bodies are reported as
// errors.ErrInvalidRequest.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return errors.Wrapf(errors.ErrInvalidRequest, "malformed request body (%v)", err)
	}
	return nil
}
