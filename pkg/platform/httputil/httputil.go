// Package httputil centralizes JSON response writing and request decoding so
// handlers stay thin and error bodies stay uniform across the API.
package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	dErrors "tempus/pkg/domain-errors"
)

// Validatable is implemented by request DTOs that validate and parse their
// fields after JSON decoding.
type Validatable interface {
	Validate() error
}

// statusFor maps domain error codes to HTTP status codes.
func statusFor(code dErrors.Code) int {
	switch code {
	case dErrors.CodeValidation, dErrors.CodeInvalidInput, dErrors.CodeBadRequest:
		return http.StatusBadRequest
	case dErrors.CodeUnauthorized:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeInvariantViolation:
		return http.StatusConflict
	case dErrors.CodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	// Headers are already flushed; an encode failure here can only be logged
	// by the caller's middleware, not reported to the client.
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes err as a JSON error body. Domain codes map to HTTP
// statuses; the human-readable description is included for client-caused
// failures and suppressed for internal ones so storage details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := ""

	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
	}

	body := map[string]string{"error": string(code)}
	if message != "" && code != dErrors.CodeInternal {
		body["error_description"] = message
	}
	WriteJSON(w, statusFor(code), body)
}

// DecodeAndPrepare decodes the request body into T, then runs its Validate
// hook. On failure it writes the error response itself and returns ok=false;
// handlers just return. The validated DTO is returned by pointer so parsed
// fields populated by Validate are visible to the caller.
func DecodeAndPrepare[T any, PT interface {
	*T
	Validatable
}](w http.ResponseWriter, r *http.Request, logger *slog.Logger, ctx context.Context, requestID string) (PT, bool) {
	var req T
	pt := PT(&req)

	if err := json.NewDecoder(r.Body).Decode(pt); err != nil {
		if logger != nil {
			logger.InfoContext(ctx, "request body rejected",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "malformed JSON body"))
		return nil, false
	}

	if err := pt.Validate(); err != nil {
		if logger != nil {
			logger.InfoContext(ctx, "request validation failed",
				"request_id", requestID,
				"error", err.Error(),
			)
		}
		WriteError(w, err)
		return nil, false
	}

	return pt, true
}
