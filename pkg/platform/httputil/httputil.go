// Package httputil maps domain errors onto JSON HTTP responses so
// handlers never hand-roll status codes or leak internals.
package httputil

import (
	"encoding/json"
	"net/http"

	derrors "tangible/pkg/domain-errors"
)

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// statusFor maps domain error codes to HTTP statuses.
func statusFor(code derrors.Code) int {
	switch code {
	case derrors.CodeInvalidInput, derrors.CodeBadRequest:
		return http.StatusBadRequest
	case derrors.CodeInvariantViolation:
		return http.StatusUnprocessableEntity
	case derrors.CodeInvalidTransition, derrors.CodeConflict:
		return http.StatusConflict
	case derrors.CodePreconditionNotMet:
		return http.StatusPreconditionFailed
	case derrors.CodeNotFound:
		return http.StatusNotFound
	case derrors.CodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err as a JSON error response. Internal errors omit
// the description so infrastructure details never reach clients.
func WriteError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)
	body := errorBody{Error: errorToken(code)}
	if code != derrors.CodeInternal {
		body.ErrorDescription = derrors.MessageOf(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(code))
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func errorToken(code derrors.Code) string {
	if code == derrors.CodeInternal {
		return "internal_error"
	}
	return string(code)
}
