package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "careergate/pkg/domain-errors"
)

// ErrorResponse is the only error shape the API ever returns. It is kept
// deliberately small so no provider or store detail reaches the caller.
type ErrorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, response any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// Headers are already sent, an encoding failure cannot change the status.
	_ = json.NewEncoder(w).Encode(response)
}

// WriteError translates a domain error into an HTTP status and a minimal body.
// Anything that is not a domain error is reported as a generic 500.
func WriteError(w http.ResponseWriter, err error) {
	var domainErr *dErrors.Error
	if errors.As(err, &domainErr) {
		WriteJSON(w, DomainCodeToHTTPStatus(domainErr.Code), ErrorResponse{Error: DomainCodeToMessage(domainErr.Code, domainErr.Message)})
		return
	}
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse{Error: "Internal server error"})
}

// DomainCodeToHTTPStatus translates domain error codes to HTTP status codes.
// A missing profile is folded into 403 so the response never reveals whether
// the caller has a profile at all.
func DomainCodeToHTTPStatus(code dErrors.Code) int {
	switch code {
	case dErrors.CodeUnauthenticated, dErrors.CodeInvalidToken:
		return http.StatusUnauthorized
	case dErrors.CodeForbidden, dErrors.CodeNotProvisioned:
		return http.StatusForbidden
	case dErrors.CodeNotFound:
		return http.StatusNotFound
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		return http.StatusBadRequest
	case dErrors.CodeUnavailable, dErrors.CodeInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// DomainCodeToMessage returns the public message for a code. Only client
// errors may carry their own message; every server-side failure collapses to
// the same generic text.
func DomainCodeToMessage(code dErrors.Code, msg string) string {
	switch code {
	case dErrors.CodeUnauthenticated:
		return "Unauthorized"
	case dErrors.CodeInvalidToken:
		return "Invalid token"
	case dErrors.CodeForbidden, dErrors.CodeNotProvisioned:
		return "Forbidden"
	case dErrors.CodeNotFound:
		return "Not found"
	case dErrors.CodeBadRequest, dErrors.CodeValidation:
		if msg != "" {
			return msg
		}
		return "Bad request"
	default:
		return "Internal server error"
	}
}
