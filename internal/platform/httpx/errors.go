package httpx

import (
	"net/http"

	"github.com/incroft/staffdir/internal/shared"
)

// statusFor translates a stable error code into an HTTP-equivalent status.
// The core itself knows nothing about HTTP; this is the single place where
// the translation happens.
func statusFor(code string) int {
	switch code {
	case shared.CodeUnauthorized, shared.CodeTokenExpired:
		return http.StatusUnauthorized
	case shared.CodeRBACDenied, shared.CodeRoleDenied:
		return http.StatusForbidden
	case shared.CodeNotFound:
		return http.StatusNotFound
	case shared.CodeBadUserInput:
		return http.StatusBadRequest
	case shared.CodeDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps a domain error to the structured error envelope.
func RespondError(w http.ResponseWriter, err error) {
	code := shared.CodeOf(err)
	JSON(w, statusFor(code), ErrorBody{
		Code:    code,
		Message: shared.UserSafeMessage(err),
	})
}
