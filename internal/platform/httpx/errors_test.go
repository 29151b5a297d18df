package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/incroft/staffdir/internal/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{shared.NewError(shared.CodeUnauthorized, "no"), http.StatusUnauthorized, "UNAUTHORIZED"},
		{shared.NewError(shared.CodeTokenExpired, "expired"), http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{shared.NewError(shared.CodeRBACDenied, "denied"), http.StatusForbidden, "UNAUTHORIZED-RBAC"},
		{shared.NewError(shared.CodeRoleDenied, "denied"), http.StatusForbidden, "UNAUTHORIZED_ROLE"},
		{shared.NewError(shared.CodeNotFound, "gone"), http.StatusNotFound, "NOT_FOUND"},
		{shared.NewError(shared.CodeBadUserInput, "bad"), http.StatusBadRequest, "BAD_USER_INPUT"},
		{shared.NewError(shared.CodeDuplicate, "dup"), http.StatusConflict, "DUPLICATE"},
		{errors.New("disk on fire"), http.StatusInternalServerError, shared.CodeInternal},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		RespondError(rec, tc.err)
		if rec.Code != tc.status {
			t.Fatalf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
		}
		var body ErrorBody
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body.Code != tc.code {
			t.Fatalf("%v: code = %q, want %q", tc.err, body.Code, tc.code)
		}
	}
}
