package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type stubTokens struct {
	userID, role string
	err          error
	seen         string
}

func (s *stubTokens) ValidateToken(_ context.Context, tok string) (string, string, error) {
	s.seen = tok
	return s.userID, s.role, s.err
}

// okHandler writes 200 and the user id (for assertions).
var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(UserIDFromCtx(r.Context()) + "|" + RoleFromCtx(r.Context())))
})

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestRequireUser_ValidToken(t *testing.T) {
	tokens := &stubTokens{userID: "u-123", role: "learner"}
	h := RequireUser(tokens)(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/mic/wallet", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u-123|learner", rec.Body.String())
	assert.Equal(t, "abc.def.ghi", tokens.seen)
}

func TestRequireUser_MissingHeader(t *testing.T) {
	h := RequireUser(&stubTokens{})(okHandler)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUser_MalformedHeader(t *testing.T) {
	h := RequireUser(&stubTokens{})(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireUser_InvalidToken(t *testing.T) {
	h := RequireUser(&stubTokens{err: errors.New("expired")})(okHandler)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer stale")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid token")
}

func TestRequireRole(t *testing.T) {
	h := RequireRole("admin")(okHandler)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), "u1", "admin")))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req.WithContext(WithUser(req.Context(), "u1", "learner")))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
