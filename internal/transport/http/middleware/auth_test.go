package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/ryu-qqq/AuthHub-sub012/internal/core/port"
	"github.com/ryu-qqq/AuthHub-sub012/internal/repository"
	"github.com/ryu-qqq/AuthHub-sub012/internal/usecase"
)

type stubVerifier struct {
	claims *port.AccessClaims
	err    error
}

func (s *stubVerifier) VerifyAccessToken(context.Context, string) (*port.AccessClaims, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func newAuthedRouter(verifier AccessTokenVerifier, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)

	r := gin.New()
	handlers := append([]gin.HandlerFunc{RequireAuth(verifier)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		userID, _ := GetAuthenticatedUserID(c)
		c.String(http.StatusOK, userID)
	})
	r.GET("/protected", handlers...)
	return r
}

func doProtected(router *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	router.ServeHTTP(w, req)
	return w
}

func TestRequireAuth_ValidToken(t *testing.T) {
	verifier := &stubVerifier{claims: &port.AccessClaims{UserID: "user-1", JTI: "jti-1", Roles: []string{"member"}}}
	router := newAuthedRouter(verifier)

	w := doProtected(router, "Bearer good-token")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w.Body.String() != "user-1" {
		t.Fatalf("expected user id in context, got %q", w.Body.String())
	}
}

func TestRequireAuth_HeaderValidation(t *testing.T) {
	router := newAuthedRouter(&stubVerifier{claims: &port.AccessClaims{UserID: "user-1"}})

	for _, header := range []string{"", "Token abc", "Bearer", "Bearer   "} {
		if w := doProtected(router, header); w.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, w.Code)
		}
	}
}

func TestRequireAuth_MapsVerificationErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{usecase.ErrExpiredAccessToken, http.StatusUnauthorized},
		{usecase.ErrInvalidAccessToken, http.StatusUnauthorized},
		{usecase.ErrTokenRevoked, http.StatusUnauthorized},
		{errors.New("blacklist unavailable"), http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		router := newAuthedRouter(&stubVerifier{err: tc.err})
		if w := doProtected(router, "Bearer some-token"); w.Code != tc.want {
			t.Fatalf("error %v: expected %d, got %d", tc.err, tc.want, w.Code)
		}
	}
}

func TestRequireRole(t *testing.T) {
	verifier := &stubVerifier{claims: &port.AccessClaims{UserID: "user-1", Roles: []string{"member"}}}

	router := newAuthedRouter(verifier, RequireRole("ADMIN"))
	if w := doProtected(router, "Bearer token"); w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without admin role, got %d", w.Code)
	}

	verifier.claims.Roles = []string{"member", "ADMIN"}
	router = newAuthedRouter(verifier, RequireRole("ADMIN"))
	if w := doProtected(router, "Bearer token"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 with admin role, got %d", w.Code)
	}
}

func TestRequireAuth_StoreOutage(t *testing.T) {
	verifier := &stubVerifier{err: fmt.Errorf("check blacklist: %w", repository.ErrStoreUnavailable)}
	router := newAuthedRouter(verifier)

	w := doProtected(router, "Bearer some-token")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "authentication backend unavailable") {
		t.Fatalf("expected backend outage message, got %q", w.Body.String())
	}
}
