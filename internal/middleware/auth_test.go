package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidar/teamflow/internal/domain"
	"github.com/aidar/teamflow/internal/service"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newIssuer() *service.TokenIssuer {
	return service.NewTokenIssuer("secret", time.Hour, time.Hour, service.WithClock(func() time.Time { return fixedNow }))
}

func mint(t *testing.T, tokens *service.TokenIssuer, teamID string, role domain.Role) string {
	t.Helper()
	token, _, err := tokens.Mint("user-1", teamID, role, time.Hour)
	require.NoError(t, err)
	return token
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequireTokenManagerGate(t *testing.T) {
	tokens := newIssuer()
	h := RequireToken(tokens, domain.RoleManager)(http.HandlerFunc(okHandler))

	tests := []struct {
		name   string
		header string
		status int
		code   string
	}{
		{"no token", "", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"bad format", "Token abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"garbage", "Bearer abc", http.StatusUnauthorized, "UNAUTHORIZED"},
		{"employee", "Bearer " + mint(t, tokens, "team-1", domain.RoleEmployee), http.StatusForbidden, "FORBIDDEN"},
		{"manager", "Bearer " + mint(t, tokens, "team-1", domain.RoleManager), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, rec))
			}
		})
	}
}

func TestRequireTokenExpired(t *testing.T) {
	now := fixedNow
	tokens := service.NewTokenIssuer("secret", time.Hour, time.Hour, service.WithClock(func() time.Time { return now }))
	token := mint(t, tokens, "team-1", domain.RoleManager)
	now = now.Add(2 * time.Hour)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()

	RequireToken(tokens, domain.RoleManager)(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "TOKEN_EXPIRED", errorCode(t, rec))
}

func TestOptionalToken(t *testing.T) {
	tokens := newIssuer()
	var seen *service.Claims
	h := OptionalToken(tokens)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, seen)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+mint(t, tokens, "team-1", domain.RoleEmployee))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.UserID)

	req = httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer broken")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireTeamScope(t *testing.T) {
	tokens := newIssuer()
	r := chi.NewRouter()
	r.With(RequireToken(tokens, domain.RoleEmployee), RequireTeamScope("teamID")).
		Get("/teams/{teamID}", okHandler)

	token := mint(t, tokens, "team-1", domain.RoleEmployee)

	req := httptest.NewRequest(http.MethodGet, "/teams/team-1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/teams/team-2", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
}

type stubLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (s *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allowed, s.err
}

func TestRateLimit(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	limiter := &stubLimiter{allowed: false}
	h := RateLimit(limiter, logger, nil)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodPost, "/api/teams", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, rec))
	assert.Equal(t, []string{"10.1.2.3:/api/teams"}, limiter.keys)

	// разные маршруты считаются раздельно
	join := httptest.NewRequest(http.MethodPost, "/api/teams/join", nil)
	join.RemoteAddr = "10.1.2.3:5555"
	h.ServeHTTP(httptest.NewRecorder(), join)
	assert.Equal(t, []string{"10.1.2.3:/api/teams", "10.1.2.3:/api/teams/join"}, limiter.keys)

	// ошибка хранилища пропускает запрос
	failing := &stubLimiter{err: errors.New("redis down")}
	rec = httptest.NewRecorder()
	RateLimit(failing, logger, nil)(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	RateLimit(nil, logger, nil)(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
