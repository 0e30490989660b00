package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/traction-pm/traction/pkg/model"
	"github.com/traction-pm/traction/pkg/store"
)

type fakeUsers struct {
	users map[string]*model.User
}

func (f *fakeUsers) GetUser(_ context.Context, id string) (*model.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func newTestChain(t *testing.T) (*TokenValidator, http.Handler) {
	t.Helper()
	validator, err := NewTokenValidator([]byte("test-secret"))
	require.NoError(t, err)

	users := &fakeUsers{users: map[string]*model.User{
		"user-1": {ID: "user-1", Email: "u@example.com", Name: "U"},
	}}

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return validator, NewMiddleware(validator, users)(inner)
}

func decodeCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	code, _ := body["code"].(string)
	return code
}

func TestMiddleware_ValidToken(t *testing.T) {
	validator, err := NewTokenValidator([]byte("test-secret"))
	require.NoError(t, err)
	users := &fakeUsers{users: map[string]*model.User{
		"user-1": {ID: "user-1", Email: "u@example.com", Name: "U"},
	}}

	var seen *Principal
	handler := NewMiddleware(validator, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, perr := GetPrincipal(r.Context())
		require.NoError(t, perr)
		seen = p
	}))

	token, err := validator.Mint("user-1", "u@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, seen)
	assert.Equal(t, "user-1", seen.ID)
	assert.Equal(t, "u@example.com", seen.Email)
}

func TestMiddleware_MissingHeader(t *testing.T) {
	_, handler := newTestChain(t)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/projects", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeCode(t, rec))
}

func TestMiddleware_MalformedHeader(t *testing.T) {
	_, handler := newTestChain(t)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decodeCode(t, rec))
}

func TestMiddleware_BadSignature(t *testing.T) {
	_, handler := newTestChain(t)

	other, err := NewTokenValidator([]byte("some-other-secret"))
	require.NoError(t, err)
	token, err := other.Mint("user-1", "u@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeCode(t, rec))
}

func TestMiddleware_ExpiredToken(t *testing.T) {
	validator, handler := newTestChain(t)

	token, err := validator.Mint("user-1", "u@example.com", -time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decodeCode(t, rec))
}

func TestMiddleware_UnknownSubject(t *testing.T) {
	validator, handler := newTestChain(t)

	token, err := validator.Mint("ghost", "g@example.com", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/projects", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "USER_NOT_FOUND", decodeCode(t, rec))
}

func TestMiddleware_PublicPathsSkipAuth(t *testing.T) {
	_, handler := newTestChain(t)

	for _, path := range []string{"/health", "/readiness"} {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
}

func TestValidator_RejectsEmptySubject(t *testing.T) {
	validator, err := NewTokenValidator([]byte("test-secret"))
	require.NoError(t, err)

	token, err := validator.Mint("", "u@example.com", time.Hour)
	require.NoError(t, err)

	_, err = validator.Validate(token)
	assert.Error(t, err)
}

func TestNewTokenValidator_EmptySecret(t *testing.T) {
	_, err := NewTokenValidator(nil)
	assert.Error(t, err)
}
