package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// staticValidator accepts exactly the tokens it was seeded with.
type staticValidator struct {
	tokens map[string]uuid.UUID
}

func (v *staticValidator) ValidateToken(tokenString string) (UserIDGetter, error) {
	userID, ok := v.tokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return staticClaims{userID: userID}, nil
}

type staticClaims struct {
	userID uuid.UUID
}

func (c staticClaims) GetUserID() uuid.UUID { return c.userID }

func guardedHandler(t *testing.T, validator TokenValidator) (http.Handler, *uuid.UUID, *bool) {
	t.Helper()
	var gotUserID uuid.UUID
	var called bool
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		userID, err := GetUserID(r)
		require.NoError(t, err)
		gotUserID = userID
		w.WriteHeader(http.StatusOK)
	})
	return AuthMiddleware(validator)(handler), &gotUserID, &called
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	validator := &staticValidator{tokens: map[string]uuid.UUID{"good-token": userID}}
	handler, gotUserID, called := guardedHandler(t, validator)

	req := httptest.NewRequest(http.MethodGet, "/api/saved-jobs", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.True(t, *called)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, *gotUserID)
}

func TestAuthMiddleware_SchemeIsCaseInsensitive(t *testing.T) {
	userID := uuid.New()
	validator := &staticValidator{tokens: map[string]uuid.UUID{"good-token": userID}}
	handler, gotUserID, _ := guardedHandler(t, validator)

	req := httptest.NewRequest(http.MethodGet, "/api/saved-jobs", nil)
	req.Header.Set("Authorization", "bearer good-token")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, *gotUserID)
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	validator := &staticValidator{tokens: map[string]uuid.UUID{"good-token": uuid.New()}}

	tests := []struct {
		name       string
		authHeader string
	}{
		{name: "no header", authHeader: ""},
		{name: "no scheme", authHeader: "good-token"},
		{name: "scheme only", authHeader: "Bearer"},
		{name: "empty token", authHeader: "Bearer "},
		{name: "wrong scheme", authHeader: "Basic good-token"},
		{name: "extra parts", authHeader: "Bearer good-token extra"},
		{name: "unknown token", authHeader: "Bearer forged-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, called := guardedHandler(t, validator)

			req := httptest.NewRequest(http.MethodGet, "/api/saved-jobs", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			assert.False(t, *called)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Contains(t, w.Body.String(), "Unauthorized")
		})
	}
}

func TestGetUserID(t *testing.T) {
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodGet, "/api/saved-jobs", nil)
	req = req.WithContext(context.WithValue(req.Context(), userIDKey, userID))

	got, err := GetUserID(req)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}

func TestGetUserID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/saved-jobs", nil)

	got, err := GetUserID(req)
	assert.Error(t, err)
	assert.Equal(t, uuid.Nil, got)
}
