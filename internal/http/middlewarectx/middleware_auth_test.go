package middlewarectx_test

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brzap/disparador/internal/http/middlewarectx"
)

const testSecret = "test-secret"

type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (discardHandler) WithAttrs([]slog.Attr) slog.Handler        { return discardHandler{} }
func (discardHandler) WithGroup(string) slog.Handler             { return discardHandler{} }

func makeLogger() *slog.Logger {
	return slog.New(discardHandler{})
}

func makeToken(t *testing.T, secret, sub string, expiresAt time.Time) string {
	claims := jwt.MapClaims{
		"sub": sub,
		"exp": expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestJWTMiddleware(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tokenStr := makeToken(t, testSecret, "user-1", time.Now().Add(time.Hour))

		nextCalled := false
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			uid, ok := r.Context().Value(middlewarectx.UserUID).(string)
			require.True(t, ok)
			assert.Equal(t, "user-1", uid)
			w.WriteHeader(http.StatusOK)
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()

		handler := middlewarectx.JWTMiddleware(testSecret, makeLogger())(next)
		handler.ServeHTTP(w, req)

		assert.True(t, nextCalled, "next handler must be called")
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing Authorization header", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called on missing header")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		w := httptest.NewRecorder()

		handler := middlewarectx.JWTMiddleware(testSecret, makeLogger())(next)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "authorization header")
	})

	t.Run("wrong secret", func(t *testing.T) {
		tokenStr := makeToken(t, "another-secret", "user-1", time.Now().Add(time.Hour))

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called on invalid signature")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()

		handler := middlewarectx.JWTMiddleware(testSecret, makeLogger())(next)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid or expired token")
	})

	t.Run("expired token", func(t *testing.T) {
		tokenStr := makeToken(t, testSecret, "user-1", time.Now().Add(-time.Hour))

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called on expired token")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()

		handler := middlewarectx.JWTMiddleware(testSecret, makeLogger())(next)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("token without subject", func(t *testing.T) {
		tokenStr := makeToken(t, testSecret, "", time.Now().Add(time.Hour))

		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("next handler should not be called without subject")
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenStr)
		w := httptest.NewRecorder()

		handler := middlewarectx.JWTMiddleware(testSecret, makeLogger())(next)
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
