package authz

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/outpasshq/notify/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func sessionProbe(captured *models.Session) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s, ok := SessionFromRequest(r); ok {
			*captured = s
		}
		w.WriteHeader(http.StatusOK)
	})
}

func TestJWTMiddlewareValidToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":      "u1",
		"username": "asha",
		"name":     "Asha",
		"phone":    "9876543210",
		"role":     "student",
		"exp":      time.Now().Add(time.Hour).Unix(),
	})

	var session models.Session
	handler := JWTMiddleware(testSecret)(sessionProbe(&session))

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1", session.UserID)
	assert.Equal(t, "asha", session.Username)
	assert.Equal(t, models.RoleStudent, session.Role)
	assert.Equal(t, "9876543210", session.Phone)
}

func TestJWTMiddlewareQueryToken(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  "u1",
		"role": "admin",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	var session models.Session
	handler := JWTMiddleware(testSecret)(sessionProbe(&session))

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleAdmin, session.Role)
	assert.Equal(t, "u1", session.Username, "username falls back to the subject")
}

func TestJWTMiddlewareRejects(t *testing.T) {
	handler := JWTMiddleware(testSecret)(sessionProbe(&models.Session{}))

	run := func(authorize func(*http.Request)) int {
		req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
		authorize(req)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, run(func(*http.Request) {}))

	assert.Equal(t, http.StatusUnauthorized, run(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer not-a-token")
	}))

	expired := signToken(t, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusUnauthorized, run(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+expired)
	}))

	missingSub := signToken(t, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	assert.Equal(t, http.StatusUnauthorized, run(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+missingSub)
	}))
}

func TestUnknownRoleDefaultsToStudent(t *testing.T) {
	token := signToken(t, jwt.MapClaims{
		"sub":  "u1",
		"role": "superuser",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	var session models.Session
	handler := JWTMiddleware(testSecret)(sessionProbe(&session))

	req := httptest.NewRequest(http.MethodGet, "/api/notifications", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, models.RoleStudent, session.Role)
}
