package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/binsight/api/internal/config"
	"github.com/binsight/api/pkg/logger"
)

const (
	testSecret = "test-secret"
	testIssuer = "binsight-identity"
)

func signToken(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() Claims {
	return Claims{
		CampusID: "9e8d7c6b-5a4f-4e3d-2c1b-0a9f8e7d6c50",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "0b6f9f2e-6a1d-4e0a-9a64-3f1d3c2b1a00",
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
}

func authRequest(token string) (*httptest.ResponseRecorder, *http.Request) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/scans/abc", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return httptest.NewRecorder(), req
}

func runAuth(t *testing.T, token string) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	cfg := &config.AuthConfig{JWTSecret: testSecret, JWTIssuer: testIssuer}

	var userID, campusID string
	handler := Auth(cfg, logger.NewDefault())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID = GetUserID(r.Context())
		campusID = GetCampusID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec, req := authRequest(token)
	handler.ServeHTTP(rec, req)
	return rec, userID, campusID
}

func TestAuthAcceptsValidToken(t *testing.T) {
	claims := validClaims()
	rec, userID, campusID := runAuth(t, signToken(t, testSecret, claims))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, claims.Subject, userID)
	assert.Equal(t, claims.CampusID, campusID)
}

func TestAuthMissingToken(t *testing.T) {
	rec, _, _ := runAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthWrongSecret(t *testing.T) {
	rec, _, _ := runAuth(t, signToken(t, "other-secret", validClaims()))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthExpiredToken(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))
	rec, _, _ := runAuth(t, signToken(t, testSecret, claims))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMissingExpiry(t *testing.T) {
	claims := validClaims()
	claims.ExpiresAt = nil
	rec, _, _ := runAuth(t, signToken(t, testSecret, claims))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthWrongIssuer(t *testing.T) {
	claims := validClaims()
	claims.Issuer = "someone-else"
	rec, _, _ := runAuth(t, signToken(t, testSecret, claims))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMissingSubject(t *testing.T) {
	claims := validClaims()
	claims.Subject = ""
	rec, _, _ := runAuth(t, signToken(t, testSecret, claims))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthTokenWithoutCampusClaim(t *testing.T) {
	claims := validClaims()
	claims.CampusID = ""
	rec, _, campusID := runAuth(t, signToken(t, testSecret, claims))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, campusID)
}
