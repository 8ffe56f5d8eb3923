package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/binsight/api/internal/config"
	"github.com/binsight/api/pkg/apierror"
	"github.com/binsight/api/pkg/logger"
)

type authContextKey string

// Context keys for authenticated request attributes.
const (
	UserIDKey   authContextKey = "auth_user_id"
	CampusIDKey authContextKey = "auth_campus_id"
)

// Claims are the token claims this API consumes. Tokens are issued by
// the upstream identity service; this middleware only verifies them.
type Claims struct {
	CampusID string `json:"campus_id,omitempty"`
	jwt.RegisteredClaims
}

// Auth verifies the bearer token and loads the user and campus IDs
// into the request context.
func Auth(cfg *config.AuthConfig, log *logger.Logger) func(http.Handler) http.Handler {
	authLog := log.With("component", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				apierror.Write(w, apierror.Unauthorized("missing bearer token"))
				return
			}

			claims := &Claims{}
			parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(cfg.JWTSecret), nil
			}, jwt.WithIssuer(cfg.JWTIssuer), jwt.WithExpirationRequired())
			if err != nil || !parsed.Valid {
				authLog.Warn("token verification failed",
					"path", r.URL.Path,
					"remote", getClientIP(r),
					"error", err,
				)
				apierror.Write(w, apierror.Unauthorized("invalid token"))
				return
			}

			if claims.Subject == "" {
				apierror.Write(w, apierror.Unauthorized("token has no subject"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.Subject)
			if claims.CampusID != "" {
				ctx = context.WithValue(ctx, CampusIDKey, claims.CampusID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the authenticated user ID from context.
func GetUserID(ctx context.Context) string {
	if id, ok := ctx.Value(UserIDKey).(string); ok {
		return id
	}
	return ""
}

// GetCampusID extracts the authenticated user's campus ID from context.
func GetCampusID(ctx context.Context) string {
	if id, ok := ctx.Value(CampusIDKey).(string); ok {
		return id
	}
	return ""
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}
