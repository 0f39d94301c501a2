package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	UserIDKey  contextKey = "user_id"
	IsAdminKey contextKey = "is_admin"
)

// Claims carries the identity the session provider vouches for: a user ID in
// the subject and a single admin flag.
type Claims struct {
	jwt.RegisteredClaims
	Admin bool `json:"admin"`
}

// IssueToken signs an HS256 token for the given user, valid for ttl. Used by
// the session provider and by tests.
func IssueToken(secret []byte, userID uuid.UUID, admin bool, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Admin: admin,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// JWTMiddleware validates a Bearer token and places the trusted user ID and
// admin flag in the request context.
func JWTMiddleware(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get("Authorization")
			if header == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}
			tokenStr, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "malformed authorization header")
			}

			claims := &Claims{}
			token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			userID, err := uuid.Parse(claims.Subject)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
			}

			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, userID)
			ctx = context.WithValue(ctx, IsAdminKey, claims.Admin)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// DevAuthMiddleware grants every request a fixed admin identity. Development
// only; config.Validate refuses to start production without a JWT secret.
func DevAuthMiddleware() echo.MiddlewareFunc {
	devUser := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			ctx = context.WithValue(ctx, UserIDKey, devUser)
			ctx = context.WithValue(ctx, IsAdminKey, true)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

// UserIDFromContext returns the authenticated user ID, or uuid.Nil when the
// request is unauthenticated.
func UserIDFromContext(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(UserIDKey).(uuid.UUID)
	return id
}

// IsAdminFromContext reports whether the authenticated user carries the admin
// flag.
func IsAdminFromContext(ctx context.Context) bool {
	admin, _ := ctx.Value(IsAdminKey).(bool)
	return admin
}

// RequireAdmin rejects requests whose identity does not carry the admin flag.
func RequireAdmin() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !IsAdminFromContext(c.Request().Context()) {
				return echo.NewHTTPError(http.StatusForbidden, "admin access required")
			}
			return next(c)
		}
	}
}
