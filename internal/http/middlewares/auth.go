package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"workforce-tracker.com/workforce-tracker/internal/constants"
	model "workforce-tracker.com/workforce-tracker/internal/models"
)

const callerKey = "caller"

type claims struct {
	Role constants.Role `json:"role"`
	jwt.RegisteredClaims
}

// Authenticate accepts an HS256 bearer token carrying the user id in "sub" and
// the role in "role". Websocket clients may pass the token as ?token= instead.
func Authenticate(secret string) echo.MiddlewareFunc {
	key := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
			}

			var cl claims
			token, err := jwt.ParseWithClaims(raw, &cl, func(t *jwt.Token) (interface{}, error) {
				return key, nil
			},
				jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
				jwt.WithExpirationRequired(),
			)
			if err != nil || !token.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			if cl.Subject == "" || !cl.Role.Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}

			c.Set(callerKey, model.Caller{ID: cl.Subject, Role: cl.Role})
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	if header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return c.QueryParam("token")
}

// CallerFrom returns the principal Authenticate stored on the context.
func CallerFrom(c echo.Context) (model.Caller, error) {
	caller, ok := c.Get(callerKey).(model.Caller)
	if !ok {
		return model.Caller{}, errors.New("no authenticated caller on context")
	}
	return caller, nil
}

// SignToken issues a token Authenticate will accept.
func SignToken(secret, userID string, role constants.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	return token.SignedString([]byte(secret))
}
