package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/auth-service/internal/utils" // access token verification
)

// JWTAuth returns an Echo middleware that validates an access token and
// injects the verified subject and role into the request context.  The
// token may arrive either as a Bearer Authorization header or as the
// accessToken cookie set at login; the header wins when both are present.
// The provided secret must be the access secret used when issuing tokens.
// Verification is purely cryptographic: no storage is consulted, which is
// what keeps this middleware cheap enough to run on every request.
// Handlers can read the results via `c.Get("user_id")` (uint64) and
// `c.Get("role")` (string).
func JWTAuth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Prefer the Authorization header; fall back to the cookie so
			// browser sessions work without any client-side token handling.
			var raw string
			if auth := c.Request().Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				raw = strings.TrimPrefix(auth, "Bearer ")
			} else if ck, err := c.Cookie("accessToken"); err == nil {
				raw = ck.Value
			}
			if raw == "" {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}

			// A forged signature, an expired token, and malformed claims are
			// deliberately indistinguishable here: one opaque 401.
			claims, err := utils.ParseAccessToken(secret, raw)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}

			c.Set("user_id", claims.UserID)
			c.Set("role", string(claims.Role))
			return next(c)
		}
	}
}
