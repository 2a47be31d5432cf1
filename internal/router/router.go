package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/auth-service/internal/handler"    // import the handlers that implement the endpoints
	"github.com/iliyamo/auth-service/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/auth-service/internal/model"      // role constants for the protected group
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// The /healthz endpoint can be used by load balancers or monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.  accessSecret is the secret
// used to verify access tokens on the protected group; refresh tokens are
// never accepted there.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, accessSecret string) {
	// Operations that do not require an existing session: each of these
	// handlers generates, exchanges, or revokes tokens itself.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the presented refresh token: the old one is consumed
	// and a brand-new pair is returned.
	g.POST("/refresh", a.Refresh)
	// Logout accepts a refresh token (cookie or body) to end one session,
	// or a bearer access token to end all of the user's sessions.
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token.  All handlers registered on
	// this group execute the JWTAuth middleware before being invoked.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(accessSecret))
	// Any known role may reach these endpoints; the middleware still
	// rejects requests with missing or unknown roles.
	auth.Use(middleware.RequireRole(string(model.RoleCustomer), string(model.RoleAdmin)))
	auth.GET("/me", a.Me)
}
