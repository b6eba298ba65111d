// Package middleware provides request filters shared by every page.
// File: middleware/auth.go
package middleware

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"pickle-web/logger"
	"pickle-web/services"
)

// context keys set by ResolveAuth
const (
	authSessionKey = "authSession"
	authStateKey   = "auth"
)

// -------------- authentication middleware --------------

// ResolveAuth builds the request's AuthSession from the browser session and
// resolves it before the handler runs. Handlers read it with CurrentAuth;
// templates get the state under "auth".
func ResolveAuth(api services.AuthAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := services.NewAuthSession(api, sessions.Default(c))
		state := auth.Resolve(c.Request.Context())

		c.Set(authSessionKey, auth)
		c.Set(authStateKey, state)
		c.Next()
	}
}

// CurrentAuth returns the AuthSession for this request, or nil when
// ResolveAuth did not run.
func CurrentAuth(c *gin.Context) *services.AuthSession {
	v, ok := c.Get(authSessionKey)
	if !ok {
		return nil
	}
	auth, _ := v.(*services.AuthSession)
	return auth
}

// CurrentState returns the resolved AuthState, zero when unknown.
func CurrentState(c *gin.Context) services.AuthState {
	if auth := CurrentAuth(c); auth != nil {
		return auth.State()
	}
	return services.AuthState{}
}

// AuthRequired sends anonymous visitors back to the home page.
// Usage:
//
//	router.GET("/bookings", middleware.AuthRequired, ...)
func AuthRequired(c *gin.Context) {
	if !CurrentState(c).IsAuthenticated {
		logger.Warn.Printf("AuthRequired: anonymous request to %s, redirecting home", c.Request.URL.Path)
		c.Redirect(http.StatusFound, "/")
		c.Abort()
		return
	}

	logger.Debug.Println("[AuthRequired] User authenticated - proceeding with request")
	c.Next()
}
