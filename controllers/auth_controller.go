// file: controllers/auth_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"pickle-web/logger"
	"pickle-web/middleware"
	"pickle-web/services"
)

// MsgLoginFailed is flashed when the callback token cannot be used.
const MsgLoginFailed = "Failed to log in. Please try again."

// AuthController handles sign-in and sign-out.
type AuthController struct {
	views *services.ViewStore
}

// NewAuthController initializes the controller.
func NewAuthController(views *services.ViewStore) *AuthController {
	return &AuthController{views: views}
}

// Login sends the browser to the identity provider.
func (ac *AuthController) Login(c *gin.Context) {
	auth := middleware.CurrentAuth(c)
	if auth == nil {
		c.Redirect(http.StatusFound, "/")
		return
	}
	logger.Info.Println("Login: redirecting to identity provider")
	c.Redirect(http.StatusFound, auth.LoginURL())
}

// Callback receives the issued token, signs the user in and goes home.
func (ac *AuthController) Callback(c *gin.Context) {
	token := c.Query("token")
	auth := middleware.CurrentAuth(c)
	if token == "" || auth == nil {
		logger.Warn.Println("Callback: no token in callback, redirecting home")
		c.Redirect(http.StatusFound, "/")
		return
	}

	if err := auth.LoginWithToken(c.Request.Context(), token); err != nil {
		logger.Error.Printf("Callback: login failed: %v", err)
		addFlash(c, flashError, MsgLoginFailed)
		c.Redirect(http.StatusFound, "/")
		return
	}

	ac.dropView(c)
	logger.Info.Printf("Callback: user %s logged in", auth.State().User.ID)
	c.Redirect(http.StatusFound, "/")
}

// Logout signs out with the backend and always clears the local session.
func (ac *AuthController) Logout(c *gin.Context) {
	if auth := middleware.CurrentAuth(c); auth != nil {
		if err := auth.Logout(c.Request.Context()); err != nil {
			logger.Warn.Printf("Logout: %v", err)
		}
	}
	ac.dropView(c)
	logger.Info.Println("Logout: Session cleared")
	c.Redirect(http.StatusFound, "/")
}

// dropView forgets the bookings page kept for this browser.
func (ac *AuthController) dropView(c *gin.Context) {
	session := sessions.Default(c)
	if id, ok := session.Get(bookingsViewKey).(string); ok {
		ac.views.Delete(id)
		session.Delete(bookingsViewKey)
		if err := session.Save(); err != nil {
			logger.Error.Printf("dropView: failed to save session: %v", err)
		}
	}
}
