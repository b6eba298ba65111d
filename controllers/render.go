// Package controllers holds the page handlers.
// file: controllers/render.go
package controllers

import (
	"context"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"pickle-web/apiclient"
	"pickle-web/logger"
	"pickle-web/middleware"
)

// MsgSessionExpired is flashed when the backend rejects the stored credential.
const MsgSessionExpired = "Your session has expired. Please log in again."

// flash keys
const (
	flashSuccess = "success"
	flashError   = "error"
)

// render adds the header state every page needs and renders name.
func render(c *gin.Context, status int, name string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["auth"] = middleware.CurrentState(c)
	c.HTML(status, name, data)
}

// apiContext carries the visitor's credential, if any, to the backend.
func apiContext(c *gin.Context) context.Context {
	if auth := middleware.CurrentAuth(c); auth != nil {
		return auth.Context(c.Request.Context())
	}
	return c.Request.Context()
}

// addFlash queues a one-off message for the next page view.
func addFlash(c *gin.Context, key, msg string) {
	session := sessions.Default(c)
	session.AddFlash(msg, key)
	if err := session.Save(); err != nil {
		logger.Error.Printf("addFlash: failed to save session: %v", err)
	}
}

// takeFlash pops the first message queued under key.
func takeFlash(c *gin.Context, key string) string {
	session := sessions.Default(c)
	flashes := session.Flashes(key)
	if len(flashes) == 0 {
		return ""
	}
	if err := session.Save(); err != nil {
		logger.Error.Printf("takeFlash: failed to save session: %v", err)
	}
	msg, _ := flashes[0].(string)
	return msg
}

// seeOther redirects after a POST.
func seeOther(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// expireIfRejected signs the visitor out when err is a 401/403 from the
// backend and reports whether it did.
func expireIfRejected(c *gin.Context, err error) bool {
	if !apiclient.IsUnauthorized(err) {
		return false
	}
	auth := middleware.CurrentAuth(c)
	if auth == nil || auth.Token() == "" {
		return false
	}
	logger.Warn.Printf("Credential rejected by backend on %s, signing out", c.Request.URL.Path)
	auth.Expire()
	addFlash(c, flashError, MsgSessionExpired)
	return true
}
