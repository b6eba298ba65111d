// file: controllers/page_controller.go
package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pickle-web/logger"
)

// PageController serves the static pages.
type PageController struct{}

// NewPageController initializes the controller.
func NewPageController() *PageController {
	return &PageController{}
}

// Home renders the landing page.
func (pc *PageController) Home(c *gin.Context) {
	render(c, http.StatusOK, "home.html", gin.H{
		"Error":   takeFlash(c, flashError),
		"Success": takeFlash(c, flashSuccess),
	})
}

// Health answers load balancer checks.
func (pc *PageController) Health(c *gin.Context) {
	logger.Debug.Println("Health: Health check requested")
	c.String(http.StatusOK, "OK")
}

// NotFound renders the 404 page for any unknown path.
func (pc *PageController) NotFound(c *gin.Context) {
	logger.Info.Printf("NotFound: %s %s", c.Request.Method, c.Request.URL.Path)
	render(c, http.StatusNotFound, "not_found.html", nil)
}
