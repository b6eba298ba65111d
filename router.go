// router.go
package main

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/crypto/hkdf"

	"pickle-web/controllers"
	"pickle-web/middleware"
	"pickle-web/services"
	"pickle-web/websocket"
)

const sessionName = "pickle_session"

// routerDeps is everything the routes need.
type routerDeps struct {
	API            services.APIServiceInterface
	Hub            *websocket.Hub
	Views          *services.ViewStore
	Limiter        *middleware.RateLimiter
	Location       *time.Location
	ApplicationURL string
	TemplatesDir   string
	SessionSecret  string
	SessionSecure  bool
}

// sessionKeys derives the cookie signing and encryption keys from the
// configured secret.
func sessionKeys(secret string) (hashKey, blockKey []byte, err error) {
	kdf := hkdf.New(sha256.New, []byte(secret), nil, []byte("pickle-web session cookie"))
	hashKey = make([]byte, 32)
	blockKey = make([]byte, 32)
	if _, err := io.ReadFull(kdf, hashKey); err != nil {
		return nil, nil, fmt.Errorf("derive session hash key: %w", err)
	}
	if _, err := io.ReadFull(kdf, blockKey); err != nil {
		return nil, nil, fmt.Errorf("derive session block key: %w", err)
	}
	return hashKey, blockKey, nil
}

// setupRouter wires middleware, templates and routes.
func setupRouter(deps routerDeps) (*gin.Engine, error) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID(), middleware.RequestLogger(), middleware.Metrics())

	// Initialize session store
	hashKey, blockKey, err := sessionKeys(deps.SessionSecret)
	if err != nil {
		return nil, err
	}
	store := cookie.NewStore(hashKey, blockKey)
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7, // 7 days
		HttpOnly: true,
		Secure:   deps.SessionSecure,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(sessionName, store))

	router.LoadHTMLGlob(filepath.Join(deps.TemplatesDir, "*.html"))
	router.Static("/static", "./static")

	pages := controllers.NewPageController()
	auth := controllers.NewAuthController(deps.Views)
	courts := controllers.NewCourtController(deps.API, deps.Hub, deps.Location, deps.ApplicationURL)
	bookings := controllers.NewBookingController(deps.API, deps.Views, deps.Hub, deps.Location)

	// routes without a user
	router.GET("/health", pages.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/courts/:id/qrcode", courts.QRCode)
	router.GET("/courts/:id/live", courts.Live)

	// pages
	web := router.Group("/", middleware.ResolveAuth(deps.API))
	{
		web.GET("/", pages.Home)
		web.GET("/courts", courts.Search)
		web.GET("/courts/:id", courts.Detail)
		web.POST("/courts/:id/bookings", deps.Limiter.Handler(), courts.SubmitBooking)

		web.GET("/login", auth.Login)
		web.GET("/auth/callback", auth.Callback)
		web.POST("/logout", auth.Logout)

		protected := web.Group("/bookings", middleware.AuthRequired)
		{
			protected.GET("", bookings.List)
			protected.POST("/:id/cancel", deps.Limiter.Handler(), bookings.Cancel)
		}
	}

	router.NoRoute(middleware.ResolveAuth(deps.API), pages.NotFound)
	return router, nil
}
