// main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-xray-sdk-go/xray"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"pickle-web/apiclient"
	"pickle-web/config"
	"pickle-web/logger"
	"pickle-web/metrics"
	"pickle-web/middleware"
	"pickle-web/services"
	"pickle-web/websocket"
)

const viewSweepInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	if err := logger.InitLogger(cfg.LogDir); err != nil {
		logger.Error.Fatalf("Failed to initialise logger: %v", err)
	}
	logger.SetLogLevel(cfg.Env)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	loc, err := cfg.Location()
	if err != nil {
		logger.Error.Fatalf("Failed to load timezone: %v", err)
	}
	if cfg.IsProduction() && cfg.SessionSecret == "change-me-in-production" {
		logger.Warn.Println("SESSION_SECRET is the default value; set it in production")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// backend client, traced when X-Ray is on
	httpClient := &http.Client{Timeout: cfg.APITimeout}
	if cfg.XRayEnabled {
		httpClient = xray.Client(httpClient)
		logger.Info.Println("X-Ray tracing enabled")
	}
	var api services.APIServiceInterface = apiclient.New(cfg.APIURL, httpClient)

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn.Printf("Redis at %s unavailable, court cache disabled: %v", cfg.RedisAddr, err)
		} else {
			api = services.NewCachedCourts(api, rdb, cfg.CourtCacheTTL)
			logger.Info.Printf("Court cache enabled (redis=%s ttl=%v)", cfg.RedisAddr, cfg.CourtCacheTTL)
		}
		cancel()
	}

	if cfg.CloudWatchEnabled {
		publisher, err := metrics.NewCloudWatchPublisherFromEnv(cfg.Env)
		if err != nil {
			logger.Warn.Printf("CloudWatch disabled: %v", err)
		} else {
			metrics.EnableCloudWatch(publisher)
			logger.Info.Println("CloudWatch metrics enabled")
		}
	}

	views := services.NewViewStore(cfg.ViewTTL)
	views.CleanupInactiveViews(ctx, viewSweepInterval)

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 3*time.Minute)
	go limiter.Cleanup(ctx)

	router, err := setupRouter(routerDeps{
		API:            api,
		Hub:            websocket.NewHub(cfg.ApplicationURL),
		Views:          views,
		Limiter:        limiter,
		Location:       loc,
		ApplicationURL: cfg.ApplicationURL,
		TemplatesDir:   cfg.TemplatesDir,
		SessionSecret:  cfg.SessionSecret,
		SessionSecure:  cfg.SessionSecure,
	})
	if err != nil {
		logger.Error.Fatalf("Failed to set up router: %v", err)
	}

	var handler http.Handler = router
	if cfg.XRayEnabled {
		handler = xray.Handler(xray.NewFixedSegmentNamer("pickle-web"), router)
	}

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info.Printf("Server starting on %s (api=%s)", srv.Addr, cfg.APIURL)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info.Println("Shutdown signal received")
	case err := <-serverErr:
		logger.Error.Printf("Server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error.Printf("Error during server shutdown: %v", err)
	}
	logger.Info.Println("Server stopped")
}
