package routes

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"qr-booking-backend/config"
	"qr-booking-backend/controllers"
	"qr-booking-backend/logger"
	"qr-booking-backend/middleware"
)

// Controllers groups the handlers the router mounts.
type Controllers struct {
	Pages    *controllers.PageController
	Bookings *controllers.BookingController
	Tracking *controllers.TrackingController
	QRCodes  *controllers.QRCodeController
	Health   *controllers.HealthController
}

func corsConfig(origins []string) cors.Config {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}
	return cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}
}

// trustedPlatformHeader maps TRUSTED_PLATFORM to the header gin reads the
// client IP from.
func trustedPlatformHeader(name string) string {
	switch strings.ToLower(name) {
	case "":
		return ""
	case "cloudflare":
		return gin.PlatformCloudflare
	case "google-app-engine", "appengine":
		return gin.PlatformGoogleAppEngine
	}
	return name
}

func SetupRouter(cfg *config.Config, ctrls Controllers, rdb *redis.Client, log *logger.Logger) *gin.Engine {
	controllers.RegisterValidators()

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		log.Warn("SERVER", fmt.Sprintf("invalid TRUSTED_PROXIES, trusting none: %v", err))
		_ = r.SetTrustedProxies(nil)
	}
	r.TrustedPlatform = trustedPlatformHeader(cfg.Server.TrustedPlatform)
	r.Use(gin.RecoveryWithWriter(log.Writer("PANIC")))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(log))
	r.Use(cors.New(corsConfig(cfg.App.CorsOrigins)))

	limit := middleware.RateLimit(cfg.RateLimit, rdb, log)

	r.GET("/health", ctrls.Health.Health)
	r.GET("/qr-codes/:slug/image", ctrls.QRCodes.Image)

	api := r.Group("/api")
	{
		api.POST("/bookings", limit, ctrls.Bookings.CreateBooking)
		api.POST("/track", limit, ctrls.Tracking.Track)

		api.GET("/:slug", ctrls.Pages.Show)
		api.GET("/:slug/:id/:resourceType", ctrls.Pages.ShowActivity)
	}

	return r
}
