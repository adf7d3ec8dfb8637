package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"qr-booking-backend/config"
	"qr-booking-backend/controllers"
	"qr-booking-backend/events"
	"qr-booking-backend/logger"
	"qr-booking-backend/routes"
	"qr-booking-backend/services"
	"qr-booking-backend/utils"
)

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(logger.Options{
		Dir:      cfg.Log.Dir,
		MinLevel: logger.ParseLevel(cfg.Log.Level),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	if envErr != nil {
		log.Warn("CONFIG", ".env not found or couldn't load it; continuing with environment variables")
	}
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = log.Writer("GIN")

	db, err := config.ConnectDatabase(cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Database connect failed: %v", err))
	}
	log.Info("DATABASE", "Database connection established")

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("REDIS", "Redis unavailable; geo cache and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	publisher, err := events.NewPublisher(cfg.Events, log)
	if err != nil {
		log.Warn("EVENTS", fmt.Sprintf("events disabled: %v", err))
		publisher = events.NopPublisher{}
	}
	defer publisher.Close()

	// Services
	httpClient := &http.Client{Timeout: cfg.Tracking.GeoTimeout}
	ipResolver := services.NewClientIPResolver(httpClient, cfg.App.IsLocal() && cfg.Tracking.PublicIPLookup)
	geo := services.NewGeoLocator(
		services.DefaultLocationProviders(httpClient),
		services.NewRedisGeoCache(rdb, cfg.Tracking.GeoCacheTTL),
		cfg.Tracking.GeoTimeout,
		log,
	)

	tracker := services.NewTracker(db, ipResolver, geo, publisher, log)
	tracker.Enabled = cfg.Tracking.Enabled
	tracker.Timeout = cfg.Tracking.Timeout
	tracker.Location = cfg.Tracking.Location()

	pageService := services.NewPageService(db)
	bookingService := services.NewBookingService(db, utils.NewBookingMailer(cfg.Mail, log), publisher, log)
	bookingService.MailTimeout = cfg.Mail.Timeout

	// Controllers
	errs := controllers.ErrorReporter{Log: log, Debug: cfg.App.Debug}
	router := routes.SetupRouter(cfg, routes.Controllers{
		Pages:    controllers.NewPageController(pageService, tracker, errs),
		Bookings: controllers.NewBookingController(bookingService, errs),
		Tracking: controllers.NewTrackingController(tracker),
		QRCodes:  controllers.NewQRCodeController(pageService, cfg.App.FrontendURL, errs),
		Health:   controllers.NewHealthController(db, rdb),
	}, rdb, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", fmt.Sprintf("Server starting on %s (env=%s)", srv.Addr, cfg.App.Env))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("ListenAndServe(): %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Warn("SERVER", "Shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("SERVER", fmt.Sprintf("Server forced to shutdown: %v", err))
	}

	// Let in-flight tracking finish before the DB goes away.
	done := make(chan struct{})
	go func() {
		tracker.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("TRACKING", "Shutdown deadline reached with tracking still in flight")
	}

	log.Info("SERVER", "Server stopped gracefully")
}
