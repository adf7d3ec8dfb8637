package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"qr-booking-backend/config"
	"qr-booking-backend/controllers"
	"qr-booking-backend/logger"
	"qr-booking-backend/middleware"
	"qr-booking-backend/services"
)

type noopTracker struct{}

func (noopTracker) TrackAsync(services.Visit) {}

func newRouter(t *testing.T, origins []string) *gin.Engine {
	t.Helper()
	return newRouterWithConfig(t, &config.Config{App: config.AppConfig{CorsOrigins: origins}})
}

func newRouterWithConfig(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(config.Models()...))

	log := logger.Discard()
	errs := controllers.ErrorReporter{Log: log}
	pages := services.NewPageService(db)

	return SetupRouter(cfg, Controllers{
		Pages:    controllers.NewPageController(pages, noopTracker{}, errs),
		Bookings: controllers.NewBookingController(services.NewBookingService(db, nil, nil, log), errs),
		Tracking: controllers.NewTrackingController(noopTracker{}),
		QRCodes:  controllers.NewQRCodeController(pages, "", errs),
		Health:   controllers.NewHealthController(db, nil),
	}, nil, log)
}

func TestSetupRouter_Routes(t *testing.T) {
	r := newRouter(t, nil)

	cases := []struct {
		method, path string
		code         int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/api/unknown-page", http.StatusNotFound},
		{http.MethodGet, "/api/unknown-page/1/qr", http.StatusNotFound},
		{http.MethodGet, "/api/unknown-page/1/zz", http.StatusBadRequest},
		{http.MethodGet, "/qr-codes/unknown-page/image", http.StatusNotFound},
		{http.MethodPost, "/api/track", http.StatusBadRequest},
		{http.MethodPost, "/api/bookings", http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, tc.code, w.Code, "%s %s", tc.method, tc.path)
		assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))
	}
}

func TestSetupRouter_CORS(t *testing.T) {
	r := newRouter(t, []string{"https://book.example.com"})

	req := httptest.NewRequest(http.MethodOptions, "/api/bookings", nil)
	req.Header.Set("Origin", "https://book.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://book.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestCorsConfig_WildcardDisablesCredentials(t *testing.T) {
	cfg := corsConfig(nil)
	assert.Equal(t, []string{"*"}, cfg.AllowOrigins)
	assert.False(t, cfg.AllowCredentials)

	cfg = corsConfig([]string{"https://book.example.com"})
	assert.True(t, cfg.AllowCredentials)
}

// clientIPs sends one request per forwarded value from remoteAddr and returns
// the client IP gin resolved for each, which is what the rate limiter keys on.
func clientIPs(t *testing.T, r *gin.Engine, remoteAddr, header string, values ...string) []string {
	t.Helper()
	var seen []string
	r.GET("/client-ip", func(c *gin.Context) { seen = append(seen, c.ClientIP()) })
	for _, v := range values {
		req := httptest.NewRequest(http.MethodGet, "/client-ip", nil)
		req.RemoteAddr = remoteAddr
		req.Header.Set(header, v)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	return seen
}

func TestSetupRouter_IgnoresSpoofedForwardedFor(t *testing.T) {
	r := newRouter(t, nil)

	ips := clientIPs(t, r, "81.192.10.20:51000", "X-Forwarded-For", "1.1.1.1", "2.2.2.2", "3.3.3.3")
	assert.Equal(t, []string{"81.192.10.20", "81.192.10.20", "81.192.10.20"}, ips)
}

func TestSetupRouter_TrustedProxy(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{TrustedProxies: []string{"10.0.0.0/8"}}}
	r := newRouterWithConfig(t, cfg)

	ips := clientIPs(t, r, "10.0.0.5:51000", "X-Forwarded-For", "41.250.10.20")
	assert.Equal(t, []string{"41.250.10.20"}, ips)

	ips = clientIPs(t, newRouterWithConfig(t, cfg), "81.192.10.20:51000", "X-Forwarded-For", "41.250.10.20")
	assert.Equal(t, []string{"81.192.10.20"}, ips)
}

func TestSetupRouter_InvalidTrustedProxiesTrustsNone(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{TrustedProxies: []string{"not-an-ip"}}}
	r := newRouterWithConfig(t, cfg)

	ips := clientIPs(t, r, "81.192.10.20:51000", "X-Forwarded-For", "1.1.1.1")
	assert.Equal(t, []string{"81.192.10.20"}, ips)
}

func TestSetupRouter_CloudflarePlatform(t *testing.T) {
	cfg := &config.Config{Server: config.ServerConfig{TrustedPlatform: "cloudflare"}}
	r := newRouterWithConfig(t, cfg)

	ips := clientIPs(t, r, "172.64.0.9:51000", "CF-Connecting-IP", "41.250.10.20")
	assert.Equal(t, []string{"41.250.10.20"}, ips)
}

func TestTrustedPlatformHeader(t *testing.T) {
	assert.Equal(t, "", trustedPlatformHeader(""))
	assert.Equal(t, gin.PlatformCloudflare, trustedPlatformHeader("Cloudflare"))
	assert.Equal(t, "X-Real-Client", trustedPlatformHeader("X-Real-Client"))
}
