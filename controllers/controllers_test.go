package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"qr-booking-backend/config"
	"qr-booking-backend/logger"
	"qr-booking-backend/models"
	"qr-booking-backend/services"
)

type recordingTracker struct {
	mu     sync.Mutex
	visits []services.Visit
}

func (r *recordingTracker) TrackAsync(v services.Visit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.visits = append(r.visits, v)
}

func (r *recordingTracker) recorded() []services.Visit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]services.Visit(nil), r.visits...)
}

type harness struct {
	db       *gorm.DB
	router   *gin.Engine
	tracker  *recordingTracker
	activity models.Activity
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	RegisterValidators()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(config.Models()...))

	h := &harness{db: db, tracker: &recordingTracker{}}

	page := models.SupplierPage{SupplierID: 7, Slug: "riad-atlas", IsActive: true}
	require.NoError(t, db.Create(&page).Error)
	require.NoError(t, db.Create(&models.QRCode{Slug: "riad-atlas-lobby", PageID: page.ID}).Error)
	h.activity = models.Activity{SupplierID: 7, Title: "Hot air balloon"}
	require.NoError(t, db.Create(&h.activity).Error)
	require.NoError(t, db.Create(&models.SupplierPageActivity{PageID: page.ID, ActivityID: h.activity.ID, IsVisible: true, Price: 2100}).Error)
	require.NoError(t, db.Create(&models.ActivityClient{ActivityID: h.activity.ID, Person: "adult", Price: 30}).Error)

	errs := ErrorReporter{Log: logger.Discard()}
	pages := services.NewPageService(db)
	pc := NewPageController(pages, h.tracker, errs)
	bc := NewBookingController(services.NewBookingService(db, nil, nil, logger.Discard()), errs)
	tc := NewTrackingController(h.tracker)
	qc := NewQRCodeController(pages, "https://book.example.com", errs)
	hc := NewHealthController(db, nil)

	r := gin.New()
	r.GET("/health", hc.Health)
	r.GET("/qr-codes/:slug/image", qc.Image)
	api := r.Group("/api")
	api.POST("/bookings", bc.CreateBooking)
	api.POST("/track", tc.Track)
	api.GET("/:slug", pc.Show)
	api.GET("/:slug/:id/:resourceType", pc.ShowActivity)
	h.router = r
	return h
}

func (h *harness) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Android 14; Mobile) Chrome/120.0")
	req.Header.Set("X-Forwarded-For", "41.250.10.20")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
