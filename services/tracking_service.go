package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"qr-booking-backend/events"
	"qr-booking-backend/logger"
	"qr-booking-backend/models"
)

// Visit is one visitor action to record.
type Visit struct {
	Action        models.VisitorAction
	Slug          string
	ActivityID    *uint
	ActivityTitle *string
	Request       RequestInfo
}

// LocationResolver is the geolocation capability tracking depends on.
type LocationResolver interface {
	ResolveLocation(ctx context.Context, ip string) (Location, error)
}

// VisitTracker is what handlers use to record visits without waiting.
type VisitTracker interface {
	TrackAsync(v Visit)
}

// TrackedVisit is the payload of the visitor.tracked event.
type TrackedVisit struct {
	EventID    uint                 `json:"event_id"`
	Action     models.VisitorAction `json:"action"`
	Slug       string               `json:"slug"`
	PageID     uint                 `json:"page_id"`
	QRCodeID   *uint                `json:"qr_code_id"`
	ActivityID *uint                `json:"activity_id,omitempty"`
	Country    *string              `json:"country"`
	DeviceType *string              `json:"device_type"`
	Counted    bool                 `json:"counted"`
	At         time.Time            `json:"at"`
}

type Tracker struct {
	DB         *gorm.DB
	IPResolver *ClientIPResolver
	Geo        LocationResolver
	Publisher  events.Publisher
	Log        *logger.Logger

	Enabled  bool
	Timeout  time.Duration
	Location *time.Location
	Now      func() time.Time

	wg sync.WaitGroup
}

func NewTracker(db *gorm.DB, ips *ClientIPResolver, geo LocationResolver, pub events.Publisher, log *logger.Logger) *Tracker {
	return &Tracker{
		DB:         db,
		IPResolver: ips,
		Geo:        geo,
		Publisher:  pub,
		Log:        log,
		Enabled:    true,
		Timeout:    5 * time.Second,
		Location:   time.Local,
		Now:        time.Now,
	}
}

// Fingerprint is a stable visitor hash over IP and User-Agent.
func Fingerprint(ip, userAgent string) string {
	sum := sha256.Sum256([]byte(ip + "|" + userAgent))
	return hex.EncodeToString(sum[:])
}

// TrackAsync records v in the background, detached from the request. It
// never blocks and never panics into the caller.
func (t *Tracker) TrackAsync(v Visit) {
	if t == nil || !t.Enabled {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				t.Log.Error("TRACKING", fmt.Sprintf("panic tracking %s: %v\n%s", v.Slug, r, debug.Stack()))
			}
		}()

		ctx := context.Background()
		if t.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, t.Timeout)
			defer cancel()
		}
		if err := t.Track(ctx, v); err != nil && !errors.Is(err, ErrPageNotFound) {
			t.Log.Warn("TRACKING", fmt.Sprintf("[%s] %s: %v", v.Action, v.Slug, err))
		}
	}()
}

// Wait blocks until in-flight background tracking finishes.
func (t *Tracker) Wait() {
	if t != nil {
		t.wg.Wait()
	}
}

// Track records v synchronously: counters first, then the audit row. The
// audit row is written whatever the counter outcome.
func (t *Tracker) Track(ctx context.Context, v Visit) error {
	if !v.Action.Valid() {
		return ErrInvalidAction
	}
	now := t.Now()

	qr, page, err := lookupPage(ctx, t.DB, v.Slug)
	if err != nil {
		return err
	}

	ip := HeaderClientIP(v.Request.Header, v.Request.RemoteAddr)
	if t.IPResolver != nil {
		ip = t.IPResolver.Resolve(ctx, v.Request)
	}
	fp := Fingerprint(ip, v.Request.UserAgent)

	country, city, device := t.enrich(ctx, ip, v.Request.UserAgent)

	counted, counterErr := t.updateCounters(ctx, v.Action, qr, page, ip, fp, now)

	event := models.VisitorEvent{
		PageSlug:      nonEmpty(page.Slug),
		QRCodeSlug:    v.Slug,
		IPAddress:     ip,
		Fingerprint:   fp,
		Country:       country,
		City:          city,
		DeviceType:    device.DeviceType,
		Browser:       device.Browser,
		UserAgent:     nonEmpty(v.Request.UserAgent),
		Referer:       nonEmpty(truncate(v.Request.Referer, 500)),
		ActionType:    v.Action,
		ActivityID:    v.ActivityID,
		ActivityTitle: v.ActivityTitle,
		CreatedAt:     now,
	}
	if qr != nil {
		event.QRCodeID = &qr.ID
	}
	var eventErr error
	if err := t.DB.WithContext(ctx).Create(&event).Error; err != nil {
		eventErr = fmt.Errorf("insert visitor event: %w", err)
	}

	t.Log.LogTracking(string(v.Action), v.Slug, fmt.Sprintf("ip=%s counted=%t", ip, counted))

	if eventErr == nil {
		events.PublishBestEffort(t.Publisher, t.Log, events.TopicVisitorTracked, fp, TrackedVisit{
			EventID:    event.ID,
			Action:     v.Action,
			Slug:       v.Slug,
			PageID:     page.ID,
			QRCodeID:   event.QRCodeID,
			ActivityID: v.ActivityID,
			Country:    country,
			DeviceType: device.DeviceType,
			Counted:    counted,
			At:         now,
		})
	}
	return errors.Join(counterErr, eventErr)
}

// enrich resolves geo and device data. A failing or panicking lookup leaves
// its fields nil so the visit is still recorded.
func (t *Tracker) enrich(ctx context.Context, ip, userAgent string) (country, city *string, device DeviceInfo) {
	defer func() {
		if r := recover(); r != nil {
			t.Log.Error("TRACKING", fmt.Sprintf("enrichment panic for %s: %v", ip, r))
		}
	}()
	device = ParseUserAgent(userAgent)
	if t.Geo != nil {
		if loc, err := t.Geo.ResolveLocation(ctx, ip); err == nil {
			country = nonEmpty(loc.Country)
			city = nonEmpty(loc.City)
		}
	}
	return country, city, device
}

// updateCounters applies the counter side of an action. It reports whether
// a scan was counted as the first of the day.
func (t *Tracker) updateCounters(ctx context.Context, action models.VisitorAction, qr *models.QRCode, page *models.SupplierPage, ip, fp string, now time.Time) (bool, error) {
	db := t.DB.WithContext(ctx)

	switch action {
	case models.ActionQRScan:
		if qr == nil {
			return false, nil
		}
		return t.countScan(db, qr.ID, ip, fp, now)

	case models.ActionPageView:
		if qr != nil {
			if err := bumpQRCounter(db, qr.ID, "view_count", now); err != nil {
				return false, err
			}
		}
		err := db.Model(&models.SupplierPage{}).Where("id = ?", page.ID).Updates(map[string]interface{}{
			"view_count":       gorm.Expr("view_count + ?", 1),
			"last_accessed_at": now,
		}).Error
		if err != nil {
			return false, fmt.Errorf("bump page views: %w", err)
		}
		return true, nil

	case models.ActionActivityClick:
		if qr == nil {
			return false, nil
		}
		if err := bumpQRCounter(db, qr.ID, "click_count", now); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, ErrInvalidAction
}

// countScan inserts the (code, ip, day) guard row and increments scan_count
// only when the insert created it, in one transaction.
func (t *Tracker) countScan(db *gorm.DB, qrID uint, ip, fp string, now time.Time) (bool, error) {
	loc := t.Location
	if loc == nil {
		loc = time.Local
	}
	day := now.In(loc).Format("2006-01-02")

	counted := false
	err := db.Transaction(func(tx *gorm.DB) error {
		guard := models.QRScanDay{QRCodeID: qrID, IPAddress: ip, Day: day, Fingerprint: fp, CreatedAt: now}
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&guard)
		if res.Error != nil {
			return fmt.Errorf("insert scan guard: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil
		}
		counted = true
		return bumpQRCounter(tx, qrID, "scan_count", now)
	})
	if err != nil {
		return false, err
	}
	return counted, nil
}

func bumpQRCounter(db *gorm.DB, qrID uint, column string, now time.Time) error {
	err := db.Model(&models.QRCode{}).Where("id = ?", qrID).Updates(map[string]interface{}{
		column:            gorm.Expr(column+" + ?", 1),
		"last_scanned_at": now,
	}).Error
	if err != nil {
		return fmt.Errorf("bump %s: %w", column, err)
	}
	return nil
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
