package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"qr-booking-backend/models"
)

type catalog struct {
	page      models.SupplierPage
	qr        models.QRCode
	act       map[string]models.Activity
	banner    models.Banner
	banner2   models.Banner
	expired   models.Banner
	inactiveP models.SupplierPage
}

func viewIDs(views []ActivityView) []uint {
	out := make([]uint, 0, len(views))
	for _, v := range views {
		out = append(out, v.ID)
	}
	return out
}

func seedCatalog(t *testing.T, db *gorm.DB, now time.Time) catalog {
	t.Helper()
	var c catalog

	cat := models.Category{Title: "Excursions", Description: strPtr("Day trips from Marrakech")}
	require.NoError(t, db.Create(&cat).Error)

	c.act = map[string]models.Activity{}
	for _, title := range []string{"quad", "balloon", "hammam", "camel", "ourika"} {
		a := models.Activity{SupplierID: 7, CategoryID: cat.ID, Title: title, ImagePath: strPtr(title + ".jpg"), PaymentMethods: []byte(`["cash","card"]`)}
		require.NoError(t, db.Create(&a).Error)
		c.act[title] = a
	}

	c.page, c.qr = seedPage(t, db, "riad-atlas", "riad-atlas-lobby")

	links := []models.SupplierPageActivity{
		{PageID: c.page.ID, ActivityID: c.act["quad"].ID, DisplayOrder: 2, IsVisible: true, Price: 450, ImagePath: strPtr("quad-page.jpg")},
		{PageID: c.page.ID, ActivityID: c.act["balloon"].ID, DisplayOrder: 1, IsVisible: true, Price: 2100},
		{PageID: c.page.ID, ActivityID: c.act["hammam"].ID, DisplayOrder: 3, IsVisible: true},
	}
	require.NoError(t, db.Create(&links).Error)
	// is_visible defaults to true on insert, so hide hammam afterwards.
	require.NoError(t, db.Model(&links[2]).Update("is_visible", false).Error)

	c.banner = models.Banner{Title: "Summer deals", IsActive: true, DisplayOrder: 1}
	c.banner2 = models.Banner{Title: "Spa week", IsActive: true, DisplayOrder: 2}
	past := now.Add(-48 * time.Hour)
	c.expired = models.Banner{Title: "Ramadan offers", IsActive: true, DisplayOrder: 0, EndsAt: &past}
	require.NoError(t, db.Create(&[]*models.Banner{&c.banner, &c.banner2, &c.expired}).Error)

	bannerLinks := []models.BannerActivity{
		{BannerID: c.banner.ID, ActivityID: c.act["balloon"].ID, DisplayOrder: 1, IsVisible: true},
		{BannerID: c.banner.ID, ActivityID: c.act["camel"].ID, DisplayOrder: 2, IsVisible: true},
		{BannerID: c.banner2.ID, ActivityID: c.act["camel"].ID, DisplayOrder: 1, IsVisible: true},
		{BannerID: c.banner2.ID, ActivityID: c.act["hammam"].ID, DisplayOrder: 2, IsVisible: true},
		{BannerID: c.expired.ID, ActivityID: c.act["ourika"].ID, DisplayOrder: 1, IsVisible: true},
	}
	require.NoError(t, db.Create(&bannerLinks).Error)

	schedules := []models.ActivitySchedule{
		{ActivityID: c.act["quad"].ID, Days: "Mon,Wed,Fri", StartTime: "09:00", EndTime: "12:00"},
		{ActivityID: c.act["quad"].ID, Days: "Sat", StartTime: "15:00", EndTime: "18:00"},
		{ActivityID: c.act["camel"].ID, Days: "Daily", StartTime: "17:00", EndTime: "19:00"},
	}
	require.NoError(t, db.Create(&schedules).Error)

	prices := []models.ActivityClient{
		{ActivityID: c.act["quad"].ID, Person: "adult", Price: 450},
		{ActivityID: c.act["quad"].ID, Person: "enfant", Price: 300},
		{ActivityID: c.act["camel"].ID, Person: "adult", Price: 250},
	}
	require.NoError(t, db.Create(&prices).Error)

	c.inactiveP, _ = seedPage(t, db, "closed-riad", "closed-riad-lobby")
	require.NoError(t, db.Model(&c.inactiveP).Update("is_active", false).Error)
	return c
}

func newPageFixture(t *testing.T) (*PageService, catalog) {
	t.Helper()
	db := newTestDB(t)
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	svc := NewPageService(db)
	svc.Now = func() time.Time { return now }
	return svc, seedCatalog(t, db, now)
}

func TestResolve_Bundle(t *testing.T) {
	svc, c := newPageFixture(t)

	bundle, err := svc.Resolve(context.Background(), "riad-atlas-lobby")
	require.NoError(t, err)

	assert.Equal(t, c.page.ID, bundle.Page.ID)
	require.NotNil(t, bundle.QRCode)
	assert.Equal(t, "riad-atlas-lobby", bundle.QRCode.Slug)

	// Page order by display_order; hidden hammam is not listed.
	assert.Equal(t, []uint{c.act["balloon"].ID, c.act["quad"].ID}, viewIDs(bundle.Activities))

	// Balloon is on the page, camel appears once, hammam is promoted by spa week,
	// ourika's banner has expired.
	assert.Equal(t, []uint{c.act["camel"].ID, c.act["hammam"].ID}, viewIDs(bundle.BannerActivities))

	require.NotNil(t, bundle.BannerMetaData)
	assert.Equal(t, c.banner.ID, bundle.BannerMetaData.ID)
	assert.Equal(t, "Summer deals", bundle.BannerMetaData.Title)
}

func TestResolve_NoBannerOverlap(t *testing.T) {
	svc, _ := newPageFixture(t)

	bundle, err := svc.Resolve(context.Background(), "riad-atlas-lobby")
	require.NoError(t, err)

	listed := map[uint]bool{}
	for _, a := range bundle.Activities {
		listed[a.ID] = true
	}
	for _, b := range bundle.BannerActivities {
		assert.False(t, listed[b.ID], "banner activity %d duplicates page listing", b.ID)
	}
}

func TestResolve_AttachesSchedulesAndPrices(t *testing.T) {
	svc, c := newPageFixture(t)

	bundle, err := svc.Resolve(context.Background(), "riad-atlas-lobby")
	require.NoError(t, err)

	byID := map[uint]ActivityView{}
	for _, a := range append(bundle.Activities, bundle.BannerActivities...) {
		byID[a.ID] = a
	}

	quad := byID[c.act["quad"].ID]
	assert.Len(t, quad.Schedules, 2)
	assert.Len(t, quad.Prices, 2)
	require.NotNil(t, quad.Image)
	assert.Equal(t, "quad-page.jpg", *quad.Image)
	require.NotNil(t, quad.CategoryTitle)
	assert.Equal(t, "Excursions", *quad.CategoryTitle)
	require.NotNil(t, quad.Price)
	assert.Equal(t, 450.0, *quad.Price)

	balloon := byID[c.act["balloon"].ID]
	assert.NotNil(t, balloon.Schedules)
	assert.Empty(t, balloon.Schedules)
	assert.Equal(t, "balloon.jpg", *balloon.Image)

	camel := byID[c.act["camel"].ID]
	assert.Len(t, camel.Schedules, 1)
	assert.Len(t, camel.Prices, 1)
	require.NotNil(t, camel.BannerID)
	assert.Equal(t, c.banner.ID, *camel.BannerID)
}

func TestResolve_NotFoundIsUniform(t *testing.T) {
	svc, _ := newPageFixture(t)
	ctx := context.Background()

	_, errUnknown := svc.Resolve(ctx, "does-not-exist")
	_, errInactive := svc.Resolve(ctx, "closed-riad-lobby")

	assert.ErrorIs(t, errUnknown, ErrPageNotFound)
	assert.ErrorIs(t, errInactive, ErrPageNotFound)
	assert.Equal(t, errUnknown.Error(), errInactive.Error())
}

func TestResolve_InvalidSlug(t *testing.T) {
	svc, _ := newPageFixture(t)
	for _, slug := range []string{"", "bad slug", "../etc", "riad;drop", "ümlaut"} {
		_, err := svc.Resolve(context.Background(), slug)
		assert.ErrorIs(t, err, ErrInvalidSlug, slug)
	}
}

func TestResolve_ByMultipleQRCodes(t *testing.T) {
	svc, _ := newPageFixture(t)
	page := models.SupplierPage{SupplierID: 3, Slug: "kasbah-tours", IsActive: true, MultipleQRCodes: []byte(`["kasbah-front","kasbah-rooftop"]`)}
	require.NoError(t, svc.DB.Create(&page).Error)

	bundle, err := svc.Resolve(context.Background(), "kasbah-rooftop")
	require.NoError(t, err)
	assert.Equal(t, page.ID, bundle.Page.ID)
	assert.Nil(t, bundle.QRCode)
	assert.NotNil(t, bundle.Activities)
	assert.Empty(t, bundle.Activities)
}

func TestResolve_InactiveCodeListedOnActivePage(t *testing.T) {
	svc, c := newPageFixture(t)
	page := models.SupplierPage{SupplierID: 3, Slug: "riad-atlas-new", IsActive: true, MultipleQRCodes: []byte(`["closed-riad-lobby"]`)}
	require.NoError(t, svc.DB.Create(&page).Error)

	bundle, err := svc.Resolve(context.Background(), "closed-riad-lobby")
	require.NoError(t, err)
	assert.Equal(t, page.ID, bundle.Page.ID)
	assert.NotEqual(t, c.inactiveP.ID, bundle.Page.ID)
	assert.Nil(t, bundle.QRCode)
}

func TestResolve_NoActiveBanner(t *testing.T) {
	svc, _ := newPageFixture(t)
	require.NoError(t, svc.DB.Model(&models.Banner{}).Where("1 = 1").Update("is_active", false).Error)

	bundle, err := svc.Resolve(context.Background(), "riad-atlas-lobby")
	require.NoError(t, err)
	assert.Nil(t, bundle.BannerMetaData)
	assert.NotNil(t, bundle.BannerActivities)
	assert.Empty(t, bundle.BannerActivities)
}

func TestDetail(t *testing.T) {
	svc, c := newPageFixture(t)
	ctx := context.Background()

	d, err := svc.Detail(ctx, "riad-atlas-lobby", c.act["quad"].ID, ResourcePage)
	require.NoError(t, err)
	assert.Equal(t, "quad", d.Activity.Title)
	assert.Len(t, d.Activity.Schedules, 2)
	assert.Equal(t, c.page.ID, d.Page.ID)
	assert.Equal(t, c.qr.ID, d.QRCode.ID)

	_, err = svc.Detail(ctx, "riad-atlas-lobby", c.act["camel"].ID, ResourcePage)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	_, err = svc.Detail(ctx, "riad-atlas-lobby", c.act["hammam"].ID, ResourcePage)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	d, err = svc.Detail(ctx, "riad-atlas-lobby", c.act["camel"].ID, ResourceBanner)
	require.NoError(t, err)
	assert.Equal(t, "camel", d.Activity.Title)
	assert.Len(t, d.Activity.Prices, 1)

	_, err = svc.Detail(ctx, "riad-atlas-lobby", c.act["ourika"].ID, ResourceBanner)
	assert.ErrorIs(t, err, ErrActivityNotFound)

	_, err = svc.Detail(ctx, "closed-riad-lobby", c.act["quad"].ID, ResourcePage)
	assert.ErrorIs(t, err, ErrPageNotFound)

	_, err = svc.Detail(ctx, "riad-atlas-lobby", 99999, ResourcePage)
	assert.ErrorIs(t, err, ErrActivityNotFound)
}

func TestExists(t *testing.T) {
	svc, _ := newPageFixture(t)
	ctx := context.Background()
	assert.NoError(t, svc.Exists(ctx, "riad-atlas-lobby"))
	assert.ErrorIs(t, svc.Exists(ctx, "nope"), ErrPageNotFound)
	assert.ErrorIs(t, svc.Exists(ctx, "bad slug"), ErrInvalidSlug)
}

func TestValidSlug_Length(t *testing.T) {
	assert.True(t, ValidSlug(strings.Repeat("a", 255)))
	assert.False(t, ValidSlug(strings.Repeat("a", 256)))
}

func TestParseResourceType(t *testing.T) {
	rt, err := ParseResourceType("qr")
	require.NoError(t, err)
	assert.Equal(t, ResourcePage, rt)

	rt, err = ParseResourceType("ban")
	require.NoError(t, err)
	assert.Equal(t, ResourceBanner, rt)

	_, err = ParseResourceType("xx")
	assert.ErrorIs(t, err, ErrInvalidResourceType)
}
