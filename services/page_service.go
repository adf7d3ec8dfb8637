package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"qr-booking-backend/models"
)

// ActivityView is an activity as listed on a page or banner, joined with its
// category and, for page listings, the page-specific display data.
type ActivityView struct {
	ID                  uint                      `json:"id"`
	SupplierID          uint                      `json:"supplier_id"`
	CategoryID          uint                      `json:"category_id"`
	Title               string                    `json:"title"`
	Description         string                    `json:"description"`
	PaymentMethods      datatypes.JSON            `json:"payment_methods"`
	Localisation        string                    `json:"localisation"`
	Image               *string                   `json:"image"`
	ImagePath           *string                   `json:"image_path"`
	Rating              *float64                  `json:"rating"`
	Person              *string                   `json:"person"`
	PersonsNumber       *int                      `json:"persons_number"`
	Price               *float64                  `json:"price"`
	Discount            *float64                  `json:"discount"`
	DiscountType        *string                   `json:"discount_type"`
	DisplayOrder        int                       `json:"display_order"`
	IsFeatured          bool                      `json:"is_featured"`
	CategoryTitle       *string                   `json:"category_title"`
	CategoryDescription *string                   `json:"category_description"`
	BannerID            *uint                     `json:"banner_id,omitempty"`
	Schedules           []models.ActivitySchedule `gorm:"-" json:"schedules"`
	Prices              []models.ActivityClient   `gorm:"-" json:"prices"`
}

type BannerMeta struct {
	ID          uint    `json:"id"`
	Title       string  `json:"title"`
	Subtitle    *string `json:"subtitle"`
	Description *string `json:"description"`
	ImagePath   *string `json:"image_path"`
	LinkLabel   *string `json:"link_label"`
}

// PageBundle is the response of a page lookup. QRCode is nil when the page
// was matched through its multiple_qr_codes list.
type PageBundle struct {
	Page             *models.SupplierPage `json:"page"`
	Activities       []ActivityView       `json:"activities"`
	BannerActivities []ActivityView       `json:"bannerActivities"`
	BannerMetaData   *BannerMeta          `json:"bannerMetaData"`
	QRCode           *models.QRCode       `json:"qrCode"`
}

type ActivityDetail struct {
	Page     *models.SupplierPage `json:"page"`
	Activity ActivityView         `json:"activity"`
	QRCode   *models.QRCode       `json:"qrCode"`
}

type PageService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewPageService(db *gorm.DB) *PageService {
	return &PageService{DB: db, Now: time.Now}
}

const activityColumns = `a.id, a.supplier_id, a.category_id, a.title, a.description,
	a.payment_methods, a.localisation, a.image_path,
	c.title AS category_title, c.description AS category_description`

// Resolve returns the page bundle for a QR slug. Unknown slugs and inactive
// pages both yield ErrPageNotFound.
func (s *PageService) Resolve(ctx context.Context, slug string) (*PageBundle, error) {
	if !ValidSlug(slug) {
		return nil, ErrInvalidSlug
	}
	qr, page, err := lookupPage(ctx, s.DB, slug)
	if err != nil {
		return nil, err
	}

	activities, err := s.pageActivities(ctx, page.ID, 0)
	if err != nil {
		return nil, err
	}
	banners, err := s.bannerActivities(ctx, 0)
	if err != nil {
		return nil, err
	}
	banners = excludeListed(activities, banners)

	all := make([]*ActivityView, 0, len(activities)+len(banners))
	for i := range activities {
		all = append(all, &activities[i])
	}
	for i := range banners {
		all = append(all, &banners[i])
	}
	if err := s.attachSchedulesAndPrices(ctx, all); err != nil {
		return nil, err
	}

	meta, err := s.bannerMeta(ctx)
	if err != nil {
		return nil, err
	}

	return &PageBundle{
		Page:             page,
		Activities:       activities,
		BannerActivities: banners,
		BannerMetaData:   meta,
		QRCode:           qr,
	}, nil
}

// Detail resolves one activity through either the page listing or the banner
// listing, depending on rt.
func (s *PageService) Detail(ctx context.Context, slug string, activityID uint, rt ResourceType) (*ActivityDetail, error) {
	if !ValidSlug(slug) {
		return nil, ErrInvalidSlug
	}
	if activityID == 0 {
		return nil, ErrActivityNotFound
	}
	qr, page, err := lookupPage(ctx, s.DB, slug)
	if err != nil {
		return nil, err
	}

	var rows []ActivityView
	switch rt {
	case ResourcePage:
		rows, err = s.pageActivities(ctx, page.ID, activityID)
	case ResourceBanner:
		rows, err = s.bannerActivities(ctx, activityID)
	default:
		return nil, ErrInvalidResourceType
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrActivityNotFound
	}

	activity := rows[0]
	if err := s.attachSchedulesAndPrices(ctx, []*ActivityView{&activity}); err != nil {
		return nil, err
	}
	return &ActivityDetail{Page: page, Activity: activity, QRCode: qr}, nil
}

// lookupPage finds the active page behind a slug: first through qr_codes,
// then through pages listing the slug in multiple_qr_codes. A code whose
// own page is inactive still resolves through another page's list.
func lookupPage(ctx context.Context, db *gorm.DB, slug string) (*models.QRCode, *models.SupplierPage, error) {
	db = db.WithContext(ctx)

	var qr models.QRCode
	err := db.Where("slug = ?", slug).Take(&qr).Error
	switch {
	case err == nil:
		var page models.SupplierPage
		err := db.Where("id = ? AND is_active = ?", qr.PageID, true).Take(&page).Error
		if err == nil {
			return &qr, &page, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("find page %d: %w", qr.PageID, err)
		}
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, nil, fmt.Errorf("find qr code: %w", err)
	}

	var page models.SupplierPage
	err = db.Where("is_active = ?", true).
		Where(datatypes.JSONArrayQuery("multiple_qr_codes").Contains(slug)).
		Order("id ASC").
		Take(&page).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrPageNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("find page by qr list: %w", err)
	}
	return nil, &page, nil
}

// pageActivities lists the visible activities of a page; activityID > 0
// narrows it to that one activity.
func (s *PageService) pageActivities(ctx context.Context, pageID, activityID uint) ([]ActivityView, error) {
	q := s.DB.WithContext(ctx).
		Table("supplier_page_activities AS spa").
		Select(activityColumns+`,
			COALESCE(spa.image_path, a.image_path) AS image,
			spa.rating, spa.person, spa.persons_number, spa.price, spa.discount,
			spa.discount_type, spa.display_order, spa.is_featured`).
		Joins("JOIN activities a ON a.id = spa.activity_id").
		Joins("LEFT JOIN categories c ON c.id = a.category_id").
		Where("spa.page_id = ? AND spa.is_visible = ?", pageID, true)
	if activityID > 0 {
		q = q.Where("a.id = ?", activityID)
	}

	rows := []ActivityView{}
	if err := q.Order("spa.display_order ASC, spa.id ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list page activities: %w", err)
	}
	if rows == nil {
		rows = []ActivityView{}
	}
	return rows, nil
}

func (s *PageService) activeBanners(db *gorm.DB) *gorm.DB {
	now := s.Now()
	return db.Where("b.is_active = ?", true).
		Where("b.starts_at IS NULL OR b.starts_at <= ?", now).
		Where("b.ends_at IS NULL OR b.ends_at >= ?", now)
}

// bannerActivities lists activities of active banners in banner order. An
// activity promoted by several banners appears once, under the first.
func (s *PageService) bannerActivities(ctx context.Context, activityID uint) ([]ActivityView, error) {
	q := s.DB.WithContext(ctx).
		Table("banner_activities AS ba").
		Select(activityColumns+`,
			a.image_path AS image, ba.display_order, ba.banner_id`).
		Joins("JOIN banners b ON b.id = ba.banner_id").
		Joins("JOIN activities a ON a.id = ba.activity_id").
		Joins("LEFT JOIN categories c ON c.id = a.category_id").
		Where("ba.is_visible = ?", true)
	q = s.activeBanners(q)
	if activityID > 0 {
		q = q.Where("a.id = ?", activityID)
	}

	var rows []ActivityView
	err := q.Order("b.display_order ASC, b.id ASC, ba.display_order ASC, ba.id ASC").Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list banner activities: %w", err)
	}

	seen := make(map[uint]bool, len(rows))
	out := make([]ActivityView, 0, len(rows))
	for _, row := range rows {
		if seen[row.ID] {
			continue
		}
		seen[row.ID] = true
		out = append(out, row)
	}
	return out, nil
}

// excludeListed drops banner entries whose activity is already on the page.
func excludeListed(page, banners []ActivityView) []ActivityView {
	listed := make(map[uint]bool, len(page))
	for _, a := range page {
		listed[a.ID] = true
	}
	out := make([]ActivityView, 0, len(banners))
	for _, b := range banners {
		if !listed[b.ID] {
			out = append(out, b)
		}
	}
	return out
}

func (s *PageService) bannerMeta(ctx context.Context) (*BannerMeta, error) {
	var banners []models.Banner
	q := s.activeBanners(s.DB.WithContext(ctx).Table("banners AS b")).
		Order("b.display_order ASC, b.id ASC").
		Limit(1)
	if err := q.Find(&banners).Error; err != nil {
		return nil, fmt.Errorf("find banner: %w", err)
	}
	if len(banners) == 0 {
		return nil, nil
	}
	b := banners[0]
	return &BannerMeta{
		ID:          b.ID,
		Title:       b.Title,
		Subtitle:    b.Subtitle,
		Description: b.Description,
		ImagePath:   b.ImagePath,
		LinkLabel:   b.LinkLabel,
	}, nil
}

// attachSchedulesAndPrices loads schedules and rates for all views in two
// queries and distributes them by activity id.
func (s *PageService) attachSchedulesAndPrices(ctx context.Context, views []*ActivityView) error {
	if len(views) == 0 {
		return nil
	}
	ids := make([]uint, 0, len(views))
	seen := make(map[uint]bool, len(views))
	for _, v := range views {
		if !seen[v.ID] {
			seen[v.ID] = true
			ids = append(ids, v.ID)
		}
	}

	db := s.DB.WithContext(ctx)

	var schedules []models.ActivitySchedule
	if err := db.Where("activity_id IN ?", ids).Order("id ASC").Find(&schedules).Error; err != nil {
		return fmt.Errorf("load schedules: %w", err)
	}
	var prices []models.ActivityClient
	if err := db.Where("activity_id IN ?", ids).Order("id ASC").Find(&prices).Error; err != nil {
		return fmt.Errorf("load prices: %w", err)
	}

	schedulesByActivity := make(map[uint][]models.ActivitySchedule, len(ids))
	for _, sc := range schedules {
		schedulesByActivity[sc.ActivityID] = append(schedulesByActivity[sc.ActivityID], sc)
	}
	pricesByActivity := make(map[uint][]models.ActivityClient, len(ids))
	for _, p := range prices {
		pricesByActivity[p.ActivityID] = append(pricesByActivity[p.ActivityID], p)
	}

	for _, v := range views {
		v.Schedules = schedulesByActivity[v.ID]
		if v.Schedules == nil {
			v.Schedules = []models.ActivitySchedule{}
		}
		v.Prices = pricesByActivity[v.ID]
		if v.Prices == nil {
			v.Prices = []models.ActivityClient{}
		}
	}
	return nil
}

// Exists reports ErrPageNotFound unless slug resolves to an active page.
func (s *PageService) Exists(ctx context.Context, slug string) error {
	if !ValidSlug(slug) {
		return ErrInvalidSlug
	}
	_, _, err := lookupPage(ctx, s.DB, slug)
	return err
}
