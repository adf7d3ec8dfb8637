package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"qr-booking-backend/config"
	"qr-booking-backend/events"
	"qr-booking-backend/logger"
	"qr-booking-backend/models"
)

// BookingInput is a validated booking submission.
type BookingInput struct {
	FirstName     string
	LastName      string
	Adults        int
	Children      int
	WithTransfer  bool
	Phone         string
	Email         string
	Date          time.Time
	ActivityID    uint
	SupplierID    uint
	CategoryID    uint
	ActivityTitle *string
	CategoryTitle *string
	TotalPrice    float64
	Source        *string
	SourceID      *uint
	BaseURL       *string
}

// BookingMailer sends the two booking emails. Implementations must honour
// ctx for their network calls.
type BookingMailer interface {
	SendCustomerConfirmation(ctx context.Context, b *models.Booking) error
	SendAgencyNotification(ctx context.Context, b *models.Booking) error
}

// Rates are the per-person prices of an activity at submission time.
type Rates struct {
	Adult float64
	Child float64
}

const maxReferenceAttempts = 3

type BookingService struct {
	DB           *gorm.DB
	Mailer       BookingMailer
	Publisher    events.Publisher
	Log          *logger.Logger
	MailTimeout  time.Duration
	NewReference func() string
}

func NewBookingService(db *gorm.DB, mailer BookingMailer, pub events.Publisher, log *logger.Logger) *BookingService {
	return &BookingService{
		DB:           db,
		Mailer:       mailer,
		Publisher:    pub,
		Log:          log,
		MailTimeout:  10 * time.Second,
		NewReference: func() string { return uuid.NewString() },
	}
}

// LookupRates reads the activity's adult and child rates. A missing rate is
// zero; "enfant", "child" and "children" all count as child.
func (s *BookingService) LookupRates(ctx context.Context, activityID uint) (Rates, error) {
	var clients []models.ActivityClient
	err := s.DB.WithContext(ctx).
		Where("activity_id = ?", activityID).
		Order("id ASC").
		Find(&clients).Error
	if err != nil {
		return Rates{}, fmt.Errorf("load activity rates: %w", err)
	}

	var rates Rates
	var haveAdult, haveChild bool
	for _, c := range clients {
		switch strings.ToLower(strings.TrimSpace(c.Person)) {
		case "adult", "adulte", "adults":
			if !haveAdult {
				rates.Adult, haveAdult = c.Price, true
			}
		case "enfant", "child", "children", "enfants":
			if !haveChild {
				rates.Child, haveChild = c.Price, true
			}
		}
	}
	return rates, nil
}

// Create stores the booking, then sends emails and publishes booking.created.
// Only the insert can fail the call.
func (s *BookingService) Create(ctx context.Context, in BookingInput) (*models.Booking, error) {
	rates, err := s.LookupRates(ctx, in.ActivityID)
	if err != nil {
		return nil, err
	}

	booking := &models.Booking{
		FirstName:     strings.TrimSpace(in.FirstName),
		LastName:      strings.TrimSpace(in.LastName),
		Adults:        in.Adults,
		Children:      in.Children,
		WithTransfer:  in.WithTransfer,
		Phone:         strings.TrimSpace(in.Phone),
		Email:         strings.TrimSpace(in.Email),
		Date:          datatypes.Date(in.Date),
		ActivityID:    in.ActivityID,
		SupplierID:    in.SupplierID,
		CategoryID:    in.CategoryID,
		ActivityTitle: in.ActivityTitle,
		CategoryTitle: in.CategoryTitle,
		TotalPrice:    in.TotalPrice,
		AdultPrice:    rates.Adult,
		ChildPrice:    rates.Child,
		Source:        in.Source,
		SourceID:      in.SourceID,
		BaseURL:       in.BaseURL,
		Status:        models.BookingStatusPending,
	}

	if err := s.insert(ctx, booking); err != nil {
		return nil, err
	}
	s.Log.LogDatabase("INSERT", "qr_code_bookings", fmt.Sprintf("booking %s for activity %d", booking.Reference, booking.ActivityID))

	s.notify(ctx, booking)
	events.PublishBestEffort(s.Publisher, s.Log, events.TopicBookingCreated, booking.Reference, booking)
	return booking, nil
}

func (s *BookingService) insert(ctx context.Context, b *models.Booking) error {
	var err error
	for attempt := 0; attempt < maxReferenceAttempts; attempt++ {
		b.ID = 0
		b.Reference = s.NewReference()
		err = s.DB.WithContext(ctx).Create(b).Error
		if err == nil {
			return nil
		}
		if !config.IsDuplicateKey(err) && !errors.Is(err, gorm.ErrDuplicatedKey) {
			break
		}
	}
	return fmt.Errorf("insert booking: %w", err)
}

// notify sends both emails. Failures are logged only: the booking is stored.
func (s *BookingService) notify(ctx context.Context, b *models.Booking) {
	if s.Mailer == nil {
		return
	}
	if s.MailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), s.MailTimeout)
		defer cancel()
	}
	if err := s.Mailer.SendCustomerConfirmation(ctx, b); err != nil {
		s.Log.Error("MAIL", fmt.Sprintf("confirmation for booking %s to %s failed: %v", b.Reference, b.Email, err))
	}
	if err := s.Mailer.SendAgencyNotification(ctx, b); err != nil {
		s.Log.Error("MAIL", fmt.Sprintf("agency notification for booking %s failed: %v", b.Reference, err))
	}
}
