package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qr-booking-backend/services"
	"qr-booking-backend/utils"
)

// CreateBookingRequest mirrors the booking form. Ids arrive as numbers or
// numeric strings.
type CreateBookingRequest struct {
	FirstName     string     `json:"firstName" binding:"required,max=255"`
	LastName      string     `json:"lastName" binding:"required,max=255"`
	Adults        *FlexInt   `json:"adults" binding:"required,min=0"`
	Children      *FlexInt   `json:"children" binding:"required,min=0"`
	WithTransfer  *bool      `json:"withTransfer" binding:"required"`
	Phone         string     `json:"phone" binding:"required,max=20"`
	Email         string     `json:"email" binding:"required,email,max=255"`
	Date          string     `json:"date" binding:"required,bookingdate"`
	ActivityID    *FlexInt   `json:"activity_id" binding:"required,min=1"`
	SupplierID    *FlexInt   `json:"supplier_id" binding:"required,min=1"`
	CategoryID    *FlexInt   `json:"category_id" binding:"required,min=1"`
	ActivityTitle *string    `json:"activity_title" binding:"omitempty,max=255"`
	CategoryTitle *string    `json:"category_title" binding:"omitempty,max=255"`
	TotalPrice    *FlexFloat `json:"total_price" binding:"required"`
	Source        *string    `json:"source" binding:"omitempty,max=255"`
	SourceID      *FlexInt   `json:"source_id" binding:"omitempty,min=0"`
	BaseURL       *string    `json:"base_url" binding:"omitempty,url,max=255"`
}

func (r CreateBookingRequest) toInput() (services.BookingInput, error) {
	date, err := ParseBookingDate(r.Date)
	if err != nil {
		return services.BookingInput{}, err
	}
	in := services.BookingInput{
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		Adults:        int(*r.Adults),
		Children:      int(*r.Children),
		WithTransfer:  *r.WithTransfer,
		Phone:         r.Phone,
		Email:         r.Email,
		Date:          date,
		ActivityID:    uint(*r.ActivityID),
		SupplierID:    uint(*r.SupplierID),
		CategoryID:    uint(*r.CategoryID),
		ActivityTitle: r.ActivityTitle,
		CategoryTitle: r.CategoryTitle,
		TotalPrice:    float64(*r.TotalPrice),
		Source:        r.Source,
		BaseURL:       r.BaseURL,
	}
	if r.SourceID != nil {
		id := uint(*r.SourceID)
		in.SourceID = &id
	}
	return in, nil
}

type BookingController struct {
	BookingSvc *services.BookingService
	Errors     ErrorReporter
}

func NewBookingController(svc *services.BookingService, errs ErrorReporter) *BookingController {
	return &BookingController{BookingSvc: svc, Errors: errs}
}

// CreateBooking handles POST /bookings.
func (ctrl *BookingController) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONValidationError(c, validationErrors(err))
		return
	}
	in, err := req.toInput()
	if err != nil {
		utils.JSONValidationError(c, map[string][]string{"date": {"The date is not a valid date."}})
		return
	}

	if _, err := ctrl.BookingSvc.Create(c.Request.Context(), in); err != nil {
		ctrl.Errors.Log.Error("BOOKING", err.Error())
		utils.JSONMessage(c, http.StatusInternalServerError, "Failed to store booking.")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Booking successfully stored.",
		"booking": req,
	})
}
