package models

import (
	"time"

	"gorm.io/datatypes"
)

const BookingStatusPending = "pending"

// Booking is a submitted booking request. Column names follow the existing
// qr_code_bookings table, which mixes camelCase and snake_case.
type Booking struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Reference     string         `gorm:"column:reference;size:36;uniqueIndex" json:"reference"`
	FirstName     string         `gorm:"column:firstName;size:255" json:"firstName"`
	LastName      string         `gorm:"column:lastName;size:255" json:"lastName"`
	Adults        int            `gorm:"column:adults" json:"adults"`
	Children      int            `gorm:"column:children" json:"children"`
	WithTransfer  bool           `gorm:"column:withTransfer" json:"withTransfer"`
	Phone         string         `gorm:"column:phone;size:20" json:"phone"`
	Email         string         `gorm:"column:email;size:255" json:"email"`
	Date          datatypes.Date `gorm:"column:date" json:"date"`
	ActivityID    uint           `gorm:"column:activity_id;index" json:"activity_id"`
	SupplierID    uint           `gorm:"column:supplier_id;index" json:"supplier_id"`
	CategoryID    uint           `gorm:"column:category_id" json:"category_id"`
	ActivityTitle *string        `gorm:"column:activity_title;size:255" json:"activity_title"`
	CategoryTitle *string        `gorm:"column:category_title;size:255" json:"category_title"`
	TotalPrice    float64        `gorm:"column:total_price" json:"total_price"`
	AdultPrice    float64        `gorm:"column:adult_price;default:0" json:"adult_price"`
	ChildPrice    float64        `gorm:"column:child_price;default:0" json:"child_price"`
	Source        *string        `gorm:"column:source;size:255" json:"source"`
	SourceID      *uint          `gorm:"column:source_id" json:"source_id"`
	BaseURL       *string        `gorm:"column:base_url;size:255" json:"base_url"`
	Status        string         `gorm:"column:status;size:32;default:pending" json:"status"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (Booking) TableName() string { return "qr_code_bookings" }
