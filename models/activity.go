package models

import "gorm.io/datatypes"

type Category struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	Title       string  `gorm:"column:title;size:255" json:"title"`
	Description *string `gorm:"column:description;type:text" json:"description"`
}

func (Category) TableName() string { return "categories" }

type Activity struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SupplierID     uint           `gorm:"column:supplier_id;index" json:"supplier_id"`
	CategoryID     uint           `gorm:"column:category_id;index" json:"category_id"`
	Title          string         `gorm:"column:title;size:255" json:"title"`
	Description    string         `gorm:"column:description;type:text" json:"description"`
	PaymentMethods datatypes.JSON `gorm:"column:payment_methods" json:"payment_methods"`
	Localisation   string         `gorm:"column:localisation;size:255" json:"localisation"`
	ImagePath      *string        `gorm:"column:image_path;size:255" json:"image_path"`
}

func (Activity) TableName() string { return "activities" }

// SupplierPageActivity links an activity to a page with page-specific display data.
type SupplierPageActivity struct {
	ID            uint     `gorm:"primaryKey" json:"id"`
	PageID        uint     `gorm:"column:page_id;index" json:"page_id"`
	ActivityID    uint     `gorm:"column:activity_id;index" json:"activity_id"`
	ImagePath     *string  `gorm:"column:image_path;size:255" json:"image_path"`
	Rating        *float64 `gorm:"column:rating" json:"rating"`
	Person        *string  `gorm:"column:person;size:32" json:"person"`
	PersonsNumber *int     `gorm:"column:persons_number" json:"persons_number"`
	Price         float64  `gorm:"column:price;default:0" json:"price"`
	Discount      float64  `gorm:"column:discount;default:0" json:"discount"`
	DiscountType  string   `gorm:"column:discount_type;size:16" json:"discount_type"`
	DisplayOrder  int      `gorm:"column:display_order;default:0" json:"display_order"`
	IsFeatured    bool     `gorm:"column:is_featured;default:false" json:"is_featured"`
	IsVisible     bool     `gorm:"column:is_visible;default:true" json:"is_visible"`
}

func (SupplierPageActivity) TableName() string { return "supplier_page_activities" }

type ActivitySchedule struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	ActivityID uint   `gorm:"column:activity_id;index" json:"activity_id"`
	Days       string `gorm:"column:days;size:255" json:"days"`
	StartTime  string `gorm:"column:start_time;size:8" json:"start_time"`
	EndTime    string `gorm:"column:end_time;size:8" json:"end_time"`
}

func (ActivitySchedule) TableName() string { return "activity_schedules" }

// ActivityClient is a per-person-type rate ("adult", "enfant") for an activity.
type ActivityClient struct {
	ID                         uint    `gorm:"primaryKey" json:"id"`
	ActivityID                 uint    `gorm:"column:activity_id;index" json:"activity_id"`
	Person                     string  `gorm:"column:person;size:32" json:"person"`
	Price                      float64 `gorm:"column:price;default:0" json:"price"`
	Commission                 float64 `gorm:"column:commission;default:0" json:"commission"`
	CommissionTypeIsPercentage bool    `gorm:"column:commission_type_is_percentage;default:false" json:"commission_type_is_percentage"`
}

func (ActivityClient) TableName() string { return "activity_clients" }
