package models

import "time"

// Banner holds platform-wide promotion metadata; its activities are shown
// next to every page's own listing.
type Banner struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"column:title;size:255" json:"title"`
	Subtitle     *string    `gorm:"column:subtitle;size:255" json:"subtitle"`
	Description  *string    `gorm:"column:description;type:text" json:"description"`
	ImagePath    *string    `gorm:"column:image_path;size:255" json:"image_path"`
	LinkLabel    *string    `gorm:"column:link_label;size:100" json:"link_label"`
	IsActive     bool       `gorm:"column:is_active;default:true" json:"is_active"`
	DisplayOrder int        `gorm:"column:display_order;default:0" json:"display_order"`
	StartsAt     *time.Time `gorm:"column:starts_at" json:"starts_at"`
	EndsAt       *time.Time `gorm:"column:ends_at" json:"ends_at"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Banner) TableName() string { return "banners" }

type BannerActivity struct {
	ID           uint `gorm:"primaryKey" json:"id"`
	BannerID     uint `gorm:"column:banner_id;index" json:"banner_id"`
	ActivityID   uint `gorm:"column:activity_id;index" json:"activity_id"`
	DisplayOrder int  `gorm:"column:display_order;default:0" json:"display_order"`
	IsVisible    bool `gorm:"column:is_visible;default:true" json:"is_visible"`
}

func (BannerActivity) TableName() string { return "banner_activities" }
