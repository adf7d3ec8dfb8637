package models

import (
	"time"

	"gorm.io/datatypes"
)

// SupplierPage is a supplier's public listing page. Read-only for this service
// apart from the view counter.
type SupplierPage struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	SupplierID      uint           `gorm:"column:supplier_id;index" json:"supplier_id"`
	UserID          uint           `gorm:"column:user_id" json:"user_id"`
	Slug            string         `gorm:"column:slug;size:255;index" json:"slug"`
	PageNumber      string         `gorm:"column:page_number;size:64" json:"page_number"`
	PageStyle       *string        `gorm:"column:page_style;size:64" json:"page_style"`
	PublicToken     string         `gorm:"column:public_token;size:128" json:"public_token"`
	BaseURL         string         `gorm:"column:base_url;size:255" json:"base_url"`
	QRCodePath      *string        `gorm:"column:qr_code_path;size:255" json:"qr_code_path"`
	Status          string         `gorm:"column:status;size:32" json:"status"`
	IsActive        bool           `gorm:"column:is_active;default:true" json:"is_active"`
	MultipleQRCodes datatypes.JSON `gorm:"column:multiple_qr_codes" json:"multiple_qr_codes"`
	ViewCount       int64          `gorm:"column:view_count;default:0" json:"view_count"`
	LastAccessedAt  *time.Time     `gorm:"column:last_accessed_at" json:"last_accessed_at"`
	Observation     *string        `gorm:"column:observation;type:text" json:"observation"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

func (SupplierPage) TableName() string { return "supplier_public_pages" }
