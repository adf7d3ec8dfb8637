package models

import "time"

type VisitorAction string

const (
	ActionQRScan        VisitorAction = "qr_scan"
	ActionPageView      VisitorAction = "page_view"
	ActionActivityClick VisitorAction = "activity_click"
)

func (a VisitorAction) Valid() bool {
	switch a {
	case ActionQRScan, ActionPageView, ActionActivityClick:
		return true
	}
	return false
}

// VisitorEvent is an append-only audit row, one per tracked action.
// Enrichment columns are NULL when the lookup failed.
type VisitorEvent struct {
	ID            uint          `gorm:"primaryKey" json:"id"`
	PageSlug      *string       `gorm:"column:page_slug;size:255;index" json:"page_slug"`
	QRCodeSlug    string        `gorm:"column:qr_code_slug;size:255;index:idx_visitor_scan" json:"qr_code_slug"`
	QRCodeID      *uint         `gorm:"column:qr_code_id;index" json:"qr_code_id"`
	IPAddress     string        `gorm:"column:ip_address;size:45;index:idx_visitor_scan" json:"ip_address"`
	Fingerprint   string        `gorm:"column:fingerprint;size:64" json:"fingerprint"`
	Country       *string       `gorm:"column:country;size:100" json:"country"`
	City          *string       `gorm:"column:city;size:100" json:"city"`
	DeviceType    *string       `gorm:"column:device_type;size:16" json:"device_type"`
	Browser       *string       `gorm:"column:browser;size:32" json:"browser"`
	UserAgent     *string       `gorm:"column:user_agent;type:text" json:"user_agent"`
	Referer       *string       `gorm:"column:referer;size:500" json:"referer"`
	ActionType    VisitorAction `gorm:"column:action_type;size:32;index:idx_visitor_scan" json:"action_type"`
	ActivityID    *uint         `gorm:"column:activity_id" json:"activity_id"`
	ActivityTitle *string       `gorm:"column:activity_title;size:255" json:"activity_title"`
	CreatedAt     time.Time     `gorm:"index:idx_visitor_scan" json:"created_at"`
}

func (VisitorEvent) TableName() string { return "visitor_events" }
