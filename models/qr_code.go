package models

import "time"

// QRCode is one printed code pointing at a supplier page. Counters are
// advisory; they are bumped by visitor tracking without locking.
type QRCode struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Slug          string     `gorm:"column:slug;size:191;uniqueIndex" json:"slug"`
	PageID        uint       `gorm:"column:page_id;index" json:"page_id"`
	Label         *string    `gorm:"column:label;size:255" json:"label"`
	ScanCount     int64      `gorm:"column:scan_count;default:0" json:"scan_count"`
	ViewCount     int64      `gorm:"column:view_count;default:0" json:"view_count"`
	ClickCount    int64      `gorm:"column:click_count;default:0" json:"click_count"`
	LastScannedAt *time.Time `gorm:"column:last_scanned_at" json:"last_scanned_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (QRCode) TableName() string { return "qr_codes" }

// QRScanDay is the per-day dedup guard for scans. The unique index makes the
// "first scan today" decision a single insert-or-ignore.
type QRScanDay struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	QRCodeID    uint      `gorm:"column:qr_code_id;uniqueIndex:idx_qr_scan_day" json:"qr_code_id"`
	IPAddress   string    `gorm:"column:ip_address;size:45;uniqueIndex:idx_qr_scan_day" json:"ip_address"`
	Day         string    `gorm:"column:day;size:10;uniqueIndex:idx_qr_scan_day" json:"day"`
	Fingerprint string    `gorm:"column:fingerprint;size:64" json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
}

func (QRScanDay) TableName() string { return "qr_scan_days" }
