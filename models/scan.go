package models

import (
	"time"

	"github.com/google/uuid"
)

// Scan represents a single resolution of a QR code's short URL.
// Rows are append-only: no updates, no deletes except through the cascade
// from qr_codes. City and Country always carry a value; lookups that fail
// store the unknown-location sentinel instead of a blank.
type Scan struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	QRCodeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_scans_qr_code_id" json:"qr_code_id"`
	QRCode    *QRCode   `gorm:"foreignKey:QRCodeID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	ScanTime  time.Time `gorm:"not null;default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_scans_scan_time" json:"scan_time"`
	IPAddress string    `gorm:"size:64;not null" json:"ip_address"`
	City      string    `gorm:"size:100;not null" json:"city"`
	Country   string    `gorm:"size:100;not null" json:"country"`
}

// TableName returns the table name for Scan
func (Scan) TableName() string { return "scans" }

// ScanFilter provides filter fields for repository queries
type ScanFilter struct {
	QRCodeID      *uuid.UUID
	UserID        *uint
	ScannedAfter  *time.Time
	ScannedBefore *time.Time
}
