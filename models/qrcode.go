package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QRCode represents a shortened link behind a scannable code.
// ShortURL is the unique public token that maps to the target URL; it is
// immutable once set and uniqueness is enforced by the store.
// ImagePath points at the rendered PNG and is not required for redirects.
type QRCode struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index:idx_qr_codes_user_id" json:"user_id"`
	User      *User     `gorm:"foreignKey:UserID;references:ID" json:"-"`
	Content   string    `gorm:"size:500;not null" json:"content"`
	ShortURL  string    `gorm:"size:50;not null;uniqueIndex:uk_qr_codes_short_url" json:"short_url"`
	ImagePath string    `gorm:"size:255" json:"image_path"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_qr_codes_created_at" json:"created_at"`

	// Relations
	Scans []Scan `gorm:"foreignKey:QRCodeID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for QRCode
func (QRCode) TableName() string { return "qr_codes" }

// BeforeCreate assigns a UUID primary key if one was not supplied
func (q *QRCode) BeforeCreate(_ *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QRCodeFilter provides filter fields for repository queries
type QRCodeFilter struct {
	ID            *uuid.UUID
	UserID        *uint
	ShortURL      *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
