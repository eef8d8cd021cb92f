// Package models contains domain entities and business models for the QR code service
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents an account that owns QR codes. Registration, login and
// token issuance live outside this service; the record exists as the FK
// target for ownership checks.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_users_uuid" json:"uuid"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:uk_users_email" json:"email"`
	Username     string    `gorm:"size:150;not null;uniqueIndex:uk_users_username" json:"username"`
	Name         string    `gorm:"size:255" json:"name"`
	PasswordHash string    `gorm:"size:128;not null" json:"-"` // Never serialize password hash
	IsActive     *bool     `gorm:"default:true;index:idx_users_is_active" json:"is_active"`

	CreatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"updated_at"`

	// Relations
	QRCodes []QRCode `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName returns the table name for User
func (User) TableName() string { return "users" }

// BeforeCreate assigns a UUID if one was not supplied
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	return nil
}

// UserFilter provides filter fields for repository queries
type UserFilter struct {
	ID       *uint
	UUID     *uuid.UUID
	Email    *string
	Username *string
	IsActive *bool
}
