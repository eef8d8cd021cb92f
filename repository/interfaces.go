// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/qread/qread/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for QR code owners
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByID(ctx context.Context, id uint) (*models.User, error)
	ByUUID(ctx context.Context, uuid uuid.UUID) (*models.User, error)
	ByEmail(ctx context.Context, email string) (*models.User, error)
}

// QRCodeRepository defines operations for QR code records
type QRCodeRepository interface {
	Repository[models.QRCode, models.QRCodeFilter]
	ByID(ctx context.Context, id uuid.UUID) (*models.QRCode, error)
	ByShortURL(ctx context.Context, shortURL string) (*models.QRCode, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.QRCode, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ScanRepository defines operations for scan events. Scans are append-only;
// there is deliberately no update or delete beyond the qr_codes cascade.
type ScanRepository interface {
	Repository[models.Scan, models.ScanFilter]
	ListByQRCode(ctx context.Context, qrCodeID uuid.UUID) ([]*models.Scan, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Scan, error)
	CountByQRCode(ctx context.Context, qrCodeID uuid.UUID) (int64, error)
}
