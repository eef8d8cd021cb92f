package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/qread/qread/models"
	"gorm.io/gorm"
)

// ScanRepositoryImpl implements ScanRepository
type ScanRepositoryImpl struct {
	*BaseRepository[models.Scan, models.ScanFilter]
}

func NewScanRepository(db *gorm.DB) ScanRepository {
	return &ScanRepositoryImpl{BaseRepository: NewBaseRepository[models.Scan, models.ScanFilter](db)}
}

func (r *ScanRepositoryImpl) ListByQRCode(ctx context.Context, qrCodeID uuid.UUID) ([]*models.Scan, error) {
	filter := models.ScanFilter{QRCodeID: &qrCodeID}
	return r.ByFilter(ctx, filter, "scan_time ASC", 0, 0)
}

// ListByUser returns scan events across every QR code owned by the user
func (r *ScanRepositoryImpl) ListByUser(ctx context.Context, userID uint) ([]*models.Scan, error) {
	filter := models.ScanFilter{UserID: &userID}
	return r.ByFilter(ctx, filter, "scans.scan_time ASC", 0, 0)
}

func (r *ScanRepositoryImpl) CountByQRCode(ctx context.Context, qrCodeID uuid.UUID) (int64, error) {
	return r.Count(ctx, models.ScanFilter{QRCodeID: &qrCodeID})
}

func (r *ScanRepositoryImpl) applyFilter(db *gorm.DB, f models.ScanFilter) *gorm.DB {
	if f.QRCodeID != nil {
		db = db.Where("scans.qr_code_id = ?", *f.QRCodeID)
	}
	if f.UserID != nil {
		db = db.Joins("JOIN qr_codes ON qr_codes.id = scans.qr_code_id").
			Where("qr_codes.user_id = ?", *f.UserID)
	}
	if f.ScannedAfter != nil {
		db = db.Where("scans.scan_time >= ?", *f.ScannedAfter)
	}
	if f.ScannedBefore != nil {
		db = db.Where("scans.scan_time < ?", *f.ScannedBefore)
	}
	return db
}

func (r *ScanRepositoryImpl) ByFilter(ctx context.Context, filter models.ScanFilter, orderBy string, limit, offset int) ([]*models.Scan, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Scan{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Scan
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *ScanRepositoryImpl) Count(ctx context.Context, filter models.ScanFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Scan{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ScanRepositoryImpl) Exists(ctx context.Context, filter models.ScanFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
