package businessflow

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/qread/qread/app/dto"
	"github.com/qread/qread/app/services"
	"github.com/qread/qread/config"
	"github.com/qread/qread/models"
	"github.com/qread/qread/repository"
	"github.com/qread/qread/utils"
	"github.com/redis/go-redis/v9"
)

// maxShortCodeAttempts bounds regeneration retries on insert collisions.
// Collisions on an 8-char random code are vanishingly rare but are handled,
// not assumed away.
const maxShortCodeAttempts = 10

// QRCodeFlow owns the short code registry: creation with unique code
// generation, owner-scoped listing, lookup and cascading deletion
type QRCodeFlow interface {
	CreateQRCode(ctx context.Context, req *dto.CreateQRCodeRequest, metadata *ClientMetadata) (*dto.QRCodeDTO, error)
	ListQRCodes(ctx context.Context, userID uint) (*dto.ListQRCodesResponse, error)
	GetQRCode(ctx context.Context, userID uint, shortURL string) (*dto.QRCodeDTO, error)
	DeleteQRCode(ctx context.Context, userID uint, shortURL string) error
}

type QRCodeFlowImpl struct {
	userRepo     repository.UserRepository
	qrRepo       repository.QRCodeRepository
	imageService services.QRImageService
	rc           *redis.Client
	cacheConfig  *config.CacheConfig
}

func NewQRCodeFlow(
	userRepo repository.UserRepository,
	qrRepo repository.QRCodeRepository,
	imageService services.QRImageService,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) QRCodeFlow {
	return &QRCodeFlowImpl{
		userRepo:     userRepo,
		qrRepo:       qrRepo,
		imageService: imageService,
		rc:           rc,
		cacheConfig:  cacheConfig,
	}
}

func (f *QRCodeFlowImpl) CreateQRCode(ctx context.Context, req *dto.CreateQRCodeRequest, _ *ClientMetadata) (*dto.QRCodeDTO, error) {
	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, ErrContentRequired
	}

	user, err := f.userRepo.ByID(ctx, req.UserID)
	if err != nil {
		return nil, NewBusinessError("USER_LOOKUP_FAILED", "Failed to lookup user", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if !utils.IsTrue(user.IsActive) {
		return nil, ErrAccountInactive
	}

	explicitCode := strings.TrimSpace(req.ShortURL)
	if explicitCode != "" {
		if !isValidShortCode(explicitCode) {
			return nil, ErrShortCodeInvalid
		}
		exists, existsErr := f.qrRepo.Exists(ctx, models.QRCodeFilter{ShortURL: &explicitCode})
		if existsErr != nil {
			return nil, NewBusinessError("SHORT_CODE_CHECK_FAILED", "Failed to check short code availability", existsErr)
		}
		if exists {
			return nil, ErrShortCodeTaken
		}
	}

	qr := &models.QRCode{
		ID:      uuid.New(),
		UserID:  user.ID,
		Content: content,
	}

	qr.ShortURL = explicitCode
	if qr.ShortURL == "" {
		qr.ShortURL = generateShortCode()
	}
	f.renderImage(qr)

	for attempt := 1; ; attempt++ {
		saveErr := f.qrRepo.Save(ctx, qr)
		if saveErr == nil {
			break
		}
		// The insert failed, so the rendered PNG has no record behind it
		f.removeImage(qr)
		if !repository.IsDuplicateKeyError(saveErr) {
			return nil, NewBusinessError("QR_CODE_CREATE_FAILED", "Failed to create QR code", saveErr)
		}
		if explicitCode != "" {
			// A concurrent create won the race for the requested code
			return nil, ErrShortCodeTaken
		}
		if attempt >= maxShortCodeAttempts {
			return nil, ErrShortCodeExhausted
		}
		// The rendered image encodes the short code, so a fresh code
		// needs a fresh image
		qr.ShortURL = generateShortCode()
		f.renderImage(qr)
	}

	result := ToQRCodeDTO(*qr)
	return &result, nil
}

func (f *QRCodeFlowImpl) ListQRCodes(ctx context.Context, userID uint) (*dto.ListQRCodesResponse, error) {
	rows, err := f.qrRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, NewBusinessError("QR_CODE_LIST_FAILED", "Failed to list QR codes", err)
	}

	qrcodes := make([]dto.QRCodeDTO, 0, len(rows))
	for _, row := range rows {
		qrcodes = append(qrcodes, ToQRCodeDTO(*row))
	}

	return &dto.ListQRCodesResponse{
		QRCodes: qrcodes,
		Total:   len(qrcodes),
	}, nil
}

func (f *QRCodeFlowImpl) GetQRCode(ctx context.Context, userID uint, shortURL string) (*dto.QRCodeDTO, error) {
	qr, err := f.ownedQRCode(ctx, userID, shortURL)
	if err != nil {
		return nil, err
	}
	result := ToQRCodeDTO(*qr)
	return &result, nil
}

// DeleteQRCode removes a record and, through the store's cascade, every
// scan event belonging to it. Only the owner may delete; a foreign code is
// indistinguishable from a missing one.
func (f *QRCodeFlowImpl) DeleteQRCode(ctx context.Context, userID uint, shortURL string) error {
	qr, err := f.ownedQRCode(ctx, userID, shortURL)
	if err != nil {
		return err
	}

	if err := f.qrRepo.Delete(ctx, qr.ID); err != nil {
		return NewBusinessError("QR_CODE_DELETE_FAILED", "Failed to delete QR code", err)
	}

	f.invalidateCache(ctx, qr.ShortURL)

	if imgErr := f.imageService.Remove(qr.ImagePath); imgErr != nil {
		log.Printf("Failed to remove QR image %s: %v", qr.ImagePath, imgErr)
	}

	return nil
}

func (f *QRCodeFlowImpl) removeImage(qr *models.QRCode) {
	if qr.ImagePath == "" {
		return
	}
	if err := f.imageService.Remove(qr.ImagePath); err != nil {
		log.Printf("Failed to remove stale QR image %s: %v", qr.ImagePath, err)
	}
	qr.ImagePath = ""
}

// renderImage is best-effort: a failed rendering never blocks creation
// because redirects do not depend on the image existing
func (f *QRCodeFlowImpl) renderImage(qr *models.QRCode) {
	if imagePath, err := f.imageService.Generate(qr); err != nil {
		log.Printf("QR image rendering failed for %s: %v", qr.ShortURL, err)
		qr.ImagePath = ""
	} else {
		qr.ImagePath = imagePath
	}
}

func (f *QRCodeFlowImpl) ownedQRCode(ctx context.Context, userID uint, shortURL string) (*models.QRCode, error) {
	qr, err := f.qrRepo.ByShortURL(ctx, shortURL)
	if err != nil {
		return nil, NewBusinessError("QR_CODE_LOOKUP_FAILED", "Failed to lookup QR code", err)
	}
	if qr == nil || qr.UserID != userID {
		return nil, ErrQRCodeNotFound
	}
	return qr, nil
}

func (f *QRCodeFlowImpl) invalidateCache(ctx context.Context, shortURL string) {
	if f.rc == nil || f.cacheConfig == nil || !f.cacheConfig.Enabled {
		return
	}
	if err := f.rc.Del(ctx, qrCacheKey(f.cacheConfig.Prefix, shortURL)).Err(); err != nil {
		log.Printf("Failed to invalidate cache for %s: %v", shortURL, err)
	}
}

// generateShortCode produces an 8-character URL-safe code from the hex form
// of a random UUID
func generateShortCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return raw[:utils.ShortURLLength]
}

// isValidShortCode reports whether an explicitly supplied code is 8
// characters of URL-safe alphabet
func isValidShortCode(code string) bool {
	if len(code) != utils.ShortURLLength {
		return false
	}
	for _, r := range code {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return true
}
