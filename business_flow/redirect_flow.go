package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/qread/qread/app/services"
	"github.com/qread/qread/config"
	"github.com/qread/qread/models"
	"github.com/qread/qread/repository"
	"github.com/qread/qread/utils"
	"github.com/redis/go-redis/v9"
)

var scanRecordingFailures = promauto.NewCounter(prometheus.CounterOpts{
	Name: "scan_recording_failures_total",
	Help: "Total number of scan events that could not be persisted",
})

// ScanRecorder persists one scan event per resolved visit, with the
// client's location attached
type ScanRecorder interface {
	Record(ctx context.Context, qrCodeID uuid.UUID, metadata *ClientMetadata) error
}

type ScanRecorderImpl struct {
	scanRepo   repository.ScanRepository
	geoService services.GeoService
}

func NewScanRecorder(scanRepo repository.ScanRepository, geoService services.GeoService) ScanRecorder {
	return &ScanRecorderImpl{
		scanRepo:   scanRepo,
		geoService: geoService,
	}
}

func (r *ScanRecorderImpl) Record(ctx context.Context, qrCodeID uuid.UUID, metadata *ClientMetadata) error {
	ip := utils.FallbackIPAddress
	if metadata != nil && metadata.IPAddress != "" {
		ip = metadata.IPAddress
	}

	city, country := r.geoService.Lookup(ctx, ip)

	scan := &models.Scan{
		QRCodeID:  qrCodeID,
		ScanTime:  utils.UTCNow(),
		IPAddress: ip,
		City:      city,
		Country:   country,
	}

	return r.scanRepo.Save(ctx, scan)
}

// cachedTarget is the redis representation of a resolved short code
type cachedTarget struct {
	ID      uuid.UUID `json:"id"`
	UserID  uint      `json:"user_id"`
	Content string    `json:"content"`
}

func qrCacheKey(prefix, shortURL string) string {
	return fmt.Sprintf("%s:qrcode:%s", prefix, shortURL)
}

// RedirectFlow resolves a short code to its destination and records the
// scan event for the visit
type RedirectFlow interface {
	Visit(ctx context.Context, shortURL string, metadata *ClientMetadata) (string, error)
}

type RedirectFlowImpl struct {
	qrRepo      repository.QRCodeRepository
	recorder    ScanRecorder
	rc          *redis.Client
	cacheConfig *config.CacheConfig
}

func NewRedirectFlow(
	qrRepo repository.QRCodeRepository,
	recorder ScanRecorder,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) RedirectFlow {
	return &RedirectFlowImpl{
		qrRepo:      qrRepo,
		recorder:    recorder,
		rc:          rc,
		cacheConfig: cacheConfig,
	}
}

// Visit resolves shortURL and returns the destination to redirect to.
// Scan recording happens inside a catch-all boundary: a geo outage, a
// storage hiccup or a panic in the recorder must never break the redirect
// itself. Failures are logged and counted, and the visitor still lands on
// the destination.
func (f *RedirectFlowImpl) Visit(ctx context.Context, shortURL string, metadata *ClientMetadata) (string, error) {
	target, err := f.resolve(ctx, shortURL)
	if err != nil {
		return "", err
	}

	f.recordScan(ctx, target.ID, metadata)

	return target.Content, nil
}

func (f *RedirectFlowImpl) recordScan(ctx context.Context, qrCodeID uuid.UUID, metadata *ClientMetadata) {
	defer func() {
		if rec := recover(); rec != nil {
			scanRecordingFailures.Inc()
			log.Printf("Panic while recording scan for %s: %v", qrCodeID, rec)
		}
	}()

	if err := f.recorder.Record(ctx, qrCodeID, metadata); err != nil {
		scanRecordingFailures.Inc()
		log.Printf("Failed to record scan for %s: %v", qrCodeID, err)
	}
}

func (f *RedirectFlowImpl) resolve(ctx context.Context, shortURL string) (*cachedTarget, error) {
	if cached := f.cacheGet(ctx, shortURL); cached != nil {
		return cached, nil
	}

	qr, err := f.qrRepo.ByShortURL(ctx, shortURL)
	if err != nil {
		return nil, NewBusinessError("QR_CODE_LOOKUP_FAILED", "Failed to lookup QR code", err)
	}
	if qr == nil {
		return nil, ErrQRCodeNotFound
	}

	target := &cachedTarget{
		ID:      qr.ID,
		UserID:  qr.UserID,
		Content: qr.Content,
	}
	f.cacheSet(ctx, shortURL, target)

	return target, nil
}

func (f *RedirectFlowImpl) cacheEnabled() bool {
	return f.rc != nil && f.cacheConfig != nil && f.cacheConfig.Enabled
}

func (f *RedirectFlowImpl) cacheGet(ctx context.Context, shortURL string) *cachedTarget {
	if !f.cacheEnabled() {
		return nil
	}

	raw, err := f.rc.Get(ctx, qrCacheKey(f.cacheConfig.Prefix, shortURL)).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Printf("Cache read failed for %s: %v", shortURL, err)
		}
		return nil
	}

	var target cachedTarget
	if err := json.Unmarshal(raw, &target); err != nil {
		log.Printf("Cache entry for %s is corrupt: %v", shortURL, err)
		return nil
	}
	return &target
}

func (f *RedirectFlowImpl) cacheSet(ctx context.Context, shortURL string, target *cachedTarget) {
	if !f.cacheEnabled() {
		return
	}

	raw, err := json.Marshal(target)
	if err != nil {
		return
	}

	ttl := f.cacheConfig.TTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := f.rc.Set(ctx, qrCacheKey(f.cacheConfig.Prefix, shortURL), raw, ttl).Err(); err != nil {
		log.Printf("Cache write failed for %s: %v", shortURL, err)
	}
}
