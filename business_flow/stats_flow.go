package businessflow

import (
	"context"
	"sort"
	"time"

	"github.com/qread/qread/app/dto"
	"github.com/qread/qread/app/services"
	"github.com/qread/qread/models"
	"github.com/qread/qread/repository"
	"github.com/qread/qread/utils"
)

// DailyCount is one day of the scan series, keyed by ISO date
type DailyCount struct {
	Date  string
	Count int
}

// DailySeries buckets scans into the trailing seven-day window ending at
// today, oldest day first. Every day appears, zero-filled when nothing was
// scanned. Scans outside the window are ignored.
func DailySeries(scans []*models.Scan, today time.Time) []DailyCount {
	end := utils.TruncateToDay(today)
	start := end.AddDate(0, 0, -(utils.StatsWindowDays - 1))

	counts := make(map[string]int, utils.StatsWindowDays)
	for _, scan := range scans {
		day := utils.TruncateToDay(scan.ScanTime)
		if day.Before(start) || day.After(end) {
			continue
		}
		counts[day.Format(time.DateOnly)]++
	}

	series := make([]DailyCount, 0, utils.StatsWindowDays)
	for i := 0; i < utils.StatsWindowDays; i++ {
		date := start.AddDate(0, 0, i).Format(time.DateOnly)
		series = append(series, DailyCount{Date: date, Count: counts[date]})
	}
	return series
}

// LocationHistogram aggregates scans by city and country, most scanned
// first. Ties keep first-seen order so repeated calls over the same data
// render identically.
func LocationHistogram(scans []*models.Scan) []dto.LocationCount {
	type locKey struct {
		city    string
		country string
	}

	index := make(map[locKey]int)
	locations := make([]dto.LocationCount, 0)
	for _, scan := range scans {
		key := locKey{city: scan.City, country: scan.Country}
		if pos, ok := index[key]; ok {
			locations[pos].Count++
			continue
		}
		index[key] = len(locations)
		locations = append(locations, dto.LocationCount{
			City:    scan.City,
			Country: scan.Country,
			Count:   1,
		})
	}

	sort.SliceStable(locations, func(i, j int) bool {
		return locations[i].Count > locations[j].Count
	})
	return locations
}

// StatsFlow aggregates scan events into dashboard analytics and exports
// raw scan history
type StatsFlow interface {
	GetScanStats(ctx context.Context, userID uint, shortURL *string) (*dto.ScanStatsResponse, error)
	ExportScans(ctx context.Context, userID uint, shortURL string) (string, []byte, error)
}

type StatsFlowImpl struct {
	qrRepo        repository.QRCodeRepository
	scanRepo      repository.ScanRepository
	reportService services.ScanReportService
}

func NewStatsFlow(
	qrRepo repository.QRCodeRepository,
	scanRepo repository.ScanRepository,
	reportService services.ScanReportService,
) StatsFlow {
	return &StatsFlowImpl{
		qrRepo:        qrRepo,
		scanRepo:      scanRepo,
		reportService: reportService,
	}
}

// GetScanStats returns the seven-day series and location histogram. With a
// shortURL it covers that code only, owner-scoped; without one it covers
// every code the caller owns.
func (f *StatsFlowImpl) GetScanStats(ctx context.Context, userID uint, shortURL *string) (*dto.ScanStatsResponse, error) {
	var scans []*models.Scan
	var err error

	if shortURL != nil {
		qr, lookupErr := f.ownedQRCode(ctx, userID, *shortURL)
		if lookupErr != nil {
			return nil, lookupErr
		}
		scans, err = f.scanRepo.ListByQRCode(ctx, qr.ID)
	} else {
		scans, err = f.scanRepo.ListByUser(ctx, userID)
	}
	if err != nil {
		return nil, NewBusinessError("SCAN_STATS_FAILED", "Failed to load scan history", err)
	}

	series := DailySeries(scans, utils.UTCNow())
	scanData := make(map[string]int, len(series))
	for _, day := range series {
		scanData[day.Date] = day.Count
	}

	return &dto.ScanStatsResponse{
		ScanData:  scanData,
		Locations: LocationHistogram(scans),
	}, nil
}

// ExportScans builds a spreadsheet of the full scan history for one
// owner-scoped code and returns its filename and contents.
func (f *StatsFlowImpl) ExportScans(ctx context.Context, userID uint, shortURL string) (string, []byte, error) {
	qr, err := f.ownedQRCode(ctx, userID, shortURL)
	if err != nil {
		return "", nil, err
	}

	scans, err := f.scanRepo.ListByQRCode(ctx, qr.ID)
	if err != nil {
		return "", nil, NewBusinessError("SCAN_EXPORT_FAILED", "Failed to load scan history", err)
	}

	filename, data, err := f.reportService.BuildWorkbook(qr, scans)
	if err != nil {
		return "", nil, NewBusinessError("SCAN_EXPORT_FAILED", "Failed to build scan report", err)
	}
	return filename, data, nil
}

func (f *StatsFlowImpl) ownedQRCode(ctx context.Context, userID uint, shortURL string) (*models.QRCode, error) {
	qr, err := f.qrRepo.ByShortURL(ctx, shortURL)
	if err != nil {
		return nil, NewBusinessError("QR_CODE_LOOKUP_FAILED", "Failed to lookup QR code", err)
	}
	if qr == nil || qr.UserID != userID {
		return nil, ErrQRCodeNotFound
	}
	return qr, nil
}
