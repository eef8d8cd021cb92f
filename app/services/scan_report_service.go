package services

import (
	"fmt"
	"time"

	"github.com/qread/qread/models"
	"github.com/xuri/excelize/v2"
)

// ScanReportService builds downloadable workbooks from scan events
type ScanReportService interface {
	BuildWorkbook(qr *models.QRCode, scans []*models.Scan) (string, []byte, error)
}

type ScanReportServiceImpl struct{}

func NewScanReportService() ScanReportService {
	return &ScanReportServiceImpl{}
}

// BuildWorkbook produces an xlsx with one row per scan event and returns
// the suggested filename alongside the file bytes.
func (s *ScanReportServiceImpl) BuildWorkbook(qr *models.QRCode, scans []*models.Scan) (string, []byte, error) {
	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "scans"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"scan_time", "ip_address", "city", "country"}
	if err := xl.SetSheetRow(sheet, "A1", &header); err != nil {
		return "", nil, fmt.Errorf("failed to write header row: %w", err)
	}

	for i, scan := range scans {
		row := []string{
			scan.ScanTime.UTC().Format(time.RFC3339),
			scan.IPAddress,
			scan.City,
			scan.Country,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := xl.SetSheetRow(sheet, cell, &row); err != nil {
			return "", nil, fmt.Errorf("failed to write scan row: %w", err)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}

	filename := fmt.Sprintf("scans_%s.xlsx", qr.ShortURL)
	return filename, buf.Bytes(), nil
}
