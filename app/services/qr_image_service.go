package services

import (
	"fmt"
	"os"
	"path/filepath"

	qrcode "github.com/skip2/go-qrcode"
	"github.com/qread/qread/config"
	"github.com/qread/qread/models"
)

// QRImageService renders the scannable PNG for a QR code record. The image
// is a presentation artifact; redirects never depend on it existing.
type QRImageService interface {
	Generate(qr *models.QRCode) (string, error)
	Remove(imagePath string) error
}

type QRImageServiceImpl struct {
	siteURL  string
	mediaDir string
}

func NewQRImageService(cfg config.MediaConfig) QRImageService {
	return &QRImageServiceImpl{
		siteURL:  cfg.SiteURL,
		mediaDir: cfg.Dir,
	}
}

// Generate encodes the public redirect URL into a PNG under the media
// directory and returns the stored path relative to it.
func (s *QRImageServiceImpl) Generate(qr *models.QRCode) (string, error) {
	fullURL := fmt.Sprintf("%s/qr/%s", s.siteURL, qr.ShortURL)

	png, err := qrcode.Encode(fullURL, qrcode.Low, 256)
	if err != nil {
		return "", fmt.Errorf("failed to encode QR image: %w", err)
	}

	dir := filepath.Join(s.mediaDir, "qrcodes")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create media directory: %w", err)
	}

	filename := fmt.Sprintf("qrcode-%s.png", qr.ID)
	if err := os.WriteFile(filepath.Join(dir, filename), png, 0o644); err != nil {
		return "", fmt.Errorf("failed to write QR image: %w", err)
	}

	return filepath.Join("qrcodes", filename), nil
}

// Remove deletes a rendered image; a missing file is not an error
func (s *QRImageServiceImpl) Remove(imagePath string) error {
	if imagePath == "" {
		return nil
	}
	err := os.Remove(filepath.Join(s.mediaDir, imagePath))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove QR image: %w", err)
	}
	return nil
}

// MockQRImageService skips rendering for tests and records every
// generated and removed path
type MockQRImageService struct {
	Generated []string
	Removed   []string
}

func NewMockQRImageService() *MockQRImageService {
	return &MockQRImageService{}
}

func (s *MockQRImageService) Generate(qr *models.QRCode) (string, error) {
	path := fmt.Sprintf("qrcodes/qrcode-%s-%s.png", qr.ID, qr.ShortURL)
	s.Generated = append(s.Generated, path)
	return path, nil
}

func (s *MockQRImageService) Remove(path string) error {
	if path != "" {
		s.Removed = append(s.Removed, path)
	}
	return nil
}
