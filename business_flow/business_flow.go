// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/qread/qread/app/dto"
	"github.com/qread/qread/models"
)

// ClientMetadata holds client-related information captured at the transport
// boundary and threaded through the flows
type ClientMetadata struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	RequestID string `json:"request_id,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToQRCodeDTO converts a QR code model to its API representation
func ToQRCodeDTO(qr models.QRCode) dto.QRCodeDTO {
	return dto.QRCodeDTO{
		ID:        qr.ID.String(),
		Content:   qr.Content,
		ShortURL:  qr.ShortURL,
		ImagePath: qr.ImagePath,
		CreatedAt: qr.CreatedAt.Format(time.RFC3339),
	}
}

// ToScanDTO converts a scan event to its API representation
func ToScanDTO(scan models.Scan) dto.ScanDTO {
	return dto.ScanDTO{
		QRCodeID:  scan.QRCodeID.String(),
		ScanTime:  scan.ScanTime.Format(time.RFC3339),
		IPAddress: scan.IPAddress,
		City:      scan.City,
		Country:   scan.Country,
	}
}
