package dto

// CreateQRCodeRequest is the payload for creating a QR code. ShortURL is
// optional; when absent the registry generates one.
type CreateQRCodeRequest struct {
	Content  string `json:"content" validate:"required,url,max=500"`
	ShortURL string `json:"short_url,omitempty" validate:"omitempty,shortcode"`

	// UserID is set from the authenticated context, never from the body
	UserID uint `json:"-"`
}

// QRCodeDTO is the API representation of a QR code record
type QRCodeDTO struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	ShortURL  string `json:"short_url"`
	ImagePath string `json:"image_path,omitempty"`
	CreatedAt string `json:"created_at"`
}

// ListQRCodesResponse wraps the owner's QR codes
type ListQRCodesResponse struct {
	QRCodes []QRCodeDTO `json:"qrcodes"`
	Total   int         `json:"total"`
}
