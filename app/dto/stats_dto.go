package dto

// LocationCount is one location histogram entry, ordered by count descending
type LocationCount struct {
	City    string `json:"city"`
	Country string `json:"country"`
	Count   int    `json:"count"`
}

// ScanStatsResponse carries the dashboard analytics for one QR code or for
// every code owned by the caller. ScanData always holds exactly seven
// entries, keyed by ISO date, zero-filled for days without scans.
type ScanStatsResponse struct {
	ScanData  map[string]int  `json:"scan_data"`
	Locations []LocationCount `json:"locations"`
}

// ScanDTO is the API representation of a single scan event
type ScanDTO struct {
	QRCodeID  string `json:"qr_code"`
	ScanTime  string `json:"scan_time"`
	IPAddress string `json:"ip_address"`
	City      string `json:"city"`
	Country   string `json:"country"`
}
