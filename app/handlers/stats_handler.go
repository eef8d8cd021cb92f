// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/qread/qread/app/dto"
	businessflow "github.com/qread/qread/business_flow"
	"github.com/qread/qread/utils"
)

// StatsHandlerInterface defines the contract for scan analytics handlers
type StatsHandlerInterface interface {
	GetStats(c fiber.Ctx) error
	GetStatsForCode(c fiber.Ctx) error
	ExportScans(c fiber.Ctx) error
}

// StatsHandler handles scan analytics HTTP requests
type StatsHandler struct {
	flow businessflow.StatsFlow
}

// NewStatsHandler creates a new scan analytics handler
func NewStatsHandler(flow businessflow.StatsFlow) *StatsHandler {
	return &StatsHandler{flow: flow}
}

func (h *StatsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *StatsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// GetStats returns the seven-day series and location histogram across every
// QR code the authenticated user owns
func (h *StatsHandler) GetStats(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.flow.GetScanStats(h.createRequestContext(c, "/api/v1/scan-stats"), userID, nil)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load scan statistics", "SCAN_STATS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Scan statistics retrieved successfully", result)
}

// GetStatsForCode returns analytics for one owner-scoped QR code
func (h *StatsHandler) GetStatsForCode(c fiber.Ctx) error {
	shortURL := c.Params("shortURL")
	if shortURL == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Short code is required", "MISSING_SHORT_CODE", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.flow.GetScanStats(h.createRequestContext(c, "/api/v1/scan-stats/"+shortURL), userID, &shortURL)
	if err != nil {
		if businessflow.IsQRCodeNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "QR code not found", "QR_CODE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load scan statistics", "SCAN_STATS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Scan statistics retrieved successfully", result)
}

// ExportScans streams the full scan history of one owner-scoped QR code as
// a spreadsheet attachment
func (h *StatsHandler) ExportScans(c fiber.Ctx) error {
	shortURL := c.Params("shortURL")
	if shortURL == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Short code is required", "MISSING_SHORT_CODE", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	ctx := h.createRequestContextWithTimeout(c, "/api/v1/qrcodes/"+shortURL+"/scans/export", 30*time.Second)
	filename, data, err := h.flow.ExportScans(ctx, userID, shortURL)
	if err != nil {
		if businessflow.IsQRCodeNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "QR code not found", "QR_CODE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to export scans", "SCAN_EXPORT_FAILED", nil)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Status(fiber.StatusOK).Send(data)
}

func (h *StatsHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *StatsHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
