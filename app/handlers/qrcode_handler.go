// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/qread/qread/app/dto"
	businessflow "github.com/qread/qread/business_flow"
	"github.com/qread/qread/utils"
)

// QRCodeHandlerInterface defines the contract for QR code handlers
type QRCodeHandlerInterface interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
}

// QRCodeHandler handles QR code management HTTP requests
type QRCodeHandler struct {
	flow      businessflow.QRCodeFlow
	validator *validator.Validate
}

// NewQRCodeHandler creates a new QR code handler
func NewQRCodeHandler(flow businessflow.QRCodeFlow) *QRCodeHandler {
	return &QRCodeHandler{
		flow:      flow,
		validator: newValidator(),
	}
}

func (h *QRCodeHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *QRCodeHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Create registers a new QR code for the authenticated user
func (h *QRCodeHandler) Create(c fiber.Ctx) error {
	var req dto.CreateQRCodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var details []string
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fieldErr := range validationErrors {
				details = append(details, getValidationErrorMessage(fieldErr))
			}
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", details)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}
	req.UserID = userID

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	result, err := h.flow.CreateQRCode(h.createRequestContext(c, "/api/v1/qrcodes"), &req, metadata)
	if err != nil {
		if businessflow.IsUserNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found", "USER_NOT_FOUND", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "User account is inactive", "ACCOUNT_INACTIVE", nil)
		}
		if businessflow.IsContentRequired(err) || businessflow.IsContentInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid content", "INVALID_CONTENT", err.Error())
		}
		if businessflow.IsShortCodeInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid short code", "INVALID_SHORT_CODE", err.Error())
		}
		if businessflow.IsShortCodeTaken(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Short code already in use", "SHORT_CODE_TAKEN", nil)
		}
		if businessflow.IsShortCodeExhausted(err) {
			return h.ErrorResponse(c, fiber.StatusInternalServerError, "Could not allocate a short code", "SHORT_CODE_EXHAUSTED", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create QR code", "QR_CODE_CREATE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "QR code created successfully", result)
}

// List returns every QR code owned by the authenticated user
func (h *QRCodeHandler) List(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.flow.ListQRCodes(h.createRequestContext(c, "/api/v1/qrcodes"), userID)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list QR codes", "QR_CODE_LIST_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR codes retrieved successfully", result)
}

// Get returns one owner-scoped QR code by its short code
func (h *QRCodeHandler) Get(c fiber.Ctx) error {
	shortURL := c.Params("shortURL")
	if shortURL == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Short code is required", "MISSING_SHORT_CODE", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	result, err := h.flow.GetQRCode(h.createRequestContext(c, "/api/v1/qrcodes/"+shortURL), userID, shortURL)
	if err != nil {
		if businessflow.IsQRCodeNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "QR code not found", "QR_CODE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to retrieve QR code", "QR_CODE_LOOKUP_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR code retrieved successfully", result)
}

// Delete removes an owner-scoped QR code together with its scan history
func (h *QRCodeHandler) Delete(c fiber.Ctx) error {
	shortURL := c.Params("shortURL")
	if shortURL == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Short code is required", "MISSING_SHORT_CODE", nil)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	err := h.flow.DeleteQRCode(h.createRequestContext(c, "/api/v1/qrcodes/"+shortURL), userID, shortURL)
	if err != nil {
		if businessflow.IsQRCodeNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "QR code not found", "QR_CODE_NOT_FOUND", nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete QR code", "QR_CODE_DELETE_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "QR code deleted successfully", nil)
}

func (h *QRCodeHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *QRCodeHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
