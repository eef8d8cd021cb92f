// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	businessflow "github.com/qread/qread/business_flow"
	"github.com/qread/qread/utils"
)

// RedirectHandlerInterface defines contract for public QR code visits
type RedirectHandlerInterface interface {
	Visit(c fiber.Ctx) error
}

type RedirectHandler struct {
	flow businessflow.RedirectFlow
}

func NewRedirectHandler(flow businessflow.RedirectFlow) RedirectHandlerInterface {
	return &RedirectHandler{flow: flow}
}

const notFoundPage = `<!DOCTYPE html>
<html>
<head><title>Not Found</title></head>
<body><h1>404</h1><p>This QR code does not exist.</p></body>
</html>`

// Visit resolves a short code, records the scan and redirects the visitor
// to the stored destination
func (h *RedirectHandler) Visit(c fiber.Ctx) error {
	shortURL := c.Params("shortURL")
	if shortURL == "" {
		return c.Status(fiber.StatusBadRequest).SendString("invalid QR code")
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))

	target, err := h.flow.Visit(h.createRequestContext(c, "/qr/"+shortURL), shortURL, metadata)
	if err != nil {
		if businessflow.IsQRCodeNotFound(err) {
			c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
			return c.Status(fiber.StatusNotFound).SendString(notFoundPage)
		}
		log.Println("Visit QR code failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString("internal error")
	}

	c.Redirect().Status(fiber.StatusFound).To(target)
	return nil
}

func (h *RedirectHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, 10*time.Second)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
