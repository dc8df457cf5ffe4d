package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"scribblescan/internal/service"
)

type OCRHandler struct {
	ocr    service.OCRClient
	logger *zap.Logger
}

func NewOCRHandler(ocr service.OCRClient, logger *zap.Logger) *OCRHandler {
	return &OCRHandler{
		ocr:    ocr,
		logger: logger,
	}
}

// WarmUp primes the remote model so the first real capture does not pay
// the cold-start cost.
func (h *OCRHandler) WarmUp(c *fiber.Ctx) error {
	if err := h.ocr.WarmUp(c.Context()); err != nil {
		h.logger.Error("OCR warm-up failed", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "OCR warm-up failed",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
