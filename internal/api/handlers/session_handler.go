package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"scribblescan/internal/dto"
	"scribblescan/pkg/auth"
)

type SessionHandler struct {
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

func NewSessionHandler(jwtManager *auth.JWTManager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// CreateDeviceSession issues a session token for a device.
func (h *SessionHandler) CreateDeviceSession(c *fiber.Ctx) error {
	var req dto.DeviceSessionRequest
	if err := c.BodyParser(&req); err != nil || req.DeviceID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Device ID is required",
		})
	}

	token, err := h.jwtManager.GenerateToken(req.DeviceID)
	if err != nil {
		h.logger.Error("Failed to generate session token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create session",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.DeviceSessionResponse{Token: token})
}
