package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"scribblescan/internal/dto"
	"scribblescan/internal/service"
)

type IAPHandler struct {
	iap    *service.IAPService
	logger *zap.Logger
}

func NewIAPHandler(iap *service.IAPService, logger *zap.Logger) *IAPHandler {
	return &IAPHandler{
		iap:    iap,
		logger: logger,
	}
}

func (h *IAPHandler) GetProductDetails(c *fiber.Ctx) error {
	productID := c.Params("productId")
	if productID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Product ID is required",
		})
	}

	details, err := h.iap.GetProductDetails(c.Context(), productID)
	if err != nil {
		h.logger.Error("Failed to get product details", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to get product details",
		})
	}

	return c.JSON(details)
}

func (h *IAPHandler) LaunchPurchaseFlow(c *fiber.Ctx) error {
	var req dto.LaunchPurchaseFlowRequest
	if err := c.BodyParser(&req); err != nil || req.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Product ID is required",
		})
	}

	resp, err := h.iap.LaunchPurchaseFlow(c.Context(), req.ProductID, req.OfferToken)
	if err != nil {
		h.logger.Error("Failed to launch purchase flow", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to launch purchase flow",
		})
	}

	return c.JSON(resp)
}

func (h *IAPHandler) QueryPurchases(c *fiber.Ctx) error {
	resp, err := h.iap.QueryPurchases(c.Context())
	if err != nil {
		h.logger.Error("Failed to query purchases", zap.Error(err))
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error": "Failed to query purchases",
		})
	}

	return c.JSON(resp)
}

// PublishEvent receives a purchase update pushed by the billing bridge
// and fans it out to subscribers.
func (h *IAPHandler) PublishEvent(c *fiber.Ctx) error {
	var event dto.PurchasesUpdatedEvent
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid event",
		})
	}

	h.iap.PublishPurchasesUpdated(event)
	return c.SendStatus(fiber.StatusNoContent)
}

// AwaitUpdate long-polls for the next purchase update, answering 204
// when none arrives before the timeout.
func (h *IAPHandler) AwaitUpdate(c *fiber.Ctx) error {
	timeout := time.Duration(c.QueryInt("timeout", 25)) * time.Second

	events, unsubscribe := h.iap.SubscribePurchases()
	defer unsubscribe()

	select {
	case event, ok := <-events:
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(event)
	case <-time.After(timeout):
		return c.SendStatus(fiber.StatusNoContent)
	}
}
