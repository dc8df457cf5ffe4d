package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"scribblescan/internal/api/handlers"
	"scribblescan/pkg/auth"
	"scribblescan/pkg/middleware"
)

func SetupRouter(
	docHandler *handlers.DocHandler,
	ocrHandler *handlers.OCRHandler,
	iapHandler *handlers.IAPHandler,
	sessionHandler *handlers.SessionHandler,
	jwtManager *auth.JWTManager,
	blobsRoot string,
	appLogger *zap.Logger,
) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))
	app.Use(logger.New())

	// Page images, addressed by the URLs the store derives.
	app.Static("/blobs/docs", blobsRoot)

	// Session issuing (public)
	app.Post("/session/device", sessionHandler.CreateDeviceSession)

	// Protected routes
	protected := app.Group("/api/v1", middleware.AuthMiddleware(jwtManager, appLogger))

	docs := protected.Group("/docs")
	docs.Get("", docHandler.ListDocs)
	docs.Post("", docHandler.CreateDoc)
	docs.Get("/:id", docHandler.GetDoc)
	docs.Patch("/:id", docHandler.RenameDoc)
	docs.Delete("/:id", docHandler.DeleteDoc)
	docs.Post("/:id/pages", docHandler.CapturePage)
	docs.Put("/:id/pages/:pageId/text", docHandler.AddPageText)
	docs.Delete("/:id/pages/:pageId", docHandler.DeletePage)
	docs.Get("/:id/export", docHandler.ExportTranscripts)

	protected.Get("/search", docHandler.Search)

	state := protected.Group("/state")
	state.Get("/open-doc", docHandler.GetOpenDoc)
	state.Put("/open-doc", docHandler.SetOpenDoc)
	state.Get("/search", docHandler.GetSearchState)
	state.Put("/search", docHandler.SetSearchState)

	protected.Post("/refresh", docHandler.Refresh)
	protected.Post("/ocr/warmup", ocrHandler.WarmUp)

	iap := protected.Group("/iap")
	iap.Get("/products/:productId", iapHandler.GetProductDetails)
	iap.Post("/purchase", iapHandler.LaunchPurchaseFlow)
	iap.Get("/purchases", iapHandler.QueryPurchases)
	iap.Post("/events", iapHandler.PublishEvent)
	iap.Get("/updates", iapHandler.AwaitUpdate)

	return app
}
