package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"scribblescan/internal/api"
	"scribblescan/internal/api/handlers"
	"scribblescan/internal/repository"
	"scribblescan/internal/service"
	"scribblescan/internal/storage"
	"scribblescan/pkg/auth"
	"scribblescan/pkg/config"
	"scribblescan/pkg/logger"
	"scribblescan/pkg/sqlite"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting ScribbleScan service")

	// Blob storage and database
	blobs, err := storage.NewBlobStore(cfg.Data.Dir, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize blob storage", zap.Error(err))
	}

	ctx := context.Background()
	db, err := sqlite.Open(ctx, &cfg.Database, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open database", zap.Error(err))
	}
	defer db.Close()

	// Repository and services
	docRepo := repository.NewDocRepository(db, blobs, appLogger)

	ocrClient := service.NewOCRClient(&cfg.OCR, appLogger)

	store, err := service.NewStore(ctx, docRepo, ocrClient, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize store", zap.Error(err))
	}

	iapService := service.NewIAPService(&cfg.IAP, appLogger)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration)

	// Handlers
	docHandler := handlers.NewDocHandler(store, docRepo, blobs, appLogger)
	ocrHandler := handlers.NewOCRHandler(ocrClient, appLogger)
	iapHandler := handlers.NewIAPHandler(iapService, appLogger)
	sessionHandler := handlers.NewSessionHandler(jwtManager, appLogger)

	// Setup router
	app := api.SetupRouter(docHandler, ocrHandler, iapHandler, sessionHandler, jwtManager, blobs.DocsRoot(), appLogger)

	// Warm up the OCR model in the background so the first capture is fast.
	go func() {
		if err := ocrClient.WarmUp(context.Background()); err != nil {
			appLogger.Warn("OCR warm-up failed", zap.Error(err))
		}
	}()

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
