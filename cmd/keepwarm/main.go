package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"scribblescan/internal/service"
	"scribblescan/pkg/config"
	"scribblescan/pkg/logger"
)

const interval = 14 * time.Minute

// Pings the remote OCR model on an interval so its backing instance is
// never scaled to zero when a capture comes in.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ocr := service.NewOCRService(&cfg.OCR, appLogger)

	for {
		appLogger.Info("Pinging OCR model", zap.String("base_url", cfg.OCR.BaseURL))
		if err := ocr.WarmUp(context.Background()); err != nil {
			appLogger.Error("Ping failed", zap.Error(err))
		}
		appLogger.Info("Done, waiting", zap.Duration("interval", interval))
		time.Sleep(interval)
	}
}
