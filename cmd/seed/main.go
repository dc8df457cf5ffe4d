package main

import (
	"context"
	"fmt"
	"log"

	"go.uber.org/zap"

	"scribblescan/internal/repository"
	"scribblescan/internal/storage"
	"scribblescan/pkg/config"
	"scribblescan/pkg/logger"
	"scribblescan/pkg/sqlite"
)

// Seeds a handful of demo documents through the real repository so the
// list, detail and search views have something to show during
// development.
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

	repo := repository.NewDocRepository(db, blobs, appLogger)

	appLogger.Info("Seeding demo documents")

	docs := []struct {
		name  string
		pages []string
	}{
		{
			name: "Grocery list",
			pages: []string{
				"Milk, eggs, flour, butter and a bag of apples.",
				"Don't forget the coffee beans.",
			},
		},
		{
			name: "Meeting notes",
			pages: []string{
				"Action items: ship the release notes, schedule the retro.",
			},
		},
		{
			name:  "Receipt",
			pages: []string{""},
		},
	}

	for i, d := range docs {
		docID, err := repo.CreateDocument(ctx)
		if err != nil {
			appLogger.Fatal("Failed to create document", zap.Error(err))
		}
		if err := repo.RenameDocument(ctx, docID, d.name); err != nil {
			appLogger.Fatal("Failed to rename document", zap.Error(err))
		}

		for j, text := range d.pages {
			// A tiny placeholder image stands in for a real capture.
			image := []byte(fmt.Sprintf("demo image %d-%d", i, j))
			pageID, err := repo.AddPage(ctx, docID, image)
			if err != nil {
				appLogger.Fatal("Failed to add page", zap.Error(err))
			}
			if text == "" {
				continue
			}
			if err := repo.AddPageText(ctx, docID, pageID, text); err != nil {
				appLogger.Fatal("Failed to add page text", zap.Error(err))
			}
		}

		appLogger.Info("Seeded document", zap.String("id", docID.String()), zap.String("name", d.name))
	}

	appLogger.Info("Seeding complete")
}
