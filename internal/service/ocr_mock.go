package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MockOCR is the development transcriber: deterministic output derived
// from the image bytes, with a delay that imitates the remote model.
type MockOCR struct {
	Delay  time.Duration
	logger *zap.Logger
}

func NewMockOCR(logger *zap.Logger) *MockOCR {
	return &MockOCR{
		Delay:  3 * time.Second,
		logger: logger,
	}
}

func (m *MockOCR) PerformOCR(ctx context.Context, image []byte) (string, error) {
	select {
	case <-time.After(m.Delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	sum := sha256.Sum256(image)
	return fmt.Sprintf("Transcribed text for image with SHA-256 %s", hex.EncodeToString(sum[:])), nil
}

func (m *MockOCR) WarmUp(ctx context.Context) error {
	m.logger.Info("Warming up mock OCR")
	return nil
}
