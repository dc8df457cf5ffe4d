package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"scribblescan/pkg/config"
)

// OCRClient transcribes a captured JPEG. A hung remote call simply
// leaves the page's text null; there is no timeout in the core.
type OCRClient interface {
	PerformOCR(ctx context.Context, image []byte) (string, error)
	WarmUp(ctx context.Context) error
}

// NewOCRClient selects the configured provider. The mock provider is
// for development so captures do not hit the remote model.
func NewOCRClient(cfg *config.OCRConfig, logger *zap.Logger) OCRClient {
	if cfg.Provider == "mock" {
		return NewMockOCR(logger)
	}
	return NewOCRService(cfg, logger)
}

// OCRService calls a remote vision model over its generate endpoint:
// one POST with the base64-encoded JPEG in, plain transcript text out.
type OCRService struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewOCRService(cfg *config.OCRConfig, logger *zap.Logger) *OCRService {
	return &OCRService{
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopK        int     `json:"top_k"`
	TopP        float64 `json:"top_p"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Images  []string        `json:"images,omitempty"`
	Options generateOptions `json:"options"`
	Stream  bool            `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

func defaultOptions() generateOptions {
	return generateOptions{
		Temperature: 0.01,
		TopK:        100,
		TopP:        0.8,
	}
}

func (s *OCRService) PerformOCR(ctx context.Context, image []byte) (string, error) {
	req := generateRequest{
		Model:   s.model,
		Prompt:  "Transcribe this image.",
		Images:  []string{base64.StdEncoding.EncodeToString(image)},
		Options: defaultOptions(),
	}

	start := time.Now()
	resp, err := s.generate(ctx, req)
	if err != nil {
		return "", err
	}

	s.logger.Info("OCR transcription completed",
		zap.Int("image_bytes", len(image)),
		zap.Int("text_length", len(resp.Response)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return resp.Response, nil
}

// WarmUp primes the remote model with a trivial prompt and no image.
func (s *OCRService) WarmUp(ctx context.Context) error {
	req := generateRequest{
		Model:   s.model,
		Prompt:  "Write one word.",
		Options: defaultOptions(),
	}

	if _, err := s.generate(ctx, req); err != nil {
		return err
	}
	s.logger.Info("OCR model warmed up")
	return nil
}

func (s *OCRService) generate(ctx context.Context, req generateRequest) (*generateResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("ocr request failed: %w", err)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(httpResp.Body, 512))
		return nil, fmt.Errorf("ocr request failed with status %d: %s", httpResp.StatusCode, msg)
	}

	var resp generateResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("failed to decode ocr response: %w", err)
	}

	return &resp, nil
}
