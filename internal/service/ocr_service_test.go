package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scribblescan/pkg/config"
)

func newOCRTestServer(t *testing.T, response string, got *generateRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/generate", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		json.NewEncoder(w).Encode(generateResponse{Response: response})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPerformOCR(t *testing.T) {
	var got generateRequest
	srv := newOCRTestServer(t, "transcribed text", &got)

	svc := NewOCRService(&config.OCRConfig{BaseURL: srv.URL, Model: "test-model"}, zap.NewNop())

	image := []byte{0xff, 0xd8, 0xff}
	text, err := svc.PerformOCR(context.Background(), image)
	require.NoError(t, err)
	assert.Equal(t, "transcribed text", text)

	assert.Equal(t, "test-model", got.Model)
	assert.Equal(t, "Transcribe this image.", got.Prompt)
	require.Len(t, got.Images, 1)
	assert.Equal(t, base64.StdEncoding.EncodeToString(image), got.Images[0])
	assert.Equal(t, 0.01, got.Options.Temperature)
	assert.Equal(t, 100, got.Options.TopK)
	assert.Equal(t, 0.8, got.Options.TopP)
	assert.False(t, got.Stream)
}

func TestWarmUpSendsNoImage(t *testing.T) {
	var got generateRequest
	srv := newOCRTestServer(t, "ready", &got)

	svc := NewOCRService(&config.OCRConfig{BaseURL: srv.URL, Model: "test-model"}, zap.NewNop())

	require.NoError(t, svc.WarmUp(context.Background()))
	assert.Equal(t, "Write one word.", got.Prompt)
	assert.Empty(t, got.Images)
}

func TestPerformOCRServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	t.Cleanup(srv.Close)

	svc := NewOCRService(&config.OCRConfig{BaseURL: srv.URL, Model: "test-model"}, zap.NewNop())

	_, err := svc.PerformOCR(context.Background(), []byte("img"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestMockOCRDeterministic(t *testing.T) {
	mock := NewMockOCR(zap.NewNop())
	mock.Delay = 0

	first, err := mock.PerformOCR(context.Background(), []byte("same image"))
	require.NoError(t, err)
	second, err := mock.PerformOCR(context.Background(), []byte("same image"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	other, err := mock.PerformOCR(context.Background(), []byte("different image"))
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestMockOCRHonorsContext(t *testing.T) {
	mock := NewMockOCR(zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := mock.PerformOCR(ctx, []byte("img"))
	assert.Error(t, err)
}
