package storage

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"
)

const namespace = "scribbleScan"

// BlobStore keeps page images (and transcript sidecars) on disk under a
// per-document directory: <root>/scribbleScan/docs/<docId>/<pageId>.jpg.
// Image writes are atomic so a page row is never committed against a
// half-written blob.
type BlobStore struct {
	root   string
	logger *zap.Logger
}

func NewBlobStore(root string, logger *zap.Logger) (*BlobStore, error) {
	s := &BlobStore{
		root:   root,
		logger: logger,
	}
	if err := os.MkdirAll(s.DocsRoot(), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return s, nil
}

// DocsRoot is the directory served statically under /blobs/docs.
func (s *BlobStore) DocsRoot() string {
	return filepath.Join(s.root, namespace, "docs")
}

func (s *BlobStore) docDir(docID uuid.UUID) string {
	return filepath.Join(s.DocsRoot(), docID.String())
}

func (s *BlobStore) imagePath(docID, pageID uuid.UUID) string {
	return filepath.Join(s.docDir(docID), pageID.String()+".jpg")
}

func (s *BlobStore) transcriptPath(docID, pageID uuid.UUID) string {
	return filepath.Join(s.docDir(docID), pageID.String()+".txt")
}

// ImageURL derives the URL a client uses to fetch a page image. The URL
// is computed, never stored.
func (s *BlobStore) ImageURL(docID, pageID uuid.UUID) string {
	return "/blobs/docs/" + docID.String() + "/" + pageID.String() + ".jpg"
}

func (s *BlobStore) CreateDocDir(docID uuid.UUID) error {
	if err := os.MkdirAll(s.docDir(docID), 0755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}
	return nil
}

func (s *BlobStore) RemoveDocDir(docID uuid.UUID) error {
	if err := os.RemoveAll(s.docDir(docID)); err != nil {
		return fmt.Errorf("failed to remove document directory: %w", err)
	}
	return nil
}

func (s *BlobStore) WriteImage(docID, pageID uuid.UUID, data []byte) error {
	if err := atomic.WriteFile(s.imagePath(docID, pageID), bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

func (s *BlobStore) ReadImage(docID, pageID uuid.UUID) ([]byte, error) {
	data, err := os.ReadFile(s.imagePath(docID, pageID))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return data, nil
}

// RemoveImage is best-effort: the page row is already gone and an
// orphaned blob under a live directory is harmless.
func (s *BlobStore) RemoveImage(docID, pageID uuid.UUID) {
	if err := os.Remove(s.imagePath(docID, pageID)); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("Failed to remove image blob",
			zap.String("doc_id", docID.String()),
			zap.String("page_id", pageID.String()),
			zap.Error(err),
		)
	}
}

// WriteTranscript writes a plain-text sidecar next to the page image,
// used by the export path.
func (s *BlobStore) WriteTranscript(docID, pageID uuid.UUID, text string) error {
	if err := atomic.WriteFile(s.transcriptPath(docID, pageID), bytes.NewReader([]byte(text))); err != nil {
		return fmt.Errorf("failed to write transcript: %w", err)
	}
	return nil
}

func (s *BlobStore) ReadTranscript(docID, pageID uuid.UUID) (string, error) {
	data, err := os.ReadFile(s.transcriptPath(docID, pageID))
	if err != nil {
		return "", fmt.Errorf("failed to read transcript: %w", err)
	}
	return string(data), nil
}
