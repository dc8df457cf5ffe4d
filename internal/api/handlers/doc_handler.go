package handlers

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"scribblescan/internal/dto"
	"scribblescan/internal/repository"
	"scribblescan/internal/service"
	"scribblescan/internal/storage"
)

type DocHandler struct {
	store  *service.Store
	repo   *repository.DocRepository
	blobs  *storage.BlobStore
	logger *zap.Logger
}

func NewDocHandler(store *service.Store, repo *repository.DocRepository, blobs *storage.BlobStore, logger *zap.Logger) *DocHandler {
	return &DocHandler{
		store:  store,
		repo:   repo,
		blobs:  blobs,
		logger: logger,
	}
}

// ListDocs returns the cached document list view.
func (h *DocHandler) ListDocs(c *fiber.Ctx) error {
	return c.JSON(h.store.Docs())
}

// GetDoc fetches one document with its pages.
func (h *DocHandler) GetDoc(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, err := h.repo.GetDocument(c.Context(), docID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	if err != nil {
		h.logger.Error("Failed to load document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load document",
		})
	}

	return c.JSON(doc)
}

// CreateDoc creates an empty document and returns its id.
func (h *DocHandler) CreateDoc(c *fiber.Ctx) error {
	id, err := h.store.CreateDoc(c.Context())
	if err != nil {
		h.logger.Error("Failed to create document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create document",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateDocResponse{ID: id})
}

// RenameDoc updates the document name.
func (h *DocHandler) RenameDoc(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	var req dto.RenameDocRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Name is required",
		})
	}

	err = h.store.RenameDoc(c.Context(), docID, req.Name)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	if err != nil {
		h.logger.Error("Failed to rename document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to rename document",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DeleteDoc removes a document, its pages and its image directory.
func (h *DocHandler) DeleteDoc(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	if err := h.store.DeleteDoc(c.Context(), docID); err != nil {
		h.logger.Error("Failed to delete document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete document",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// CapturePage accepts a captured JPEG, commits the page immediately and
// starts transcription in the background.
func (h *DocHandler) CapturePage(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	src, err := file.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	image, err := io.ReadAll(src)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	pageID, err := h.store.CapturePage(c.Context(), docID, image)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	if err != nil {
		h.logger.Error("Failed to add page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to add page",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(dto.AddPageResponse{ID: pageID})
}

// AddPageText writes a transcript onto a page. A page that was deleted
// in the meantime makes this a no-op.
func (h *DocHandler) AddPageText(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}
	pageID, err := uuid.Parse(c.Params("pageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid page ID",
		})
	}

	var req dto.AddPageTextRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	if err := h.store.AddPageText(c.Context(), docID, pageID, req.Text); err != nil {
		h.logger.Error("Failed to save page text", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save page text",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// DeletePage removes one page.
func (h *DocHandler) DeletePage(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}
	pageID, err := uuid.Parse(c.Params("pageId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid page ID",
		})
	}

	if err := h.store.DeletePage(c.Context(), docID, pageID); err != nil {
		h.logger.Error("Failed to delete page", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete page",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// Search runs a stateless search. Queries shorter than two characters
// return an empty set.
func (h *DocHandler) Search(c *fiber.Ctx) error {
	results, err := h.repo.Search(c.Context(), c.Query("q"))
	if err != nil {
		h.logger.Error("Search failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Search failed",
		})
	}

	return c.JSON(results)
}

// ExportTranscripts writes every transcribed page of a document to a
// plain-text sidecar next to its image.
func (h *DocHandler) ExportTranscripts(c *fiber.Ctx) error {
	docID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid document ID",
		})
	}

	doc, err := h.repo.GetDocument(c.Context(), docID)
	if errors.Is(err, repository.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Document not found",
		})
	}
	if err != nil {
		h.logger.Error("Failed to load document", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load document",
		})
	}

	exported := 0
	for _, page := range doc.Pages {
		if page.Text == nil {
			continue
		}
		if err := h.blobs.WriteTranscript(docID, page.ID, *page.Text); err != nil {
			h.logger.Error("Failed to export transcript", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to export transcripts",
			})
		}
		exported++
	}

	return c.JSON(dto.ExportResponse{Exported: exported})
}

// GetOpenDoc returns the cached open-document view, which is null when
// nothing is open.
func (h *DocHandler) GetOpenDoc(c *fiber.Ctx) error {
	return c.JSON(h.store.OpenDoc())
}

// SetOpenDoc switches the open-document view.
func (h *DocHandler) SetOpenDoc(c *fiber.Ctx) error {
	var req dto.OpenDocRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid body",
		})
	}

	h.store.SetOpenDocID(req.DocID)
	return c.SendStatus(fiber.StatusNoContent)
}

// GetSearchState returns the active query and the cached results view.
func (h *DocHandler) GetSearchState(c *fiber.Ctx) error {
	return c.JSON(dto.SearchStateResponse{
		Query:   h.store.SearchQuery(),
		Results: h.store.SearchResults(),
	})
}

// SetSearchState updates the active query.
func (h *DocHandler) SetSearchState(c *fiber.Ctx) error {
	var req dto.SearchStateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid body",
		})
	}

	h.store.SetSearchQuery(req.Query)
	return c.SendStatus(fiber.StatusNoContent)
}

// Refresh re-fetches every cached view.
func (h *DocHandler) Refresh(c *fiber.Ctx) error {
	if err := h.store.Refresh(c.Context()); err != nil {
		h.logger.Error("Refresh failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Refresh failed",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
