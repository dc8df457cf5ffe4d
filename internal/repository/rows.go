package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"scribblescan/internal/models"
)

// timeLayout is a fixed-width UTC ISO-8601 instant. Fixed width keeps
// lexicographic order on the column equal to chronological order.
const timeLayout = "2006-01-02T15:04:05.000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// Row types are the wire shape of the tables. Conversion to models is
// strict and fail-closed: a row that does not validate is a loud error
// at the storage boundary, never a partially-filled record downstream.

type docRow struct {
	id        string
	name      string
	createdAt string
	updatedAt string
	pageCount int64
}

func (r docRow) toModel() (models.Doc, error) {
	id, err := uuid.Parse(r.id)
	if err != nil {
		return models.Doc{}, fmt.Errorf("malformed doc row: bad id %q: %w", r.id, err)
	}
	createdAt, err := time.Parse(timeLayout, r.createdAt)
	if err != nil {
		return models.Doc{}, fmt.Errorf("malformed doc row %s: bad created_at %q: %w", r.id, r.createdAt, err)
	}
	updatedAt, err := time.Parse(timeLayout, r.updatedAt)
	if err != nil {
		return models.Doc{}, fmt.Errorf("malformed doc row %s: bad updated_at %q: %w", r.id, r.updatedAt, err)
	}
	if r.pageCount < 0 {
		return models.Doc{}, fmt.Errorf("malformed doc row %s: negative page_count %d", r.id, r.pageCount)
	}

	return models.Doc{
		ID:        id,
		Name:      r.name,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		PageCount: int(r.pageCount),
	}, nil
}

type pageRow struct {
	id        string
	docID     string
	position  int64
	text      *string
	createdAt string
	updatedAt string
}

func (r pageRow) toModel() (models.Page, error) {
	id, err := uuid.Parse(r.id)
	if err != nil {
		return models.Page{}, fmt.Errorf("malformed page row: bad id %q: %w", r.id, err)
	}
	docID, err := uuid.Parse(r.docID)
	if err != nil {
		return models.Page{}, fmt.Errorf("malformed page row %s: bad doc_id %q: %w", r.id, r.docID, err)
	}
	if r.position < 0 {
		return models.Page{}, fmt.Errorf("malformed page row %s: negative position %d", r.id, r.position)
	}
	createdAt, err := time.Parse(timeLayout, r.createdAt)
	if err != nil {
		return models.Page{}, fmt.Errorf("malformed page row %s: bad created_at %q: %w", r.id, r.createdAt, err)
	}
	updatedAt, err := time.Parse(timeLayout, r.updatedAt)
	if err != nil {
		return models.Page{}, fmt.Errorf("malformed page row %s: bad updated_at %q: %w", r.id, r.updatedAt, err)
	}

	return models.Page{
		ID:        id,
		DocID:     docID,
		Position:  int(r.position),
		Text:      r.text,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}
