package models

import (
	"time"

	"github.com/google/uuid"
)

// Doc is a scanned document. PageCount is a cached count maintained in
// lockstep with the page rows, never derived by query.
type Doc struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
	PageCount int       `db:"page_count"`
}

// Page is one captured image of a document. Text is nil until the OCR
// transcript lands; that is an expected transient state, not an error.
// Position is assigned append-only at creation time and never changes.
type Page struct {
	ID        uuid.UUID `db:"id"`
	DocID     uuid.UUID `db:"doc_id"`
	Position  int       `db:"position"`
	Text      *string   `db:"text"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
