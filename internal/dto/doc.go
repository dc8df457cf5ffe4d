package dto

import (
	"time"

	"github.com/google/uuid"
)

// ListItem is a document as shown in the list view: its own fields plus
// the derived URL of its first page image, used as the thumbnail.
type ListItem struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	PageCount int       `json:"pageCount"`
	ImageURL  string    `json:"imageURL"`
}

type PageView struct {
	ID       uuid.UUID `json:"id"`
	ImageURL string    `json:"imageURL"`
	Text     *string   `json:"text"`
}

// Doc is the detail view of one document with its pages in position order.
type Doc struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	PageCount int        `json:"pageCount"`
	Pages     []PageView `json:"pages"`
}

// Fragment is a highlighted context window around a query match,
// tagged with the page it came from.
type Fragment struct {
	PageID uuid.UUID `json:"pageId"`
	Text   string    `json:"text"`
}

// SearchResult is a view computed at query time, never stored. An empty
// Fragments slice is valid: the document matched by name only.
type SearchResult struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	PageCount int        `json:"pageCount"`
	ImageURL  string     `json:"imageURL"`
	Fragments []Fragment `json:"fragments"`
}

type RenameDocRequest struct {
	Name string `json:"name"`
}

type AddPageTextRequest struct {
	Text string `json:"text"`
}

type CreateDocResponse struct {
	ID uuid.UUID `json:"id"`
}

type AddPageResponse struct {
	ID uuid.UUID `json:"id"`
}

// OpenDocRequest sets the open-document view; a null docId clears it.
type OpenDocRequest struct {
	DocID *uuid.UUID `json:"docId"`
}

type SearchStateRequest struct {
	Query string `json:"query"`
}

type SearchStateResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

type ExportResponse struct {
	Exported int `json:"exported"`
}

type DeviceSessionRequest struct {
	DeviceID string `json:"deviceId"`
}

type DeviceSessionResponse struct {
	Token string `json:"token"`
}
