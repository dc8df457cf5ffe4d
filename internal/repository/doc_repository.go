package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"scribblescan/internal/dto"
	"scribblescan/internal/search"
	"scribblescan/internal/storage"
)

// ErrNotFound is returned when a requested document does not exist.
var ErrNotFound = errors.New("document not found")

// DocRepository is the sole reader/writer of the doc and page tables
// and the sole owner of their on-disk blobs. Everything above it works
// with application-shaped records and derived image URLs.
type DocRepository struct {
	db     *sql.DB
	blobs  *storage.BlobStore
	logger *zap.Logger
}

func NewDocRepository(db *sql.DB, blobs *storage.BlobStore, logger *zap.Logger) *DocRepository {
	return &DocRepository{
		db:     db,
		blobs:  blobs,
		logger: logger,
	}
}

// ListDocuments returns every document that has at least one page, most
// recently updated first, with the first page as thumbnail. Documents
// with zero pages are a transient state of the capture flow and are not
// listed until their first page lands.
func (r *DocRepository) ListDocuments(ctx context.Context) ([]dto.ListItem, error) {
	query := squirrel.Select(
		"doc.id", "doc.name", "doc.created_at", "doc.updated_at", "doc.page_count",
		"first_page.id",
	).
		From("doc").
		Join("page first_page ON first_page.doc_id = doc.id AND first_page.position = 0").
		OrderBy("doc.updated_at DESC")

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]dto.ListItem, 0)
	for rows.Next() {
		var row docRow
		var firstPageID string
		if err := rows.Scan(&row.id, &row.name, &row.createdAt, &row.updatedAt, &row.pageCount, &firstPageID); err != nil {
			return nil, err
		}

		doc, err := row.toModel()
		if err != nil {
			return nil, err
		}
		pageID, err := uuid.Parse(firstPageID)
		if err != nil {
			return nil, fmt.Errorf("malformed page row: bad id %q: %w", firstPageID, err)
		}

		items = append(items, dto.ListItem{
			ID:        doc.ID,
			Name:      doc.Name,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
			PageCount: doc.PageCount,
			ImageURL:  r.blobs.ImageURL(doc.ID, pageID),
		})
	}

	return items, rows.Err()
}

// GetDocument returns one document with all its pages in position order.
func (r *DocRepository) GetDocument(ctx context.Context, docID uuid.UUID) (*dto.Doc, error) {
	query := squirrel.Select("id", "name", "created_at", "updated_at", "page_count").
		From("doc").
		Where(squirrel.Eq{"id": docID.String()})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return nil, err
	}

	var row docRow
	err = r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&row.id, &row.name, &row.createdAt, &row.updatedAt, &row.pageCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	doc, err := row.toModel()
	if err != nil {
		return nil, err
	}

	pagesQuery := squirrel.Select("id", "doc_id", "position", "text", "created_at", "updated_at").
		From("page").
		Where(squirrel.Eq{"doc_id": docID.String()}).
		OrderBy("position ASC")

	sqlStr, args, err = pagesQuery.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := make([]dto.PageView, 0, doc.PageCount)
	for rows.Next() {
		var pr pageRow
		if err := rows.Scan(&pr.id, &pr.docID, &pr.position, &pr.text, &pr.createdAt, &pr.updatedAt); err != nil {
			return nil, err
		}
		page, err := pr.toModel()
		if err != nil {
			return nil, err
		}
		pages = append(pages, dto.PageView{
			ID:       page.ID,
			ImageURL: r.blobs.ImageURL(docID, page.ID),
			Text:     page.Text,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return &dto.Doc{
		ID:        doc.ID,
		Name:      doc.Name,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
		PageCount: doc.PageCount,
		Pages:     pages,
	}, nil
}

// CreateDocument creates an empty document with a generated name. The
// backing directory is created before the row is inserted; if the
// directory cannot be created no row appears.
func (r *DocRepository) CreateDocument(ctx context.Context) (uuid.UUID, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate id: %w", err)
	}
	now := formatTime(time.Now())
	name := "Scribble " + now

	if err := r.blobs.CreateDocDir(id); err != nil {
		return uuid.Nil, err
	}

	query := squirrel.Insert("doc").
		Columns("id", "name", "created_at", "updated_at", "page_count").
		Values(id.String(), name, now, now, 0)

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return uuid.Nil, err
	}

	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if rmErr := r.blobs.RemoveDocDir(id); rmErr != nil {
			r.logger.Warn("Failed to clean up directory after insert failure", zap.Error(rmErr))
		}
		return uuid.Nil, fmt.Errorf("failed to insert document: %w", err)
	}

	return id, nil
}

// DeleteDocument removes the document, its pages and its directory.
// Rows go first: a crash between the two steps leaves an orphaned
// directory, never a live row pointing at missing files.
func (r *DocRepository) DeleteDocument(ctx context.Context, docID uuid.UUID) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	delPages := squirrel.Delete("page").Where(squirrel.Eq{"doc_id": docID.String()})
	sqlStr, args, err := delPages.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to delete pages: %w", err)
	}

	delDoc := squirrel.Delete("doc").Where(squirrel.Eq{"id": docID.String()})
	sqlStr, args, err = delDoc.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return r.blobs.RemoveDocDir(docID)
}

// RenameDocument updates the name and bumps the timeline.
func (r *DocRepository) RenameDocument(ctx context.Context, docID uuid.UUID, name string) error {
	query := squirrel.Update("doc").
		Set("name", name).
		Set("updated_at", formatTime(time.Now())).
		Where(squirrel.Eq{"id": docID.String()})

	sqlStr, args, err := query.ToSql()
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddPage stores the image blob, then commits the page row, increments
// the parent's page count and bumps its timeline, all in one
// transaction. The row insert is the commit signal that the blob
// exists, so the blob goes to disk first and is removed again if the
// transaction fails. Position is assigned inside the same transaction,
// so two racing adds can never share one. MAX(position)+1 rather than
// page_count: after a delete the count can collide with a surviving
// position.
func (r *DocRepository) AddPage(ctx context.Context, docID uuid.UUID, image []byte) (uuid.UUID, error) {
	pageID, err := uuid.NewV7()
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to generate id: %w", err)
	}
	now := formatTime(time.Now())

	if err := r.blobs.WriteImage(docID, pageID, image); err != nil {
		return uuid.Nil, err
	}

	err = func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		insert := squirrel.Insert("page").
			Columns("id", "doc_id", "position", "created_at", "updated_at").
			Values(
				pageID.String(),
				docID.String(),
				squirrel.Expr("(SELECT COALESCE(MAX(position) + 1, 0) FROM page WHERE doc_id = ?)", docID.String()),
				now,
				now,
			)
		sqlStr, args, err := insert.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("failed to insert page: %w", err)
		}

		update := squirrel.Update("doc").
			Set("page_count", squirrel.Expr("page_count + 1")).
			Set("updated_at", now).
			Where(squirrel.Eq{"id": docID.String()})
		sqlStr, args, err = update.ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}

		return tx.Commit()
	}()
	if err != nil {
		r.blobs.RemoveImage(docID, pageID)
		return uuid.Nil, err
	}

	return pageID, nil
}

// AddPageText writes the OCR transcript onto a page and bumps the
// parent's timeline. A page that no longer exists is not an error: the
// user deleted it (or its document) while OCR was still running, and
// the late transcript is dropped with a warning.
func (r *DocRepository) AddPageText(ctx context.Context, docID, pageID uuid.UUID, text string) error {
	now := formatTime(time.Now())

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	update := squirrel.Update("page").
		Set("text", text).
		Set("updated_at", now).
		Where(squirrel.Eq{"id": pageID.String(), "doc_id": docID.String()})
	sqlStr, args, err := update.ToSql()
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return fmt.Errorf("failed to update page text: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		r.logger.Warn("Page deleted before its transcript arrived, dropping text",
			zap.String("doc_id", docID.String()),
			zap.String("page_id", pageID.String()),
		)
		return nil
	}

	bump := squirrel.Update("doc").
		Set("updated_at", now).
		Where(squirrel.Eq{"id": docID.String()})
	sqlStr, args, err = bump.ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	return tx.Commit()
}

// DeletePage removes a page row, decrements the parent's page count and
// bumps its timeline. Deleting an already-deleted page is a no-op so
// the cached count never drifts.
func (r *DocRepository) DeletePage(ctx context.Context, docID, pageID uuid.UUID) error {
	now := formatTime(time.Now())

	err := func() error {
		tx, err := r.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		del := squirrel.Delete("page").
			Where(squirrel.Eq{"id": pageID.String(), "doc_id": docID.String()})
		sqlStr, args, err := del.ToSql()
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, sqlStr, args...)
		if err != nil {
			return fmt.Errorf("failed to delete page: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			r.logger.Warn("Page already gone, skipping delete",
				zap.String("doc_id", docID.String()),
				zap.String("page_id", pageID.String()),
			)
			return nil
		}

		update := squirrel.Update("doc").
			Set("page_count", squirrel.Expr("page_count - 1")).
			Set("updated_at", now).
			Where(squirrel.Eq{"id": docID.String()})
		sqlStr, args, err = update.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, sqlStr, args...); err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}

		return tx.Commit()
	}()
	if err != nil {
		return err
	}

	r.blobs.RemoveImage(docID, pageID)
	return nil
}

// Search finds documents whose name or page text contains the query,
// case-insensitively, most recently updated first. Each result carries
// highlighted context fragments for every matching page. Queries
// shorter than two characters return nothing without touching the
// database; length is counted in characters, not bytes.
func (r *DocRepository) Search(ctx context.Context, query string) ([]dto.SearchResult, error) {
	if utf8.RuneCountInString(query) < search.MinQueryLength {
		return []dto.SearchResult{}, nil
	}

	pattern := "%" + query + "%"
	sel := squirrel.Select(
		"doc.id", "doc.name", "doc.created_at", "doc.updated_at", "doc.page_count",
		"first_page.id", "page.id", "page.text",
	).
		From("doc").
		Join("page first_page ON first_page.doc_id = doc.id AND first_page.position = 0").
		LeftJoin("page ON page.doc_id = doc.id").
		Where(squirrel.Or{
			squirrel.Like{"doc.name": pattern},
			squirrel.Like{"page.text": pattern},
		}).
		OrderBy("doc.updated_at DESC", "page.position ASC")

	sqlStr, args, err := sel.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]dto.SearchResult, 0)
	byID := make(map[uuid.UUID]int)

	for rows.Next() {
		var row docRow
		var firstPageID, pageID string
		var text *string
		if err := rows.Scan(&row.id, &row.name, &row.createdAt, &row.updatedAt, &row.pageCount, &firstPageID, &pageID, &text); err != nil {
			return nil, err
		}

		doc, err := row.toModel()
		if err != nil {
			return nil, err
		}
		thumbID, err := uuid.Parse(firstPageID)
		if err != nil {
			return nil, fmt.Errorf("malformed page row: bad id %q: %w", firstPageID, err)
		}

		idx, ok := byID[doc.ID]
		if !ok {
			idx = len(results)
			byID[doc.ID] = idx
			results = append(results, dto.SearchResult{
				ID:        doc.ID,
				Name:      search.Highlight(query, doc.Name),
				CreatedAt: doc.CreatedAt,
				UpdatedAt: doc.UpdatedAt,
				PageCount: doc.PageCount,
				ImageURL:  r.blobs.ImageURL(doc.ID, thumbID),
				Fragments: []dto.Fragment{},
			})
		}

		if text == nil {
			continue
		}
		matchedPageID, err := uuid.Parse(pageID)
		if err != nil {
			return nil, fmt.Errorf("malformed page row: bad id %q: %w", pageID, err)
		}
		for _, fragment := range search.Fragments(query, *text) {
			results[idx].Fragments = append(results[idx].Fragments, dto.Fragment{
				PageID: matchedPageID,
				Text:   fragment,
			})
		}
	}

	return results, rows.Err()
}
