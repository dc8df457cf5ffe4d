package service

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"scribblescan/internal/dto"
	"scribblescan/internal/repository"
	"scribblescan/internal/search"
)

// Store is the in-memory source of truth for the three views the UI
// reads: the document list, the open document, and the current search
// results. Every mutation writes through the repository and then
// re-fetches the views it could have invalidated. Refreshes are
// dispatched without blocking the mutation's caller: the mutation
// returns once the write lands, the views catch up afterwards, and
// when refreshes overlap the last one to finish wins.
type Store struct {
	repo   *repository.DocRepository
	ocr    OCRClient
	logger *zap.Logger

	mu            sync.RWMutex
	docs          []dto.ListItem
	openDoc       *dto.Doc
	openDocID     *uuid.UUID
	searchQuery   string
	searchResults []dto.SearchResult

	subMu   sync.Mutex
	subs    map[int]func()
	nextSub int
}

func NewStore(ctx context.Context, repo *repository.DocRepository, ocr OCRClient, logger *zap.Logger) (*Store, error) {
	s := &Store{
		repo:          repo,
		ocr:           ocr,
		logger:        logger,
		docs:          []dto.ListItem{},
		searchResults: []dto.SearchResult{},
		subs:          make(map[int]func()),
	}
	if err := s.fetchDocs(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// Subscribe registers a callback invoked after any view changes. The
// returned function unsubscribes; the owner must call it on teardown.
func (s *Store) Subscribe(fn func()) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify() {
	s.subMu.Lock()
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// View snapshots. Views are replaced wholesale on refresh, never
// mutated in place, so the returned slices are safe to read.

func (s *Store) Docs() []dto.ListItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.docs
}

func (s *Store) OpenDoc() *dto.Doc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.openDoc
}

func (s *Store) SearchQuery() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchQuery
}

func (s *Store) SearchResults() []dto.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.searchResults
}

// Mutations.

func (s *Store) CreateDoc(ctx context.Context) (uuid.UUID, error) {
	id, err := s.repo.CreateDocument(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	s.refreshAfterMutation(id)
	return id, nil
}

func (s *Store) DeleteDoc(ctx context.Context, docID uuid.UUID) error {
	if err := s.repo.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	s.refreshAfterMutation(docID)
	return nil
}

func (s *Store) RenameDoc(ctx context.Context, docID uuid.UUID, name string) error {
	if err := s.repo.RenameDocument(ctx, docID, name); err != nil {
		return err
	}
	s.refreshAfterMutation(docID)
	return nil
}

func (s *Store) AddPage(ctx context.Context, docID uuid.UUID, image []byte) (uuid.UUID, error) {
	pageID, err := s.repo.AddPage(ctx, docID, image)
	if err != nil {
		return uuid.Nil, err
	}
	s.refreshAfterMutation(docID)
	return pageID, nil
}

func (s *Store) AddPageText(ctx context.Context, docID, pageID uuid.UUID, text string) error {
	if err := s.repo.AddPageText(ctx, docID, pageID, text); err != nil {
		return err
	}
	s.refreshAfterMutation(docID)
	return nil
}

func (s *Store) DeletePage(ctx context.Context, docID, pageID uuid.UUID) error {
	if err := s.repo.DeletePage(ctx, docID, pageID); err != nil {
		return err
	}
	s.refreshAfterMutation(docID)
	return nil
}

// CapturePage is the capture flow: the page is committed immediately so
// the UI can move on, and transcription runs in the background. If the
// page (or its document) is deleted before the transcript arrives, the
// late write is a logged no-op inside the repository.
func (s *Store) CapturePage(ctx context.Context, docID uuid.UUID, image []byte) (uuid.UUID, error) {
	pageID, err := s.AddPage(ctx, docID, image)
	if err != nil {
		return uuid.Nil, err
	}

	go func() {
		ctx := context.Background()
		text, err := s.ocr.PerformOCR(ctx, image)
		if err != nil {
			s.logger.Warn("OCR failed, page keeps its processing placeholder",
				zap.String("doc_id", docID.String()),
				zap.String("page_id", pageID.String()),
				zap.Error(err),
			)
			return
		}
		if err := s.AddPageText(ctx, docID, pageID, text); err != nil {
			s.logger.Warn("Failed to save transcript",
				zap.String("doc_id", docID.String()),
				zap.String("page_id", pageID.String()),
				zap.Error(err),
			)
		}
	}()

	return pageID, nil
}

// SetOpenDocID switches the open-document view. A new id triggers an
// immediate fetch; nil clears the view without one.
func (s *Store) SetOpenDocID(docID *uuid.UUID) {
	s.mu.Lock()
	s.openDocID = docID
	if docID == nil {
		s.openDoc = nil
	}
	s.mu.Unlock()

	if docID == nil {
		s.notify()
		return
	}
	go s.refreshOpenDoc()
}

// SetSearchQuery updates the active query. Queries shorter than two
// characters clear the results without querying.
func (s *Store) SetSearchQuery(query string) {
	s.mu.Lock()
	s.searchQuery = query
	s.mu.Unlock()
	go s.refreshSearchResults()
}

// Refresh re-fetches all three views concurrently. Used by the explicit
// pull-to-refresh path.
func (s *Store) Refresh(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.fetchDocs(ctx) })
	g.Go(func() error { return s.fetchOpenDoc(ctx) })
	g.Go(func() error { return s.fetchSearchResults(ctx) })
	return g.Wait()
}

// refreshAfterMutation re-fetches the document list always, the open
// document if the mutation targeted it, and the search results if a
// query is active (renames and new transcripts change match
// membership).
func (s *Store) refreshAfterMutation(docID uuid.UUID) {
	s.mu.RLock()
	openMatches := s.openDocID != nil && *s.openDocID == docID
	searchActive := utf8.RuneCountInString(s.searchQuery) >= search.MinQueryLength
	s.mu.RUnlock()

	go s.refreshDocs()
	if openMatches {
		go s.refreshOpenDoc()
	}
	if searchActive {
		go s.refreshSearchResults()
	}
}

func (s *Store) refreshDocs() {
	if err := s.fetchDocs(context.Background()); err != nil {
		s.logger.Warn("Failed to refresh document list", zap.Error(err))
	}
}

func (s *Store) refreshOpenDoc() {
	if err := s.fetchOpenDoc(context.Background()); err != nil {
		s.logger.Warn("Failed to refresh open document", zap.Error(err))
	}
}

func (s *Store) refreshSearchResults() {
	if err := s.fetchSearchResults(context.Background()); err != nil {
		s.logger.Warn("Failed to refresh search results", zap.Error(err))
	}
}

func (s *Store) fetchDocs(ctx context.Context) error {
	docs, err := s.repo.ListDocuments(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs = docs
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) fetchOpenDoc(ctx context.Context) error {
	s.mu.RLock()
	docID := s.openDocID
	s.mu.RUnlock()

	var doc *dto.Doc
	if docID != nil {
		var err error
		doc, err = s.repo.GetDocument(ctx, *docID)
		if errors.Is(err, repository.ErrNotFound) {
			// Deleted out from under the view; clear it.
			doc = nil
		} else if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.openDoc = doc
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *Store) fetchSearchResults(ctx context.Context) error {
	s.mu.RLock()
	query := s.searchQuery
	s.mu.RUnlock()

	results := []dto.SearchResult{}
	if utf8.RuneCountInString(query) >= search.MinQueryLength {
		var err error
		results, err = s.repo.Search(ctx, query)
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.searchResults = results
	s.mu.Unlock()
	s.notify()
	return nil
}
