package service

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"scribblescan/internal/repository"
	"scribblescan/internal/storage"
	"scribblescan/pkg/config"
	"scribblescan/pkg/sqlite"
)

// fakeOCR returns a fixed transcript. When release is set, PerformOCR
// blocks until the channel is closed, which lets tests order the
// transcript's arrival against other mutations.
type fakeOCR struct {
	text    string
	release chan struct{}
}

func (f *fakeOCR) PerformOCR(ctx context.Context, image []byte) (string, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.text, nil
}

func (f *fakeOCR) WarmUp(ctx context.Context) error { return nil }

func newTestStore(t *testing.T, ocr OCRClient) *Store {
	t.Helper()

	dir := t.TempDir()
	db, err := sqlite.Open(context.Background(), &config.DatabaseConfig{
		Path: filepath.Join(dir, "test.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	blobs, err := storage.NewBlobStore(dir, zap.NewNop())
	require.NoError(t, err)

	repo := repository.NewDocRepository(db, blobs, zap.NewNop())
	store, err := NewStore(context.Background(), repo, ocr, zap.NewNop())
	require.NoError(t, err)
	return store
}

func TestCapturePipeline(t *testing.T) {
	store := newTestStore(t, &fakeOCR{text: "milk, eggs, bread"})
	ctx := context.Background()

	docID, err := store.CreateDoc(ctx)
	require.NoError(t, err)

	pageID, err := store.CapturePage(ctx, docID, []byte("jpeg bytes"))
	require.NoError(t, err)

	// The capture call returns before the transcript; text lands in
	// the background.
	require.Eventually(t, func() bool {
		doc, err := store.repo.GetDocument(ctx, docID)
		if err != nil || len(doc.Pages) != 1 {
			return false
		}
		return doc.Pages[0].Text != nil && *doc.Pages[0].Text == "milk, eggs, bread"
	}, 2*time.Second, 10*time.Millisecond)

	// The list view catches up too.
	require.Eventually(t, func() bool {
		docs := store.Docs()
		return len(docs) == 1 && docs[0].ID == docID && docs[0].PageCount == 1
	}, 2*time.Second, 10*time.Millisecond)

	doc, err := store.repo.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Equal(t, pageID, doc.Pages[0].ID)
}

func TestCaptureRacesPageDelete(t *testing.T) {
	ocr := &fakeOCR{text: "late transcript", release: make(chan struct{})}
	store := newTestStore(t, ocr)
	ctx := context.Background()

	docID, err := store.CreateDoc(ctx)
	require.NoError(t, err)

	pageID, err := store.CapturePage(ctx, docID, []byte("jpeg bytes"))
	require.NoError(t, err)

	// Delete the page while transcription is still in flight, then
	// let the transcript arrive.
	require.NoError(t, store.DeletePage(ctx, docID, pageID))
	close(ocr.release)

	// The late transcript is dropped; the page never reappears.
	time.Sleep(50 * time.Millisecond)
	doc, err := store.repo.GetDocument(ctx, docID)
	require.NoError(t, err)
	assert.Empty(t, doc.Pages)
	assert.Equal(t, 0, doc.PageCount)
}

func TestOpenDocView(t *testing.T) {
	store := newTestStore(t, &fakeOCR{text: "x"})
	ctx := context.Background()

	docID, err := store.CreateDoc(ctx)
	require.NoError(t, err)

	store.SetOpenDocID(&docID)
	require.Eventually(t, func() bool {
		doc := store.OpenDoc()
		return doc != nil && doc.ID == docID
	}, 2*time.Second, 10*time.Millisecond)

	// Mutating the open document refreshes its view.
	_, err = store.AddPage(ctx, docID, []byte("img"))
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		doc := store.OpenDoc()
		return doc != nil && len(doc.Pages) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// nil clears the view synchronously.
	store.SetOpenDocID(nil)
	assert.Nil(t, store.OpenDoc())
}

func TestOpenDocClearedWhenDeleted(t *testing.T) {
	store := newTestStore(t, &fakeOCR{text: "x"})
	ctx := context.Background()

	docID, err := store.CreateDoc(ctx)
	require.NoError(t, err)
	store.SetOpenDocID(&docID)
	require.Eventually(t, func() bool {
		return store.OpenDoc() != nil
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, store.DeleteDoc(ctx, docID))

	require.Eventually(t, func() bool {
		return store.OpenDoc() == nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSearchView(t *testing.T) {
	store := newTestStore(t, &fakeOCR{text: "x"})
	ctx := context.Background()

	docID, err := store.CreateDoc(ctx)
	require.NoError(t, err)
	pageID, err := store.AddPage(ctx, docID, []byte("img"))
	require.NoError(t, err)
	require.NoError(t, store.AddPageText(ctx, docID, pageID, "quarterly report"))

	store.SetSearchQuery("report")
	require.Eventually(t, func() bool {
		results := store.SearchResults()
		return len(results) == 1 && results[0].ID == docID
	}, 2*time.Second, 10*time.Millisecond)

	// Renaming while a query is active re-evaluates membership.
	require.NoError(t, store.RenameDoc(ctx, docID, "Renamed"))
	assert.Equal(t, "report", store.SearchQuery())

	// A single-keystroke query clears the results without querying.
	store.SetSearchQuery("r")
	require.Eventually(t, func() bool {
		return len(store.SearchResults()) == 0
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "r", store.SearchQuery())
}

func TestSearchQueryLengthCountsCharacters(t *testing.T) {
	store := newTestStore(t, &fakeOCR{text: "x"})
	ctx := context.Background()

	docID, err := store.CreateDoc(ctx)
	require.NoError(t, err)
	pageID, err := store.AddPage(ctx, docID, []byte("img"))
	require.NoError(t, err)
	require.NoError(t, store.AddPageText(ctx, docID, pageID, "日本語のテキスト"))

	store.SetSearchQuery("日本")
	require.Eventually(t, func() bool {
		return len(store.SearchResults()) == 1
	}, 2*time.Second, 10*time.Millisecond)

	// A single multibyte character is one keystroke; the results clear
	// just as they would for a one-letter ASCII query.
	store.SetSearchQuery("日")
	require.Eventually(t, func() bool {
		return len(store.SearchResults()) == 0
	}, 2*time.Second, 10*time.Millisecond)
}

func TestSubscribersNotified(t *testing.T) {
	store := newTestStore(t, &fakeOCR{text: "x"})
	ctx := context.Background()

	var calls atomic.Int64
	unsubscribe := store.Subscribe(func() { calls.Add(1) })

	docID, err := store.CreateDoc(ctx)
	require.NoError(t, err)
	_, err = store.AddPage(ctx, docID, []byte("img"))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return calls.Load() > 0
	}, 2*time.Second, 10*time.Millisecond)

	unsubscribe()
	// In-flight refreshes may still land; wait for them to drain.
	time.Sleep(50 * time.Millisecond)
	settled := calls.Load()

	_, err = store.CreateDoc(ctx)
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, calls.Load(), "no notifications after unsubscribe")
}

func TestRefreshFetchesAllViews(t *testing.T) {
	store := newTestStore(t, &fakeOCR{text: "x"})
	ctx := context.Background()

	docID, err := store.CreateDoc(ctx)
	require.NoError(t, err)

	// Write around the store so its cached views are stale.
	_, err = store.repo.AddPage(ctx, docID, []byte("img"))
	require.NoError(t, err)

	require.NoError(t, store.Refresh(ctx))
	docs := store.Docs()
	require.Len(t, docs, 1)
	assert.Equal(t, 1, docs[0].PageCount)
}
