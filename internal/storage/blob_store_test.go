package storage

import (
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *BlobStore {
	t.Helper()
	s, err := NewBlobStore(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return s
}

func TestImageRoundTrip(t *testing.T) {
	s := newTestStore(t)
	docID := uuid.New()
	pageID := uuid.New()

	require.NoError(t, s.CreateDocDir(docID))

	want := []byte{0xff, 0xd8, 0xff, 0xe0, 0x01, 0x02}
	require.NoError(t, s.WriteImage(docID, pageID, want))

	got, err := s.ReadImage(docID, pageID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestImageURL(t *testing.T) {
	s := newTestStore(t)
	docID := uuid.New()
	pageID := uuid.New()

	assert.Equal(t, "/blobs/docs/"+docID.String()+"/"+pageID.String()+".jpg", s.ImageURL(docID, pageID))
}

func TestRemoveDocDir(t *testing.T) {
	s := newTestStore(t)
	docID := uuid.New()
	pageID := uuid.New()

	require.NoError(t, s.CreateDocDir(docID))
	require.NoError(t, s.WriteImage(docID, pageID, []byte("img")))
	require.NoError(t, s.RemoveDocDir(docID))

	_, err := s.ReadImage(docID, pageID)
	assert.Error(t, err)
	_, err = os.Stat(s.docDir(docID))
	assert.True(t, os.IsNotExist(err))
}

func TestRemoveImageMissingIsQuiet(t *testing.T) {
	s := newTestStore(t)
	// Must not panic or log-fail on a blob that is already gone.
	s.RemoveImage(uuid.New(), uuid.New())
}

func TestTranscriptRoundTrip(t *testing.T) {
	s := newTestStore(t)
	docID := uuid.New()
	pageID := uuid.New()

	require.NoError(t, s.CreateDocDir(docID))
	require.NoError(t, s.WriteTranscript(docID, pageID, "hello world"))

	got, err := s.ReadTranscript(docID, pageID)
	require.NoError(t, err)
	assert.Equal(t, "hello world", got)
}
