package services

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contractoros/contractoros-backend/internal/apierr"
)

// The temporary extraction file must be gone after the pipeline returns,
// whichever exit path was taken.
func assertTempFileRemoved(t *testing.T, extractor *fakePageExtractor) {
	t.Helper()
	require.Len(t, extractor.paths, 1)
	_, err := os.Stat(extractor.paths[0])
	assert.True(t, os.IsNotExist(err), "temp upload file %s still exists", extractor.paths[0])
}

func ingestionWith(t *testing.T, store VectorStore, extractor PageExtractor) IngestionService {
	log := testLogger(t)
	embeddings := NewEmbedderProviderWithFactory(log, func() (Embedder, error) {
		return &fakeEmbedder{}, nil
	})
	return NewIngestionService(log, store, embeddings, extractor, NewChunker())
}

func TestIngestSinglePage(t *testing.T) {
	store := &fakeVectorStore{}
	extractor := &fakePageExtractor{pages: []string{strings.Repeat("a", 1500)}}
	svc := ingestionWith(t, store, extractor)

	data := []byte("%PDF-1.4 fake bytes")
	summary, err := svc.Ingest(context.Background(), data, "plans.pdf")
	require.NoError(t, err)

	assert.Equal(t, "plans.pdf", summary.Filename)
	assert.Equal(t, 2, summary.ChunkCount)
	assert.Equal(t, 1, summary.PageCount)
	assert.Equal(t, int64(len(data)), summary.FileSize)
	assert.NotEmpty(t, summary.UploadTimestamp)

	require.Len(t, store.stored, 2)
	first := store.stored[0].Metadata
	second := store.stored[1].Metadata

	// Chunks of one upload share all metadata except their index.
	assert.Equal(t, 0, first.ChunkIndex)
	assert.Equal(t, 1, second.ChunkIndex)
	first.ChunkIndex = second.ChunkIndex
	assert.Equal(t, first, second)

	assert.Equal(t, "plans.pdf", first.Filename)
	assert.Equal(t, summary.UploadTimestamp, first.UploadTimestamp)
	assert.Equal(t, 2, first.TotalChunks)
	assert.Equal(t, strings.Repeat("a", 1500), first.FullDocumentText)

	assertTempFileRemoved(t, extractor)
}

func TestIngestJoinsPagesWithBlankLine(t *testing.T) {
	store := &fakeVectorStore{}
	extractor := &fakePageExtractor{pages: []string{"page one", "page two"}}
	svc := ingestionWith(t, store, extractor)

	_, err := svc.Ingest(context.Background(), []byte("x"), "doc.pdf")
	require.NoError(t, err)
	require.Len(t, store.stored, 1)
	assert.Equal(t, "page one\n\npage two", store.stored[0].Content)
}

func TestIngestValidation(t *testing.T) {
	svc := ingestionWith(t, &fakeVectorStore{}, &fakePageExtractor{})

	_, err := svc.Ingest(context.Background(), []byte("x"), "  ")
	require.Error(t, err)
	assert.True(t, apierr.IsCode(err, apierr.CodeInvalidInput))

	_, err = svc.Ingest(context.Background(), []byte("x"), "notes.txt")
	require.Error(t, err)
	assert.True(t, apierr.IsCode(err, apierr.CodeInvalidInput))
}

func TestIngestExtensionCaseInsensitive(t *testing.T) {
	store := &fakeVectorStore{}
	svc := ingestionWith(t, store, &fakePageExtractor{pages: []string{"content"}})

	_, err := svc.Ingest(context.Background(), []byte("x"), "PLANS.PDF")
	require.NoError(t, err)
}

func TestIngestEmbeddingBackendDown(t *testing.T) {
	log := testLogger(t)
	embeddings := NewEmbedderProviderWithFactory(log, func() (Embedder, error) {
		return nil, fmt.Errorf("no backend")
	})
	extractor := &fakePageExtractor{pages: []string{"content"}}
	svc := NewIngestionService(log, &fakeVectorStore{}, embeddings, extractor, NewChunker())

	_, err := svc.Ingest(context.Background(), []byte("x"), "doc.pdf")
	require.Error(t, err)
	assert.True(t, apierr.IsCode(err, apierr.CodeServiceUnavailable))

	// The gate runs before extraction.
	assert.Empty(t, extractor.paths)
}

func TestIngestUnreadablePDF(t *testing.T) {
	extractor := &fakePageExtractor{err: fmt.Errorf("bad xref table")}
	svc := ingestionWith(t, &fakeVectorStore{}, extractor)

	_, err := svc.Ingest(context.Background(), []byte("not a pdf"), "doc.pdf")
	require.Error(t, err)
	assert.True(t, apierr.IsCode(err, apierr.CodeExtractionError))
	assertTempFileRemoved(t, extractor)
}

func TestIngestNoTextContent(t *testing.T) {
	// Scanned pages extract as empty strings.
	extractor := &fakePageExtractor{pages: []string{"", "  ", ""}}
	svc := ingestionWith(t, &fakeVectorStore{}, extractor)

	_, err := svc.Ingest(context.Background(), []byte("x"), "scan.pdf")
	require.Error(t, err)
	assert.True(t, apierr.IsCode(err, apierr.CodeExtractionError))
}

func TestIngestStorageFailureSurfaces(t *testing.T) {
	store := &fakeVectorStore{storeErr: apierr.StorageError("insert failed")}
	extractor := &fakePageExtractor{pages: []string{"content"}}
	svc := ingestionWith(t, store, extractor)

	_, err := svc.Ingest(context.Background(), []byte("x"), "doc.pdf")
	require.Error(t, err)
	assert.True(t, apierr.IsCode(err, apierr.CodeStorageError))
	assertTempFileRemoved(t, extractor)
}
