package services

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/contractoros/contractoros-backend/internal/apierr"
	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/types"
)

// IngestionService runs the document-to-knowledge pipeline:
// validate -> extract per page -> assemble full text -> chunk -> annotate ->
// embed+store -> summarize. Any stage failure aborts the upload; the
// temporary extraction artifact is removed on every exit path.
type IngestionService interface {
	Ingest(ctx context.Context, data []byte, filename string) (*types.IngestionSummary, error)
}

type ingestionService struct {
	log        *logger.Logger
	store      VectorStore
	embeddings *EmbedderProvider
	extractor  PageExtractor
	chunker    *Chunker
}

func NewIngestionService(log *logger.Logger, store VectorStore, embeddings *EmbedderProvider, extractor PageExtractor, chunker *Chunker) IngestionService {
	return &ingestionService{
		log:        log.With("service", "IngestionService"),
		store:      store,
		embeddings: embeddings,
		extractor:  extractor,
		chunker:    chunker,
	}
}

func (s *ingestionService) Ingest(ctx context.Context, data []byte, filename string) (*types.IngestionSummary, error) {
	filename = strings.TrimSpace(filename)
	if filename == "" {
		return nil, apierr.InvalidInput("filename is required")
	}
	if strings.ToLower(filepath.Ext(filename)) != ".pdf" {
		return nil, apierr.InvalidInput("only .pdf uploads are supported, got %q", filename)
	}
	if _, err := s.embeddings.Get(); err != nil {
		return nil, err
	}

	// Extraction needs an on-disk path; the temp file is private to this
	// request and cleaned up best-effort on all exits.
	tmp, err := os.CreateTemp("", "upload-*.pdf")
	if err != nil {
		return nil, apierr.ExtractionError("create temp file: %v", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if rmErr := os.Remove(tmpPath); rmErr != nil && !os.IsNotExist(rmErr) {
			s.log.Warn("Failed to remove temp upload file", "path", tmpPath, "error", rmErr)
		}
	}()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return nil, apierr.ExtractionError("write temp file: %v", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, apierr.ExtractionError("close temp file: %v", err)
	}

	pages, err := s.extractor.ExtractPages(tmpPath)
	if err != nil {
		return nil, apierr.ExtractionError("could not read PDF %q: %v", filename, err)
	}
	if len(pages) == 0 {
		return nil, apierr.ExtractionError("no pages extracted from %q", filename)
	}

	// The joined string is the document content everywhere downstream.
	fullText := strings.Join(pages, "\n\n")
	if strings.TrimSpace(fullText) == "" {
		return nil, apierr.ExtractionError("no content extracted from %q", filename)
	}

	chunks := s.chunker.SplitText(fullText)
	if len(chunks) == 0 {
		return nil, apierr.ExtractionError("document text from %q could not be split", filename)
	}

	uploadTimestamp := time.Now().UTC().Format(time.RFC3339)
	docs := make([]ChunkDocument, 0, len(chunks))
	for i, content := range chunks {
		docs = append(docs, ChunkDocument{
			Content: content,
			Metadata: types.ChunkMetadata{
				Filename:         filename,
				UploadTimestamp:  uploadTimestamp,
				FileSize:         int64(len(data)),
				PageCount:        len(pages),
				ChunkIndex:       i,
				TotalChunks:      len(chunks),
				FullDocumentText: fullText,
			},
		})
	}

	if err := s.store.Store(ctx, docs); err != nil {
		return nil, err
	}

	s.log.Info("Document ingested",
		"filename", filename,
		"chunk_count", len(chunks),
		"page_count", len(pages),
		"file_size", len(data),
	)

	return &types.IngestionSummary{
		Filename:        filename,
		ChunkCount:      len(chunks),
		PageCount:       len(pages),
		FileSize:        int64(len(data)),
		UploadTimestamp: uploadTimestamp,
	}, nil
}
