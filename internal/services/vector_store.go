package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pgvector/pgvector-go"

	"github.com/contractoros/contractoros-backend/internal/apierr"
	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/repos"
	"github.com/contractoros/contractoros-backend/internal/types"
)

// ChunkDocument is an annotated chunk ready to be embedded and persisted.
type ChunkDocument struct {
	Content  string
	Metadata types.ChunkMetadata
}

// VectorStore persists chunk text + metadata + embedding and answers
// similarity searches by query text. Re-ingesting the same filename creates
// an additional chunk group; there is no uniqueness enforcement.
type VectorStore interface {
	Store(ctx context.Context, docs []ChunkDocument) error
	Search(ctx context.Context, query string, k int) ([]types.ChunkResult, error)
	DeleteByFilename(ctx context.Context, filename string) (int64, error)
	FullDocumentText(ctx context.Context, filename string) (string, error)
	ListDocuments(ctx context.Context) ([]types.DocumentGroup, error)
}

type pgVectorStore struct {
	log        *logger.Logger
	chunks     repos.DocumentChunkRepo
	embeddings *EmbedderProvider
}

func NewPGVectorStore(log *logger.Logger, chunkRepo repos.DocumentChunkRepo, embeddings *EmbedderProvider) VectorStore {
	return &pgVectorStore{
		log:        log.With("service", "PGVectorStore"),
		chunks:     chunkRepo,
		embeddings: embeddings,
	}
}

func (s *pgVectorStore) Store(ctx context.Context, docs []ChunkDocument) error {
	if len(docs) == 0 {
		return nil
	}
	embedder, err := s.embeddings.Get()
	if err != nil {
		return err
	}

	inputs := make([]string, len(docs))
	for i, d := range docs {
		inputs[i] = d.Content
	}
	vectors, err := embedder.Embed(ctx, inputs)
	if err != nil {
		return apierr.ServiceUnavailable("embedding failed: %v", err)
	}
	if len(vectors) != len(docs) {
		return apierr.StorageError("embedding count mismatch: got %d for %d chunks", len(vectors), len(docs))
	}

	rows := make([]*types.DocumentChunk, 0, len(docs))
	for i, d := range docs {
		meta, mErr := json.Marshal(d.Metadata)
		if mErr != nil {
			return apierr.StorageError("marshal chunk metadata: %v", mErr)
		}
		rows = append(rows, &types.DocumentChunk{
			Content:   d.Content,
			Embedding: pgvector.NewVector(vectors[i]),
			Metadata:  meta,
		})
	}
	if _, err := s.chunks.Create(ctx, nil, rows); err != nil {
		return apierr.StorageError("store chunks: %v", err)
	}
	return nil
}

func (s *pgVectorStore) Search(ctx context.Context, query string, k int) ([]types.ChunkResult, error) {
	if query == "" {
		return nil, apierr.InvalidInput("query is required")
	}
	if k <= 0 {
		k = 4
	}
	embedder, err := s.embeddings.Get()
	if err != nil {
		return nil, err
	}
	vectors, err := embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, apierr.ServiceUnavailable("embedding failed: %v", err)
	}
	if len(vectors) != 1 {
		return nil, apierr.ServiceUnavailable("embedding backend returned %d vectors for one query", len(vectors))
	}

	matches, err := s.chunks.Match(ctx, pgvector.NewVector(vectors[0]), k)
	if err != nil {
		return nil, apierr.StorageError("similarity search: %v", err)
	}

	results := make([]types.ChunkResult, 0, len(matches))
	for _, m := range matches {
		var meta types.ChunkMetadata
		if len(m.Metadata) > 0 {
			if uErr := json.Unmarshal(m.Metadata, &meta); uErr != nil {
				s.log.Warn("Skipping chunk with unreadable metadata", "chunk_id", m.ID, "error", uErr)
				continue
			}
		}
		results = append(results, types.ChunkResult{
			Content:    m.Content,
			Metadata:   meta,
			Similarity: m.Similarity,
		})
	}
	return results, nil
}

func (s *pgVectorStore) DeleteByFilename(ctx context.Context, filename string) (int64, error) {
	if filename == "" {
		return 0, apierr.InvalidInput("filename is required")
	}
	n, err := s.chunks.DeleteByFilename(ctx, filename)
	if err != nil {
		return 0, apierr.StorageError("delete chunks for %s: %v", filename, err)
	}
	return n, nil
}

// FullDocumentText returns the complete extracted text of the most recent
// ingestion of filename, read from the duplicated metadata field.
func (s *pgVectorStore) FullDocumentText(ctx context.Context, filename string) (string, error) {
	chunk, err := s.chunks.LatestByFilename(ctx, filename)
	if err != nil {
		return "", apierr.StorageError("lookup document %s: %v", filename, err)
	}
	if chunk == nil {
		return "", apierr.InvalidInput("no document found for filename %q", filename)
	}
	var meta types.ChunkMetadata
	if err := json.Unmarshal(chunk.Metadata, &meta); err != nil {
		return "", apierr.StorageError("unmarshal chunk metadata: %v", err)
	}
	if meta.FullDocumentText == "" {
		return "", fmt.Errorf("document %q has no stored full text", filename)
	}
	return meta.FullDocumentText, nil
}

func (s *pgVectorStore) ListDocuments(ctx context.Context) ([]types.DocumentGroup, error) {
	groups, err := s.chunks.ListGroups(ctx)
	if err != nil {
		return nil, apierr.StorageError("list documents: %v", err)
	}
	return groups, nil
}
