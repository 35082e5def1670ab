package services

import (
	"context"
	"fmt"

	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/types"
)

func testLogger(t interface{ Fatalf(string, ...any) }) *logger.Logger {
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init test logger: %v", err)
	}
	return log
}

// fakeModelClient replays scripted assistant turns and records every call.
type fakeModelClient struct {
	turns     []*ModelMessage
	chatErr   error
	calls     [][]ModelMessage
	toolsSeen [][]ToolDef
}

func (f *fakeModelClient) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

func (f *fakeModelClient) Chat(_ context.Context, messages []ModelMessage, tools []ToolDef) (*ModelMessage, error) {
	f.calls = append(f.calls, messages)
	f.toolsSeen = append(f.toolsSeen, tools)
	if f.chatErr != nil {
		return nil, f.chatErr
	}
	if len(f.turns) == 0 {
		return nil, fmt.Errorf("fake model exhausted")
	}
	turn := f.turns[0]
	f.turns = f.turns[1:]
	return turn, nil
}

// fakeEmbedder is a deterministic embedding backend.
type fakeEmbedder struct {
	embedErr error
	batches  [][]string
}

func (f *fakeEmbedder) Embed(_ context.Context, inputs []string) ([][]float32, error) {
	f.batches = append(f.batches, inputs)
	if f.embedErr != nil {
		return nil, f.embedErr
	}
	out := make([][]float32, len(inputs))
	for i := range inputs {
		out[i] = []float32{1, 0, 0}
	}
	return out, nil
}

// fakeVectorStore satisfies VectorStore without a database.
type fakeVectorStore struct {
	searchResults []types.ChunkResult
	searchErr     error
	queries       []string

	stored   []ChunkDocument
	storeErr error
}

func (f *fakeVectorStore) Store(_ context.Context, docs []ChunkDocument) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.stored = append(f.stored, docs...)
	return nil
}

func (f *fakeVectorStore) Search(_ context.Context, query string, _ int) ([]types.ChunkResult, error) {
	f.queries = append(f.queries, query)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeVectorStore) DeleteByFilename(_ context.Context, _ string) (int64, error) {
	return 0, nil
}

func (f *fakeVectorStore) FullDocumentText(_ context.Context, _ string) (string, error) {
	return "", fmt.Errorf("not implemented")
}

func (f *fakeVectorStore) ListDocuments(_ context.Context) ([]types.DocumentGroup, error) {
	return nil, nil
}

// fakePageExtractor returns canned per-page text.
type fakePageExtractor struct {
	pages []string
	err   error
	paths []string
}

func (f *fakePageExtractor) ExtractPages(path string) ([]string, error) {
	f.paths = append(f.paths, path)
	if f.err != nil {
		return nil, f.err
	}
	return f.pages, nil
}
