package repos

import (
	"context"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/types"
)

// MatchRow is one similarity hit returned by the match_documents function.
type MatchRow struct {
	ID         uuid.UUID      `gorm:"column:id"`
	Content    string         `gorm:"column:content"`
	Metadata   datatypes.JSON `gorm:"column:metadata"`
	Similarity float64        `gorm:"column:similarity"`
}

type DocumentChunkRepo interface {
	Create(ctx context.Context, tx *gorm.DB, chunks []*types.DocumentChunk) ([]*types.DocumentChunk, error)
	Match(ctx context.Context, embedding pgvector.Vector, k int) ([]MatchRow, error)
	DeleteByFilename(ctx context.Context, filename string) (int64, error)
	LatestByFilename(ctx context.Context, filename string) (*types.DocumentChunk, error)
	ListGroups(ctx context.Context) ([]types.DocumentGroup, error)
}

type documentChunkRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDocumentChunkRepo(db *gorm.DB, baseLog *logger.Logger) DocumentChunkRepo {
	return &documentChunkRepo{db: db, log: baseLog.With("repo", "DocumentChunkRepo")}
}

func (r *documentChunkRepo) Create(ctx context.Context, tx *gorm.DB, chunks []*types.DocumentChunk) ([]*types.DocumentChunk, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(chunks) == 0 {
		return []*types.DocumentChunk{}, nil
	}

	// Keep batches small because content + full_document_text are large
	const batchSize = 100

	if err := transaction.WithContext(ctx).CreateInBatches(chunks, batchSize).Error; err != nil {
		return nil, err
	}
	return chunks, nil
}

func (r *documentChunkRepo) Match(ctx context.Context, embedding pgvector.Vector, k int) ([]MatchRow, error) {
	if k <= 0 {
		return []MatchRow{}, nil
	}
	var rows []MatchRow
	if err := r.db.WithContext(ctx).
		Raw(`SELECT id, content, metadata, similarity FROM match_documents(?, ?)`, embedding, k).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// DeleteByFilename removes every chunk whose metadata filename matches,
// across all upload timestamps.
func (r *documentChunkRepo) DeleteByFilename(ctx context.Context, filename string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("metadata->>'filename' = ?", filename).
		Delete(&types.DocumentChunk{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// LatestByFilename returns one chunk from the most recent ingestion group for
// the filename. Any chunk will do since full_document_text is duplicated
// into all of them.
func (r *documentChunkRepo) LatestByFilename(ctx context.Context, filename string) (*types.DocumentChunk, error) {
	var chunk types.DocumentChunk
	err := r.db.WithContext(ctx).
		Where("metadata->>'filename' = ?", filename).
		Order("metadata->>'upload_timestamp' DESC").
		First(&chunk).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &chunk, nil
}

func (r *documentChunkRepo) ListGroups(ctx context.Context) ([]types.DocumentGroup, error) {
	var groups []types.DocumentGroup
	if err := r.db.WithContext(ctx).
		Raw(`
			SELECT metadata->>'filename' AS filename,
			       metadata->>'upload_timestamp' AS upload_timestamp,
			       MAX(COALESCE((metadata->>'file_size')::bigint, 0)) AS file_size,
			       MAX(COALESCE((metadata->>'page_count')::int, 0)) AS page_count,
			       COUNT(*) AS chunk_count
			FROM document_chunks
			GROUP BY 1, 2
			ORDER BY 2 DESC
		`).Scan(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}
