package types

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

// DocumentChunk is one embedded slice of an ingested document. Chunks are
// written in bulk by the ingestion pipeline and never mutated; a
// filename + upload_timestamp pair in the metadata identifies one ingestion
// group, with chunk_index contiguous inside the group.
type DocumentChunk struct {
	ID        uuid.UUID       `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Content   string          `gorm:"column:content;not null" json:"content"`
	Embedding pgvector.Vector `gorm:"type:vector(768)" json:"-"`
	Metadata  datatypes.JSON  `gorm:"type:jsonb;column:metadata" json:"metadata"`
	CreatedAt time.Time       `gorm:"not null;default:now()" json:"created_at"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}

// ChunkMetadata is the JSON payload stored in DocumentChunk.Metadata.
// full_document_text is duplicated into every chunk of an upload so whole
// document retrieval never needs a second table.
type ChunkMetadata struct {
	Filename         string `json:"filename"`
	UploadTimestamp  string `json:"upload_timestamp"`
	FileSize         int64  `json:"file_size"`
	PageCount        int    `json:"page_count"`
	ChunkIndex       int    `json:"chunk_index"`
	TotalChunks      int    `json:"total_chunks"`
	FullDocumentText string `json:"full_document_text"`
}
