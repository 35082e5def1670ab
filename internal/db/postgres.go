package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/contractoros/contractoros-backend/internal/logger"
	"github.com/contractoros/contractoros-backend/internal/types"
	"github.com/contractoros/contractoros-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "contractoros", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable uuid-ossp extension: %w", err)
	}
	if err := gdb.Exec(`CREATE EXTENSION IF NOT EXISTS vector;`).Error; err != nil {
		return nil, fmt.Errorf("failed to enable pgvector extension: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.DocumentChunk{},
		&types.Conversation{},
		&types.ChatMessage{},
		&types.Project{},
		&types.Schedule{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}
	return s.ensureMatchFunction()
}

// ensureMatchFunction installs the server-side similarity function the vector
// store queries through. Cosine distance; higher similarity is better.
func (s *PostgresService) ensureMatchFunction() error {
	if err := s.db.Exec(`
		CREATE OR REPLACE FUNCTION match_documents(query_embedding vector(768), match_count int)
		RETURNS TABLE (id uuid, content text, metadata jsonb, similarity double precision)
		LANGUAGE sql STABLE AS $$
			SELECT document_chunks.id,
			       document_chunks.content,
			       document_chunks.metadata,
			       1 - (document_chunks.embedding <=> query_embedding) AS similarity
			FROM document_chunks
			ORDER BY document_chunks.embedding <=> query_embedding
			LIMIT match_count;
		$$;
	`).Error; err != nil {
		return fmt.Errorf("failed to create match_documents function: %w", err)
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
