package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/internal/types"
)

type VectorStoreConfig struct {
	ConnString string
	TableName  string
	VectorDim  int
}

// PGVectorStore keeps the index in Postgres and lets pgvector rank by
// cosine distance.
type PGVectorStore struct {
	config VectorStoreConfig
	pool   *pgxpool.Pool
}

var _ types.VectorStore = (*PGVectorStore)(nil)

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*PGVectorStore, error) {
	if config.TableName == "" {
		config.TableName = "chunks"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &PGVectorStore{
		config: config,
		pool:   pool,
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

func (vs *PGVectorStore) initialize(ctx context.Context) error {
	// Enable pgvector extension
	_, err := vs.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector")
	if err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding vector(%d)
		)`, vs.config.TableName, vs.config.VectorDim)

	_, err = vs.pool.Exec(ctx, createTable)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	createMeta := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createMeta)
	if err != nil {
		return fmt.Errorf("failed to create meta table: %w", err)
	}

	createIndex := fmt.Sprintf(`
		CREATE INDEX IF NOT EXISTS %s_embedding_idx
		ON %s
		USING hnsw (embedding vector_cosine_ops)`,
		vs.config.TableName, vs.config.TableName)

	_, err = vs.pool.Exec(ctx, createIndex)
	if err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}

	return nil
}

func (vs *PGVectorStore) Upsert(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	// Begin transaction
	tx, err := vs.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	stmt := fmt.Sprintf(`
		INSERT INTO %s (id, source, ordinal, content, embedding)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			ordinal = EXCLUDED.ordinal,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding`,
		vs.config.TableName)

	batch := &pgx.Batch{}
	for _, c := range chunks {
		batch.Queue(stmt, c.ID, c.SourceFile, c.Ordinal, sanitizeUTF8(c.Text), pgvector.NewVector(c.Embedding))
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert chunks: %w", err)
	}

	// Commit transaction
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (vs *PGVectorStore) Query(ctx context.Context, embedding []float32, k int) ([]models.Chunk, error) {
	if k <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, source, ordinal, content, embedding <=> $1 AS distance
		FROM %s
		ORDER BY distance, id
		LIMIT $2`,
		vs.config.TableName)

	rows, err := vs.pool.Query(ctx, query, pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.Chunk
	for rows.Next() {
		var c models.Chunk
		if err := rows.Scan(&c.ID, &c.SourceFile, &c.Ordinal, &c.Text, &c.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

func (vs *PGVectorStore) Prune(ctx context.Context, sourceFile string, keep int) error {
	stmt := fmt.Sprintf(`DELETE FROM %s WHERE source = $1 AND ordinal >= $2`, vs.config.TableName)
	if _, err := vs.pool.Exec(ctx, stmt, sourceFile, keep); err != nil {
		return fmt.Errorf("failed to prune %s: %w", sourceFile, err)
	}
	return nil
}

func (vs *PGVectorStore) DeleteSource(ctx context.Context, sourceFile string) error {
	return vs.Prune(ctx, sourceFile, 0)
}

func (vs *PGVectorStore) Count(ctx context.Context) (n int, err error) {
	err = vs.pool.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, vs.config.TableName)).Scan(&n)
	return n, err
}

func (vs *PGVectorStore) ModelTag(ctx context.Context) (tag string, err error) {
	stmt := fmt.Sprintf(`SELECT value FROM %s_meta WHERE key = 'embedding_model'`, vs.config.TableName)
	err = vs.pool.QueryRow(ctx, stmt).Scan(&tag)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return tag, err
}

func (vs *PGVectorStore) SetModelTag(ctx context.Context, tag string) error {
	stmt := fmt.Sprintf(`
		INSERT INTO %s_meta (key, value) VALUES ('embedding_model', $1)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		vs.config.TableName)
	_, err := vs.pool.Exec(ctx, stmt, tag)
	return err
}

func (vs *PGVectorStore) Close() error {
	if vs.pool != nil {
		vs.pool.Close()
	}
	return nil
}
