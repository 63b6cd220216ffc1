package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/xhad/examaid/internal/models"
	"github.com/xhad/examaid/internal/types"
)

// SQLiteStore is the default on-disk vector index. Embeddings are stored as
// JSON arrays and ranked in process with exact cosine distance.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ types.VectorStore = (*SQLiteStore)(nil)

// NewSQLite opens (creating if needed) the index at path.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening index: %w", err)
	}

	s := &SQLiteStore{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

func (s *SQLiteStore) initialize() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			ordinal INTEGER NOT NULL,
			content TEXT NOT NULL,
			embedding TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS chunks_source_idx ON chunks (source, ordinal)`,
		`CREATE TABLE IF NOT EXISTS index_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("initializing index schema: %w", err)
		}
	}
	return nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Upsert(ctx context.Context, chunks []models.Chunk) (err error) {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunks (id, source, ordinal, content, embedding)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT (id) DO UPDATE SET
	source = excluded.source,
	ordinal = excluded.ordinal,
	content = excluded.content,
	embedding = excluded.embedding`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, c := range chunks {
		embeddingJSON, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		if _, err = stmt.ExecContext(ctx, c.ID, c.SourceFile, c.Ordinal, sanitizeUTF8(c.Text), string(embeddingJSON)); err != nil {
			return fmt.Errorf("failed to upsert chunk %s: %w", c.ID, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Query(ctx context.Context, embedding []float32, k int) ([]models.Chunk, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, source, ordinal, content, embedding FROM chunks ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	var candidates []models.Chunk
	for rows.Next() {
		var c models.Chunk
		var embeddingJSON string
		if err := rows.Scan(&c.ID, &c.SourceFile, &c.Ordinal, &c.Text, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(embeddingJSON), &c.Embedding); err != nil {
			return nil, fmt.Errorf("failed to unmarshal embedding of %s: %w", c.ID, err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read chunks: %w", err)
	}

	return nearest(candidates, embedding, k), nil
}

func (s *SQLiteStore) Prune(ctx context.Context, sourceFile string, keep int) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE source = ? AND ordinal >= ?`, sourceFile, keep); err != nil {
		return fmt.Errorf("failed to prune %s: %w", sourceFile, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteSource(ctx context.Context, sourceFile string) error {
	return s.Prune(ctx, sourceFile, 0)
}

func (s *SQLiteStore) Count(ctx context.Context) (n int, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM chunks`).Scan(&n)
	return n, err
}

func (s *SQLiteStore) ModelTag(ctx context.Context) (tag string, err error) {
	err = s.db.QueryRowContext(ctx, `SELECT value FROM index_meta WHERE key = 'embedding_model'`).Scan(&tag)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return tag, err
}

func (s *SQLiteStore) SetModelTag(ctx context.Context, tag string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO index_meta (key, value) VALUES ('embedding_model', ?)
ON CONFLICT (key) DO UPDATE SET value = excluded.value`, tag)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
