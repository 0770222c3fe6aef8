package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jonathan/outreach-agent/internal/embedding"
	_ "modernc.org/sqlite"
)

// sqliteFile is the database file created inside the persist directory
const sqliteFile = "portfolio.db"

const sqliteSchema = `CREATE TABLE IF NOT EXISTS documents (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	document   TEXT NOT NULL,
	metadata   TEXT NOT NULL,
	embedding  BLOB NOT NULL,
	created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	UNIQUE (collection, id)
)`

// SQLiteIndex is an embedded, on-disk index. Similarity is computed in
// process over the collection's rows, which suits portfolio-sized tables.
type SQLiteIndex struct {
	db         *sql.DB
	collection string
	embedder   embedding.Embedder
}

// OpenSQLite opens (or creates) the index under persistDir
func OpenSQLite(ctx context.Context, persistDir, collection string, embedder embedding.Embedder) (*SQLiteIndex, error) {
	if err := os.MkdirAll(persistDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create persist directory %s: %w", persistDir, err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", filepath.Join(persistDir, sqliteFile))
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite index: %w", err)
	}
	// sqlite wants a single writer
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping sqlite index: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	return &SQLiteIndex{db: db, collection: collection, embedder: embedder}, nil
}

// Count implements Index
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE collection = ?`, s.collection,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents in %s: %w", s.collection, err)
	}
	return n, nil
}

// Add implements Index. All documents are inserted in one transaction.
func (s *SQLiteIndex) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	vectors, err := s.embedder.Embed(ctx, documentTexts(docs))
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO documents (collection, id, document, metadata, embedding) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for i, doc := range docs {
		meta, err := json.Marshal(doc.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal metadata for %s: %w", doc.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, s.collection, doc.ID, doc.Text, string(meta), encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	return nil
}

// Query implements Index
func (s *SQLiteIndex) Query(ctx context.Context, texts []string, n int) ([][]Match, error) {
	if len(texts) == 0 {
		return [][]Match{}, nil
	}

	candidates, err := s.loadCandidates(ctx)
	if err != nil {
		return nil, err
	}

	queries, err := s.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed queries: %w", err)
	}

	results := make([][]Match, len(texts))
	for i, q := range queries {
		results[i] = topN(q, candidates, n)
	}
	return results, nil
}

func (s *SQLiteIndex) loadCandidates(ctx context.Context) ([]candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, document, metadata, embedding FROM documents WHERE collection = ? ORDER BY seq`,
		s.collection)
	if err != nil {
		return nil, fmt.Errorf("failed to load documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []candidate
	for rows.Next() {
		var (
			c    candidate
			meta string
			blob []byte
		)
		if err := rows.Scan(&c.id, &c.text, &meta, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		if err := json.Unmarshal([]byte(meta), &c.metadata); err != nil {
			return nil, fmt.Errorf("failed to decode metadata for %s: %w", c.id, err)
		}
		if c.vector, err = decodeVector(blob); err != nil {
			return nil, fmt.Errorf("document %s: %w", c.id, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate documents: %w", err)
	}
	return out, nil
}

// Close implements Index
func (s *SQLiteIndex) Close() error {
	return s.db.Close()
}

func documentTexts(docs []Document) []string {
	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
	}
	return texts
}
