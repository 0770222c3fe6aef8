package vectorstore

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonathan/outreach-agent/internal/embedding"
)

const postgresSchema = `CREATE TABLE IF NOT EXISTS vector_documents (
	seq        BIGSERIAL PRIMARY KEY,
	collection TEXT NOT NULL,
	id         TEXT NOT NULL,
	document   TEXT NOT NULL,
	metadata   JSONB NOT NULL DEFAULT '{}',
	embedding  vector(%d) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (collection, id)
)`

// PostgresIndex stores documents in PostgreSQL using the pgvector extension
type PostgresIndex struct {
	pool       *pgxpool.Pool
	collection string
	embedder   embedding.Embedder
}

// OpenPostgres connects to databaseURL and ensures the vector table exists
func OpenPostgres(ctx context.Context, databaseURL, collection string, embedder embedding.Embedder) (*PostgresIndex, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector`); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to enable pgvector: %w", err)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf(postgresSchema, embedder.Dimensions())); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create vector_documents table: %w", err)
	}

	return &PostgresIndex{pool: pool, collection: collection, embedder: embedder}, nil
}

// Count implements Index
func (p *PostgresIndex) Count(ctx context.Context) (int, error) {
	var n int
	err := p.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM vector_documents WHERE collection = $1`, p.collection,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents in %s: %w", p.collection, err)
	}
	return n, nil
}

// Add implements Index
func (p *PostgresIndex) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}

	vectors, err := p.embedder.Embed(ctx, documentTexts(docs))
	if err != nil {
		return fmt.Errorf("failed to embed documents: %w", err)
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	for i, doc := range docs {
		batch.Queue(
			`INSERT INTO vector_documents (collection, id, document, metadata, embedding)
			 VALUES ($1, $2, $3, $4, $5::vector)`,
			p.collection, doc.ID, doc.Text, doc.Metadata, vectorLiteral(vectors[i]),
		)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit documents: %w", err)
	}
	return nil
}

// Query implements Index. Results are ordered by cosine distance, ties by insertion order.
func (p *PostgresIndex) Query(ctx context.Context, texts []string, n int) ([][]Match, error) {
	if len(texts) == 0 {
		return [][]Match{}, nil
	}

	queries, err := p.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed queries: %w", err)
	}

	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(
			`SELECT id, document, metadata, 1 - (embedding <=> $2::vector) AS score
			 FROM vector_documents
			 WHERE collection = $1
			 ORDER BY embedding <=> $2::vector, seq
			 LIMIT $3`,
			p.collection, vectorLiteral(q), n,
		)
	}

	br := p.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	results := make([][]Match, len(queries))
	for i := range queries {
		rows, err := br.Query()
		if err != nil {
			return nil, fmt.Errorf("failed to query %q: %w", texts[i], err)
		}
		matches, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Match, error) {
			var (
				m     Match
				score float64
			)
			if err := row.Scan(&m.ID, &m.Text, &m.Metadata, &score); err != nil {
				return Match{}, err
			}
			m.Score = float32(score)
			return m, nil
		})
		if err != nil {
			return nil, fmt.Errorf("failed to read matches for %q: %w", texts[i], err)
		}
		results[i] = matches
	}
	return results, nil
}

// Close implements Index
func (p *PostgresIndex) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
