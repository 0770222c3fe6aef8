// Package vectorstore provides the nearest-neighbor index behind the portfolio.
// Documents are embedded on insert; queries embed the query texts and return
// the closest stored documents with their metadata.
package vectorstore

import (
	"context"
	"fmt"
	"sort"

	"github.com/jonathan/outreach-agent/internal/embedding"
)

// Document is a text stored with attached metadata
type Document struct {
	ID       string
	Text     string
	Metadata map[string]string
}

// Match is a stored document returned by a query, with its similarity score
type Match struct {
	ID       string
	Text     string
	Metadata map[string]string
	Score    float32
}

// Index is a persistent collection of embedded documents
type Index interface {
	// Count returns the number of documents in the collection
	Count(ctx context.Context) (int, error)
	// Add embeds and inserts documents
	Add(ctx context.Context, docs []Document) error
	// Query returns up to n nearest documents for each text, grouped per text in input order
	Query(ctx context.Context, texts []string, n int) ([][]Match, error)
	// Close releases the underlying connection
	Close() error
}

// Backend names
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendQdrant   = "qdrant"
)

// Options selects and configures a backend
type Options struct {
	Backend     string
	PersistDir  string // sqlite
	Collection  string
	DatabaseURL string // postgres
	QdrantAddr  string // qdrant gRPC address
}

// Open opens (or creates) the collection on the configured backend
func Open(ctx context.Context, opts Options, embedder embedding.Embedder) (Index, error) {
	switch opts.Backend {
	case BackendSQLite, "":
		return OpenSQLite(ctx, opts.PersistDir, opts.Collection, embedder)
	case BackendPostgres:
		return OpenPostgres(ctx, opts.DatabaseURL, opts.Collection, embedder)
	case BackendQdrant:
		return OpenQdrant(ctx, opts.QdrantAddr, opts.Collection, embedder)
	default:
		return nil, fmt.Errorf("unknown vector store backend %q", opts.Backend)
	}
}

// scored pairs a candidate with its insertion order for stable ranking
type scored struct {
	match Match
	seq   int
}

// topN ranks candidates against query by cosine similarity. Ties keep
// insertion order.
func topN(query []float32, candidates []candidate, n int) []Match {
	ranked := make([]scored, len(candidates))
	for i, c := range candidates {
		ranked[i] = scored{
			match: Match{
				ID:       c.id,
				Text:     c.text,
				Metadata: c.metadata,
				Score:    embedding.Cosine(query, c.vector),
			},
			seq: i,
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].match.Score > ranked[j].match.Score
	})

	n = min(n, len(ranked))
	out := make([]Match, n)
	for i := 0; i < n; i++ {
		out[i] = ranked[i].match
	}
	return out
}

// candidate is a stored row loaded for in-process ranking
type candidate struct {
	id       string
	text     string
	metadata map[string]string
	vector   []float32
}
