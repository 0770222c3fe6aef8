// Package portfolio keeps the company's portfolio in a vector index and
// answers "which projects match these skills" queries.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/jonathan/outreach-agent/internal/types"
	"github.com/jonathan/outreach-agent/internal/vectorstore"
)

// DefaultResultsPerSkill is the number of entries returned per queried skill
const DefaultResultsPerSkill = 2

// lockFile is created in the persist directory to serialize loads
const lockFile = "portfolio.lock"

const lockRetryDelay = 100 * time.Millisecond

// Options configures a Store
type Options struct {
	SourcePath      string
	PersistDir      string
	ResultsPerSkill int
	Logger          *slog.Logger
}

// Store is the portfolio backed by a vector index
type Store struct {
	index   vectorstore.Index
	entries []types.PortfolioEntry
	n       int
	lock    *flock.Flock
	log     *slog.Logger
	source  string
}

// Open reads the source table and binds it to index. A missing source file
// yields a *StoreError wrapping os.ErrNotExist.
func Open(_ context.Context, opts Options, index vectorstore.Index) (*Store, error) {
	if _, err := os.Stat(opts.SourcePath); err != nil {
		return nil, &StoreError{Op: "open", Path: opts.SourcePath, Cause: err}
	}

	entries, err := ReadTable(opts.SourcePath)
	if err != nil {
		return nil, err
	}

	if opts.PersistDir != "" {
		if err := os.MkdirAll(opts.PersistDir, 0755); err != nil {
			return nil, &StoreError{Op: "open", Path: opts.PersistDir, Cause: err}
		}
	}

	n := opts.ResultsPerSkill
	if n <= 0 {
		n = DefaultResultsPerSkill
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	logger.Debug("portfolio source read", "path", opts.SourcePath, "rows", len(entries))

	return &Store{
		index:   index,
		entries: entries,
		n:       n,
		lock:    flock.New(filepath.Join(opts.PersistDir, lockFile)),
		log:     logger,
		source:  opts.SourcePath,
	}, nil
}

// Entries returns the rows read from the source table
func (s *Store) Entries() []types.PortfolioEntry {
	return s.entries
}

// LoadIfEmpty inserts every table row into the index when the collection is
// empty and returns the number inserted. The check and the insert run under
// an exclusive file lock so concurrent processes load at most once.
func (s *Store) LoadIfEmpty(ctx context.Context) (int, error) {
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return 0, &StoreError{Op: "lock", Path: s.lock.Path(), Cause: err}
	}
	if !locked {
		return 0, &StoreError{Op: "lock", Path: s.lock.Path(), Cause: errors.New("lock not acquired")}
	}
	defer func() { _ = s.lock.Unlock() }()

	count, err := s.index.Count(ctx)
	if err != nil {
		return 0, &StoreError{Op: "count", Cause: err}
	}
	if count > 0 {
		s.log.Debug("portfolio already loaded", "documents", count)
		return 0, nil
	}

	docs := make([]vectorstore.Document, len(s.entries))
	for i := range s.entries {
		s.entries[i].ID = uuid.NewString()
		docs[i] = vectorstore.Document{
			ID:   s.entries[i].ID,
			Text: s.entries[i].TechStack,
			Metadata: map[string]string{
				types.MetadataKeyLinks: strings.Join(s.entries[i].Links, ", "),
			},
		}
	}

	if err := s.index.Add(ctx, docs); err != nil {
		return 0, &StoreError{Op: "load", Path: s.source, Cause: err}
	}

	s.log.Debug("portfolio loaded", "documents", len(docs))
	return len(docs), nil
}

// QueryLinks returns up to n link metadata sets per skill, grouped per skill
// in input order. No skills means no query.
func (s *Store) QueryLinks(ctx context.Context, skills []string) (types.LinkQueryResult, error) {
	if len(skills) == 0 {
		return types.LinkQueryResult{}, nil
	}

	matches, err := s.index.Query(ctx, skills, s.n)
	if err != nil {
		return nil, &StoreError{Op: "query", Cause: fmt.Errorf("skills %v: %w", skills, err)}
	}

	result := make(types.LinkQueryResult, len(matches))
	for i, group := range matches {
		set := make([]types.LinkMetadata, len(group))
		for j, m := range group {
			set[j] = types.LinkMetadata(m.Metadata)
		}
		result[i] = set
	}

	s.log.Debug("portfolio queried", "skills", len(skills))
	return result, nil
}
