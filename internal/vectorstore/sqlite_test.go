package vectorstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/outreach-agent/internal/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestSQLite(t *testing.T, dir string) *SQLiteIndex {
	t.Helper()
	idx, err := OpenSQLite(context.Background(), dir, "portfolio", embedding.NewHashing(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

var testDocs = []Document{
	{ID: "a", Text: "React, Node.js, MongoDB", Metadata: map[string]string{"links": "https://example.com/react-portfolio"}},
	{ID: "b", Text: "Python, Django, PostgreSQL", Metadata: map[string]string{"links": "https://example.com/python-portfolio"}},
	{ID: "c", Text: "Swift, iOS, Xcode", Metadata: map[string]string{"links": "https://example.com/ios-portfolio"}},
}

func TestSQLite_CreatesDatabaseInPersistDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "vectorstore")
	openTestSQLite(t, dir)

	_, err := os.Stat(filepath.Join(dir, sqliteFile))
	assert.NoError(t, err)
}

func TestSQLite_AddAndCount(t *testing.T) {
	ctx := context.Background()
	idx := openTestSQLite(t, t.TempDir())

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, idx.Add(ctx, testDocs))

	n, err = idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLite_AddEmptyIsNoop(t *testing.T) {
	idx := openTestSQLite(t, t.TempDir())
	require.NoError(t, idx.Add(context.Background(), nil))
}

func TestSQLite_DuplicateIDRejected(t *testing.T) {
	ctx := context.Background()
	idx := openTestSQLite(t, t.TempDir())
	require.NoError(t, idx.Add(ctx, testDocs[:1]))

	err := idx.Add(ctx, testDocs[:1])
	assert.Error(t, err)

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLite_QueryRanksBySimilarity(t *testing.T) {
	ctx := context.Background()
	idx := openTestSQLite(t, t.TempDir())
	require.NoError(t, idx.Add(ctx, testDocs))

	results, err := idx.Query(ctx, []string{"Python", "iOS"}, 2)
	require.NoError(t, err)
	require.Len(t, results, 2)

	require.Len(t, results[0], 2)
	assert.Equal(t, "b", results[0][0].ID)
	assert.Equal(t, "https://example.com/python-portfolio", results[0][0].Metadata["links"])
	assert.Greater(t, results[0][0].Score, results[0][1].Score)

	assert.Equal(t, "c", results[1][0].ID)
	assert.Equal(t, "Swift, iOS, Xcode", results[1][0].Text)
}

func TestSQLite_QueryTiesKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	idx := openTestSQLite(t, t.TempDir())
	require.NoError(t, idx.Add(ctx, testDocs))

	// An empty query embeds to the zero vector, so every score is 0.
	results, err := idx.Query(ctx, []string{""}, 3)
	require.NoError(t, err)
	require.Len(t, results[0], 3)
	assert.Equal(t, "a", results[0][0].ID)
	assert.Equal(t, "b", results[0][1].ID)
	assert.Equal(t, "c", results[0][2].ID)
}

func TestSQLite_QueryBoundedByN(t *testing.T) {
	ctx := context.Background()
	idx := openTestSQLite(t, t.TempDir())
	require.NoError(t, idx.Add(ctx, testDocs))

	results, err := idx.Query(ctx, []string{"Python"}, 10)
	require.NoError(t, err)
	assert.Len(t, results[0], 3)

	results, err = idx.Query(ctx, []string{"Python"}, 1)
	require.NoError(t, err)
	assert.Len(t, results[0], 1)
}

func TestSQLite_QueryNoTexts(t *testing.T) {
	idx := openTestSQLite(t, t.TempDir())
	results, err := idx.Query(context.Background(), nil, 2)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first, err := OpenSQLite(ctx, dir, "portfolio", embedding.NewHashing(0))
	require.NoError(t, err)
	require.NoError(t, first.Add(ctx, testDocs))
	require.NoError(t, first.Close())

	second := openTestSQLite(t, dir)
	n, err := second.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSQLite_CollectionsAreIsolated(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	idx := openTestSQLite(t, dir)
	require.NoError(t, idx.Add(ctx, testDocs))

	other, err := OpenSQLite(ctx, dir, "other", embedding.NewHashing(0))
	require.NoError(t, err)
	defer func() { _ = other.Close() }()

	n, err := other.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
