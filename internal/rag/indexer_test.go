package rag

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farego/farego/internal/knowledge"
	"github.com/farego/farego/internal/log"
)

// captureStore records added documents and prune calls in memory.
type captureStore struct {
	docs []knowledge.Document
	err  error

	pruneFilter map[string]string
	pruneKeep   []string
	pruneErr    error
}

func (c *captureStore) Add(_ context.Context, doc knowledge.Document) error {
	if c.err != nil {
		return c.err
	}
	c.docs = append(c.docs, doc)
	return nil
}

func (c *captureStore) DeleteExcept(_ context.Context, filter map[string]string, keep []string) (int64, error) {
	if c.pruneErr != nil {
		return 0, c.pruneErr
	}
	c.pruneFilter = filter
	c.pruneKeep = keep
	return 0, nil
}

func TestNewIndexerRequiresDependencies(t *testing.T) {
	splitter := NewSplitter(1000, 200)

	_, err := NewIndexer(nil, splitter, log.NewNop())
	assert.Error(t, err)

	_, err = NewIndexer(&captureStore{}, nil, log.NewNop())
	assert.Error(t, err)

	_, err = NewIndexer(&captureStore{}, splitter, nil)
	assert.Error(t, err)
}

func TestIndexWritesEveryChunk(t *testing.T) {
	store := &captureStore{}
	indexer, err := NewIndexer(store, NewSplitter(50, 10), log.NewNop())
	require.NoError(t, err)

	content := strings.Repeat("bus line fare stop schedule ", 20)
	count, err := indexer.Index(context.Background(), content)
	require.NoError(t, err)

	assert.Equal(t, len(store.docs), count)
	assert.Greater(t, count, 1)

	for _, doc := range store.docs {
		assert.True(t, strings.HasPrefix(doc.ID, "corpus:"), "unexpected ID %q", doc.ID)
		assert.Equal(t, SourceCorpus, doc.Metadata["source"])
		assert.NotEmpty(t, doc.Content)
	}
}

func TestIndexIsDeterministic(t *testing.T) {
	content := strings.Repeat("night bus departs from central station ", 15)

	first := &captureStore{}
	indexer, err := NewIndexer(first, NewSplitter(80, 20), log.NewNop())
	require.NoError(t, err)
	_, err = indexer.Index(context.Background(), content)
	require.NoError(t, err)

	second := &captureStore{}
	indexer, err = NewIndexer(second, NewSplitter(80, 20), log.NewNop())
	require.NoError(t, err)
	_, err = indexer.Index(context.Background(), content)
	require.NoError(t, err)

	require.Equal(t, len(first.docs), len(second.docs))
	for i := range first.docs {
		assert.Equal(t, first.docs[i].ID, second.docs[i].ID)
	}
}

func TestIndexPrunesStaleChunks(t *testing.T) {
	store := &captureStore{}
	indexer, err := NewIndexer(store, NewSplitter(50, 10), log.NewNop())
	require.NoError(t, err)

	_, err = indexer.Index(context.Background(), strings.Repeat("timetable update ", 20))
	require.NoError(t, err)

	// The prune call keeps exactly the IDs just written, scoped to
	// corpus-sourced documents so other sources are untouched.
	assert.Equal(t, map[string]string{"source": SourceCorpus}, store.pruneFilter)
	require.Len(t, store.pruneKeep, len(store.docs))
	for i, doc := range store.docs {
		assert.Equal(t, doc.ID, store.pruneKeep[i])
	}
}

func TestIndexFailsWhenPruningFails(t *testing.T) {
	pruneErr := errors.New("connection lost")
	indexer, err := NewIndexer(&captureStore{pruneErr: pruneErr}, NewSplitter(1000, 200), log.NewNop())
	require.NoError(t, err)

	_, err = indexer.Index(context.Background(), "some corpus text")
	require.Error(t, err)
	assert.ErrorIs(t, err, pruneErr)
}

func TestIndexEmptyCorpus(t *testing.T) {
	store := &captureStore{}
	indexer, err := NewIndexer(store, NewSplitter(1000, 200), log.NewNop())
	require.NoError(t, err)

	count, err := indexer.Index(context.Background(), "   ")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.Empty(t, store.docs)
}

func TestIndexStopsOnStoreFailure(t *testing.T) {
	storeErr := errors.New("connection lost")
	indexer, err := NewIndexer(&captureStore{err: storeErr}, NewSplitter(1000, 200), log.NewNop())
	require.NoError(t, err)

	_, err = indexer.Index(context.Background(), "some corpus text")
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)
}

func TestIndexFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "knowledgebase.txt")
	require.NoError(t, os.WriteFile(path, []byte("Bus 42 runs between the harbor and the airport."), 0o644))

	store := &captureStore{}
	indexer, err := NewIndexer(store, NewSplitter(1000, 200), log.NewNop())
	require.NoError(t, err)

	count, err := indexer.IndexFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, store.docs, 1)
	assert.Equal(t, "Bus 42 runs between the harbor and the airport.", store.docs[0].Content)
}

func TestIndexFileMissing(t *testing.T) {
	indexer, err := NewIndexer(&captureStore{}, NewSplitter(1000, 200), log.NewNop())
	require.NoError(t, err)

	_, err = indexer.IndexFile(context.Background(), filepath.Join(t.TempDir(), "nope.txt"))
	assert.Error(t, err)
}
