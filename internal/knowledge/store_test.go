package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farego/farego/internal/log"
	"github.com/farego/farego/internal/testutil"
)

// panicDB fails the test if any statement reaches the database.
type panicDB struct{ t *testing.T }

func (p panicDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	p.t.Fatal("unexpected Exec call")
	return pgconn.CommandTag{}, nil
}

func (p panicDB) QueryRow(context.Context, string, ...any) pgx.Row {
	p.t.Fatal("unexpected QueryRow call")
	return nil
}

func (p panicDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	p.t.Fatal("unexpected Query call")
	return nil, nil
}

func TestNewRequiresDependencies(t *testing.T) {
	embedder := &testutil.FakeEmbedder{}

	_, err := New(nil, embedder, log.NewNop())
	assert.Error(t, err)

	_, err = New(panicDB{t}, nil, log.NewNop())
	assert.Error(t, err)

	_, err = New(panicDB{t}, embedder, nil)
	assert.Error(t, err)
}

func TestAddRejectsEmptyID(t *testing.T) {
	store, err := New(panicDB{t}, &testutil.FakeEmbedder{}, log.NewNop())
	require.NoError(t, err)

	err = store.Add(context.Background(), Document{Content: "no identity"})
	assert.Error(t, err)
}

func TestAddPropagatesEmbedderFailure(t *testing.T) {
	embedErr := errors.New("quota exhausted")
	store, err := New(panicDB{t}, &testutil.FakeEmbedder{Err: embedErr}, log.NewNop())
	require.NoError(t, err)

	err = store.Add(context.Background(), Document{ID: "doc-1", Content: "text"})
	require.Error(t, err)
	assert.ErrorIs(t, err, embedErr)
}

func TestSearchPropagatesEmbedderFailure(t *testing.T) {
	embedErr := errors.New("quota exhausted")
	store, err := New(panicDB{t}, &testutil.FakeEmbedder{Err: embedErr}, log.NewNop())
	require.NoError(t, err)

	_, err = store.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.ErrorIs(t, err, embedErr)
}

func TestDeleteExceptRequiresFilter(t *testing.T) {
	store, err := New(panicDB{t}, &testutil.FakeEmbedder{}, log.NewNop())
	require.NoError(t, err)

	_, err = store.DeleteExcept(context.Background(), nil, []string{"doc-1"})
	assert.Error(t, err)
}

func TestBuildSearchConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		cfg := buildSearchConfig(nil)
		assert.Equal(t, 4, cfg.topK)
		assert.Nil(t, cfg.filter)
		assert.Equal(t, 10*time.Second, cfg.timeout)
	})

	t.Run("options override defaults", func(t *testing.T) {
		cfg := buildSearchConfig([]SearchOption{
			WithTopK(10),
			WithTimeout(2 * time.Second),
			WithFilter("source", "corpus"),
			WithFilter("lang", "de"),
		})
		assert.Equal(t, 10, cfg.topK)
		assert.Equal(t, 2*time.Second, cfg.timeout)
		assert.Equal(t, map[string]string{"source": "corpus", "lang": "de"}, cfg.filter)
	})
}
