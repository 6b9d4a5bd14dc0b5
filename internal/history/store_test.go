package history

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farego/farego/internal/log"
)

// panicDB fails the test if any query reaches the database.
// Used to verify validation happens before touching storage.
type panicDB struct{ t *testing.T }

func (p panicDB) QueryRow(context.Context, string, ...any) pgx.Row {
	p.t.Fatal("unexpected QueryRow call")
	return nil
}

func (p panicDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	p.t.Fatal("unexpected Query call")
	return nil, nil
}

func TestNewRequiresDependencies(t *testing.T) {
	_, err := New(nil, log.NewNop())
	assert.Error(t, err)

	_, err = New(panicDB{t}, nil)
	assert.Error(t, err)
}

func TestListValidatesRangeBeforeQuerying(t *testing.T) {
	store, err := New(panicDB{t}, log.NewNop())
	require.NoError(t, err)

	tests := []struct {
		name  string
		skip  int
		limit int
	}{
		{"negative skip", -1, 10},
		{"negative limit", 0, -5},
		{"limit above maximum", 0, MaxListLimit + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.List(context.Background(), tt.skip, tt.limit)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidRange)
		})
	}
}

func TestListLimitZeroReturnsEmptyWithoutQuerying(t *testing.T) {
	store, err := New(panicDB{t}, log.NewNop())
	require.NoError(t, err)

	turns, err := store.List(context.Background(), 0, 0)
	require.NoError(t, err)
	assert.NotNil(t, turns)
	assert.Empty(t, turns)
}
