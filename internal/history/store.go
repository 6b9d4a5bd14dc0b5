// Package history persists completed chat exchanges to PostgreSQL.
//
// Each row in chat_history records exactly one completed agent invocation:
// the user's input and the agent's response, stamped at insertion time.
// Rows are never updated or deleted; listing follows insertion order.
package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/farego/farego/internal/log"
)

// ErrInvalidRange indicates skip or limit is outside the accepted range.
var ErrInvalidRange = errors.New("invalid pagination range")

// MaxListLimit bounds a single List call to keep result sets small.
const MaxListLimit = 1000

// ChatTurn is one persisted exchange.
type ChatTurn struct {
	ID            int64     `json:"id"`
	UserInput     string    `json:"user_input"`
	AgentResponse string    `json:"agent_response"`
	Timestamp     time.Time `json:"timestamp"`
}

// DB defines the database operations Store needs.
// Following Go best practices: interfaces are defined by the consumer,
// not the provider (similar to io.Reader, http.RoundTripper).
// *pgxpool.Pool satisfies this interface.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store manages the append-only chat record table.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db     DB
	logger log.Logger
}

// New creates a new Store instance.
func New(db DB, logger log.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Store{db: db, logger: logger}, nil
}

// Append records a completed exchange and returns the stored row.
// The id and timestamp are assigned by the database, so the returned
// ChatTurn is the durable state as persisted.
func (s *Store) Append(ctx context.Context, userInput, agentResponse string) (ChatTurn, error) {
	const query = `
		INSERT INTO chat_history (user_input, agent_response)
		VALUES ($1, $2)
		RETURNING id, timestamp`

	turn := ChatTurn{UserInput: userInput, AgentResponse: agentResponse}
	if err := s.db.QueryRow(ctx, query, userInput, agentResponse).Scan(&turn.ID, &turn.Timestamp); err != nil {
		return ChatTurn{}, fmt.Errorf("appending chat turn: %w", err)
	}

	s.logger.Debug("appended chat turn", "id", turn.ID, "input_length", len(userInput))
	return turn, nil
}

// List returns stored exchanges ordered oldest-first, skipping the first
// skip rows and returning at most limit rows. An empty table yields an
// empty slice, not an error. A limit of zero is valid and returns an
// empty slice without touching storage.
func (s *Store) List(ctx context.Context, skip, limit int) ([]ChatTurn, error) {
	if skip < 0 {
		return nil, fmt.Errorf("%w: skip %d must not be negative", ErrInvalidRange, skip)
	}
	if limit < 0 || limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit %d must be between 0 and %d", ErrInvalidRange, limit, MaxListLimit)
	}
	if limit == 0 {
		return []ChatTurn{}, nil
	}

	const query = `
		SELECT id, user_input, agent_response, timestamp
		FROM chat_history
		ORDER BY id
		OFFSET $1 LIMIT $2`

	rows, err := s.db.Query(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("listing chat history: %w", err)
	}
	defer rows.Close()

	turns := make([]ChatTurn, 0, limit)
	for rows.Next() {
		var turn ChatTurn
		if err := rows.Scan(&turn.ID, &turn.UserInput, &turn.AgentResponse, &turn.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning chat turn: %w", err)
		}
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading chat history rows: %w", err)
	}

	s.logger.Debug("listed chat history", "count", len(turns), "skip", skip, "limit", limit)
	return turns, nil
}

// Count returns the total number of stored exchanges.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM chat_history`).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chat history: %w", err)
	}
	return count, nil
}
