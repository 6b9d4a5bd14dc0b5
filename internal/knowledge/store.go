// Package knowledge stores embedded documents in PostgreSQL and retrieves
// them by vector similarity. It is the retrieval half of the assistant:
// the indexer writes corpus chunks here, and the document search tool
// reads them back at answer time.
package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/farego/farego/internal/log"
)

// DB defines the database operations Store needs.
// Following Go best practices: interfaces are defined by the consumer,
// not the provider (similar to http.RoundTripper, io.Reader).
// *pgxpool.Pool satisfies this interface.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Store manages knowledge documents with vector search capabilities.
// It handles embedding generation and vector similarity search using
// PostgreSQL + pgvector.
//
// Store is safe for concurrent use by multiple goroutines.
type Store struct {
	db       DB
	embedder ai.Embedder
	logger   log.Logger
}

// New creates a new Store instance.
func New(db DB, embedder ai.Embedder, logger log.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("db is required")
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Store{db: db, embedder: embedder, logger: logger}, nil
}

// Add embeds a document's content and upserts it into the documents table.
// Re-adding an existing ID replaces its content, embedding, and metadata.
func (s *Store) Add(ctx context.Context, doc Document) error {
	if doc.ID == "" {
		return fmt.Errorf("document ID must not be empty")
	}

	embedding, err := s.embed(ctx, doc.Content)
	if err != nil {
		return fmt.Errorf("failed to embed document %q: %w", doc.ID, err)
	}

	metadataJSON, err := json.Marshal(doc.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	const query = `
		INSERT INTO documents (id, content, embedding, metadata)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`

	if _, err := s.db.Exec(ctx, query, doc.ID, doc.Content, embedding, metadataJSON); err != nil {
		return fmt.Errorf("failed to upsert document %q: %w", doc.ID, err)
	}

	s.logger.Debug("added document", "id", doc.ID, "content_length", len(doc.Content))
	return nil
}

// Search performs semantic search using functional options.
// It returns the most similar documents to the query, ordered by cosine
// similarity, and applies a deadline so vector searches cannot block
// request handling indefinitely.
//
// Example usage:
//
//	results, err := store.Search(ctx, "night bus schedule",
//	    knowledge.WithTopK(4),
//	    knowledge.WithFilter("source", "corpus"))
func (s *Store) Search(ctx context.Context, query string, opts ...SearchOption) ([]Result, error) {
	cfg := buildSearchConfig(opts)

	queryCtx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	queryEmbedding, err := s.embed(queryCtx, query)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("embedding generation timeout: %w", err)
		}
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// The filter uses the JSONB containment operator with a marshaled
	// parameter, so filter values never reach the SQL text.
	var (
		rows pgx.Rows
	)
	if len(cfg.filter) > 0 {
		filterJSON, marshalErr := json.Marshal(cfg.filter)
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to marshal filter: %w", marshalErr)
		}
		const filtered = `
			SELECT id, content, metadata, created_at,
			       1 - (embedding <=> $1) AS similarity
			FROM documents
			WHERE metadata @> $2
			ORDER BY embedding <=> $1
			LIMIT $3`
		rows, err = s.db.Query(queryCtx, filtered, queryEmbedding, filterJSON, cfg.topK)
	} else {
		const unfiltered = `
			SELECT id, content, metadata, created_at,
			       1 - (embedding <=> $1) AS similarity
			FROM documents
			ORDER BY embedding <=> $1
			LIMIT $2`
		rows, err = s.db.Query(queryCtx, unfiltered, queryEmbedding, cfg.topK)
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("search query timeout: %w", err)
		}
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	results, err := s.scanResults(rows)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("searched documents", "query_length", len(query), "results", len(results), "top_k", cfg.topK)
	return results, nil
}

// Count returns the number of documents matching the given filter.
// A nil or empty filter counts all documents.
func (s *Store) Count(ctx context.Context, filter map[string]string) (int64, error) {
	var (
		count int64
		err   error
	)

	if len(filter) > 0 {
		filterJSON, marshalErr := json.Marshal(filter)
		if marshalErr != nil {
			return 0, fmt.Errorf("failed to marshal filter: %w", marshalErr)
		}
		err = s.db.QueryRow(ctx, `SELECT count(*) FROM documents WHERE metadata @> $1`, filterJSON).Scan(&count)
	} else {
		err = s.db.QueryRow(ctx, `SELECT count(*) FROM documents`).Scan(&count)
	}

	if err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return count, nil
}

// DeleteExcept removes documents matching the metadata filter whose IDs
// are not in keep, and returns how many were removed. The indexer uses it
// to prune chunks left over from an older corpus version after a
// re-index. The filter must be non-empty so an empty keep list can never
// wipe unrelated documents.
func (s *Store) DeleteExcept(ctx context.Context, filter map[string]string, keep []string) (int64, error) {
	if len(filter) == 0 {
		return 0, fmt.Errorf("filter is required")
	}
	filterJSON, err := json.Marshal(filter)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal filter: %w", err)
	}

	tag, err := s.db.Exec(ctx,
		`DELETE FROM documents WHERE metadata @> $1 AND NOT (id = ANY($2))`,
		filterJSON, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to delete documents: %w", err)
	}

	deleted := tag.RowsAffected()
	if deleted > 0 {
		s.logger.Debug("pruned documents", "deleted", deleted)
	}
	return deleted, nil
}

// embed generates a single embedding vector for the given text.
func (s *Store) embed(ctx context.Context, text string) (pgvector.Vector, error) {
	resp, err := s.embedder.Embed(ctx, &ai.EmbedRequest{
		Input: []*ai.Document{
			{
				Content: []*ai.Part{ai.NewTextPart(text)},
			},
		},
	})
	if err != nil {
		return pgvector.Vector{}, err
	}

	if len(resp.Embeddings) == 0 || len(resp.Embeddings[0].Embedding) == 0 {
		return pgvector.Vector{}, fmt.Errorf("empty embedding returned")
	}

	return pgvector.NewVector(resp.Embeddings[0].Embedding), nil
}

// scanResults converts search rows into Results.
func (s *Store) scanResults(rows pgx.Rows) ([]Result, error) {
	var results []Result
	for rows.Next() {
		var (
			doc          Document
			metadataJSON []byte
			createdAt    time.Time
			similarity   float32
		)
		if err := rows.Scan(&doc.ID, &doc.Content, &metadataJSON, &createdAt, &similarity); err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}

		if err := json.Unmarshal(metadataJSON, &doc.Metadata); err != nil {
			s.logger.Warn("failed to parse metadata", "document_id", doc.ID, "error", err)
			doc.Metadata = make(map[string]string)
		}
		doc.CreateAt = createdAt

		results = append(results, Result{Document: doc, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading search results: %w", err)
	}
	return results, nil
}
