package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"

	"github.com/farego/farego/internal/knowledge"
	"github.com/farego/farego/internal/log"
)

// SourceCorpus marks documents that came from the knowledge base file.
// The document search tool filters on it so web-sourced or manually added
// documents never leak into corpus answers.
const SourceCorpus = "corpus"

// Store is the subset of the knowledge store the indexer writes to.
type Store interface {
	Add(ctx context.Context, doc knowledge.Document) error
	DeleteExcept(ctx context.Context, filter map[string]string, keep []string) (int64, error)
}

// Indexer loads a corpus file into the knowledge store.
type Indexer struct {
	store    Store
	splitter *Splitter
	logger   log.Logger
}

// NewIndexer creates an Indexer.
func NewIndexer(store Store, splitter *Splitter, logger log.Logger) (*Indexer, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if splitter == nil {
		return nil, fmt.Errorf("splitter is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Indexer{store: store, splitter: splitter, logger: logger}, nil
}

// IndexFile reads the corpus file at path, splits it, and upserts every
// chunk. It returns the number of chunks written.
//
// Chunk IDs embed the content hash, so an unchanged corpus produces the
// same IDs on every run and the upserts overwrite rows in place. Chunks
// whose IDs no longer appear, left behind by an older corpus version,
// are pruned afterwards so stale content cannot surface in retrieval.
func (i *Indexer) IndexFile(ctx context.Context, path string) (int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("reading corpus file %q: %w", path, err)
	}

	return i.Index(ctx, string(content))
}

// Index splits content and upserts every chunk into the knowledge store.
func (i *Indexer) Index(ctx context.Context, content string) (int, error) {
	chunks := i.splitter.Split(content)
	if len(chunks) == 0 {
		i.logger.Warn("corpus is empty, nothing to index")
		return 0, nil
	}

	ids := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		doc := knowledge.Document{
			ID:      chunkID(chunk),
			Content: chunk.Content,
			Metadata: map[string]string{
				"source": SourceCorpus,
				"chunk":  strconv.Itoa(chunk.Index),
			},
		}
		if err := i.store.Add(ctx, doc); err != nil {
			return 0, fmt.Errorf("indexing chunk %d: %w", chunk.Index, err)
		}
		ids = append(ids, doc.ID)
	}

	pruned, err := i.store.DeleteExcept(ctx, map[string]string{"source": SourceCorpus}, ids)
	if err != nil {
		return 0, fmt.Errorf("pruning stale chunks: %w", err)
	}

	i.logger.Info("indexed corpus", "chunks", len(chunks), "pruned", pruned)
	return len(chunks), nil
}

// chunkID derives a deterministic document ID from chunk content and
// position.
func chunkID(chunk Chunk) string {
	hash := sha256.Sum256([]byte(chunk.Content))
	return fmt.Sprintf("corpus:%s:%d", hex.EncodeToString(hash[:8]), chunk.Index)
}
