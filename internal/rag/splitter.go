// Package rag turns the knowledge base corpus into searchable documents.
//
// The indexer reads the corpus file at startup, splits it into overlapping
// chunks, and upserts each chunk into the knowledge store. Chunk IDs are
// derived from the content hash, so re-indexing an unchanged corpus is a
// no-op at the row level.
package rag

import (
	"strings"
)

// Chunk is one slice of the corpus with its position in the split sequence.
type Chunk struct {
	Content string
	Index   int
}

// Splitter cuts text into overlapping chunks, breaking at word boundaries
// where possible.
type Splitter struct {
	chunkSize    int
	chunkOverlap int
}

// NewSplitter creates a Splitter. chunkSize must be positive and
// chunkOverlap must be smaller than chunkSize; config.Validate enforces
// both before a Splitter is ever built.
func NewSplitter(chunkSize, chunkOverlap int) *Splitter {
	return &Splitter{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Split cuts content into chunks of at most chunkSize bytes, with
// consecutive chunks sharing roughly chunkOverlap bytes. Whitespace-only
// input yields no chunks.
func (s *Splitter) Split(content string) []Chunk {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	var chunks []Chunk
	start := 0
	index := 0

	for start < len(content) {
		end := min(start+s.chunkSize, len(content))

		// Break at the last word boundary inside the window.
		if end < len(content) {
			if lastSpace := strings.LastIndex(content[start:end], " "); lastSpace > 0 {
				end = start + lastSpace
			}
		}

		chunkContent := strings.TrimSpace(content[start:end])
		if chunkContent != "" {
			chunks = append(chunks, Chunk{Content: chunkContent, Index: index})
			index++
		}

		if end >= len(content) {
			break
		}

		next := end - s.chunkOverlap
		// The overlap must never push the window backwards, otherwise a
		// short chunk before a long word would loop forever.
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}
