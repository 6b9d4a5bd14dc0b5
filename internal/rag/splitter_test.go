package rag

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitEmptyInput(t *testing.T) {
	s := NewSplitter(1000, 200)

	assert.Nil(t, s.Split(""))
	assert.Nil(t, s.Split("   \n\t  "))
}

func TestSplitShortInputSingleChunk(t *testing.T) {
	s := NewSplitter(1000, 200)

	chunks := s.Split("The night bus runs every 30 minutes.")
	require.Len(t, chunks, 1)
	assert.Equal(t, "The night bus runs every 30 minutes.", chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestSplitRespectsChunkSize(t *testing.T) {
	s := NewSplitter(100, 20)

	content := strings.Repeat("bus schedule route fare ticket stop line ", 50)
	chunks := s.Split(content)

	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 100)
		assert.NotEmpty(t, c.Content)
	}
}

func TestSplitBreaksAtWordBoundaries(t *testing.T) {
	s := NewSplitter(30, 5)

	content := "alpha bravo charlie delta echo foxtrot golf hotel india juliet"
	chunks := s.Split(content)

	words := map[string]struct{}{}
	for _, w := range strings.Fields(content) {
		words[w] = struct{}{}
	}
	for _, c := range chunks {
		for _, w := range strings.Fields(c.Content) {
			_, ok := words[w]
			assert.True(t, ok, "chunk split word %q mid-way", w)
		}
	}
}

func TestSplitIndicesAreSequential(t *testing.T) {
	s := NewSplitter(50, 10)

	chunks := s.Split(strings.Repeat("word ", 100))
	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
}

func TestSplitOverlapCarriesContext(t *testing.T) {
	s := NewSplitter(40, 15)

	content := "one two three four five six seven eight nine ten eleven twelve thirteen fourteen"
	chunks := s.Split(content)
	require.Greater(t, len(chunks), 1)

	// Each chunk after the first should start with text the previous
	// chunk already covered.
	for i := 1; i < len(chunks); i++ {
		first := strings.Fields(chunks[i].Content)[0]
		assert.Contains(t, chunks[i-1].Content, first)
	}
}

func TestSplitTerminatesOnUnbrokenText(t *testing.T) {
	// A single token longer than the chunk size must not loop forever.
	s := NewSplitter(10, 8)

	chunks := s.Split(strings.Repeat("x", 100))
	assert.NotEmpty(t, chunks)
}
