package testutil

import (
	"context"
	"hash/fnv"
	"io"
	"log/slog"
	"os"
	"testing"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/core/api"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
)

// EmbedderSetup contains all resources needed for embedder-based tests.
type EmbedderSetup struct {
	Embedder ai.Embedder
	Genkit   *genkit.Genkit
	Logger   *slog.Logger
}

// SetupEmbedder creates a Google AI embedder with logger for integration tests.
//
// Requirements:
//   - GEMINI_API_KEY environment variable must be set
//   - Skips test if API key is not available
func SetupEmbedder(t *testing.T) *EmbedderSetup {
	t.Helper()

	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		t.Skip("GEMINI_API_KEY not set - skipping test requiring embedder")
	}

	ctx := context.Background()

	g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))

	embedder := googlegenai.GoogleAIEmbedder(g, "embedding-001")

	// Quiet logger for tests (only warn and above)
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))

	return &EmbedderSetup{
		Embedder: embedder,
		Genkit:   g,
		Logger:   logger,
	}
}

// FakeEmbedder is a deterministic ai.Embedder for unit tests.
// It hashes document text into a fixed-dimension vector, so equal texts
// produce equal embeddings without any network calls.
type FakeEmbedder struct {
	// Dimension of produced vectors. Defaults to 768 when zero.
	Dimension int

	// Err, when set, is returned from every Embed call.
	Err error
}

// Name implements ai.Embedder.
func (f *FakeEmbedder) Name() string { return "testutil/fake-embedder" }

// Register implements ai.Embedder. No-op for tests.
func (f *FakeEmbedder) Register(api.Registry) {}

// Embed implements ai.Embedder with a content-derived deterministic vector.
func (f *FakeEmbedder) Embed(_ context.Context, req *ai.EmbedRequest) (*ai.EmbedResponse, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	dim := f.Dimension
	if dim == 0 {
		dim = 768
	}

	resp := &ai.EmbedResponse{}
	for _, doc := range req.Input {
		var text string
		for _, part := range doc.Content {
			text += part.Text
		}

		vec := make([]float32, dim)
		h := fnv.New32a()
		_, _ = h.Write([]byte(text))
		seed := h.Sum32()
		for i := range vec {
			seed = seed*1664525 + 1013904223
			vec[i] = float32(seed%1000)/1000.0 - 0.5
		}
		resp.Embeddings = append(resp.Embeddings, &ai.Embedding{Embedding: vec})
	}
	return resp, nil
}
