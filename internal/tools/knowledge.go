package tools

// knowledge.go defines the bus knowledge base search tool.
//
// The corpus indexed at startup is the assistant's authoritative source
// for bus schedules, routes, and fares. The tool description tells the
// model to always prefer it for bus questions over web lookups.

import (
	"context"
	"fmt"

	"github.com/farego/farego/internal/knowledge"
	"github.com/farego/farego/internal/log"
	"github.com/farego/farego/internal/rag"
	"github.com/firebase/genkit/go/ai"
)

// BusInformationSearchName is the Genkit tool name for corpus retrieval.
const BusInformationSearchName = "bus_information_search"

// busInformationSearchDescription tells the model when to reach for the
// corpus. The wording is a behavioral contract: it makes bus questions
// route here instead of to the web tools.
const busInformationSearchDescription = "Search for information regarding bus schedules, routes, fares, " +
	"and other relevant information. For any questions about Bus related " +
	"information, you must use this tool!"

// Default and maximum result counts for corpus searches.
const (
	DefaultDocumentsTopK = 4
	MaxTopK              = 10
)

// KnowledgeSearchInput defines input for the bus_information_search tool.
type KnowledgeSearchInput struct {
	Query string `json:"query" jsonschema_description:"The search query string"`
	TopK  int    `json:"topK,omitempty" jsonschema_description:"Maximum results to return (1-10)"`
}

// Searcher is the retrieval operation the knowledge tool depends on.
// *knowledge.Store satisfies this interface.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...knowledge.SearchOption) ([]knowledge.Result, error)
}

// Knowledge holds dependencies for the corpus search handler.
type Knowledge struct {
	store  Searcher
	logger log.Logger
}

// NewKnowledge creates a Knowledge instance.
func NewKnowledge(store Searcher, logger log.Logger) (*Knowledge, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Knowledge{store: store, logger: logger}, nil
}

// clampTopK validates topK and returns a value within [1, MaxTopK].
// If topK <= 0, returns defaultVal.
func clampTopK(topK, defaultVal int) int {
	if topK <= 0 {
		return defaultVal
	}
	if topK > MaxTopK {
		return MaxTopK
	}
	return topK
}

// Search retrieves corpus chunks semantically related to the query.
func (k *Knowledge) Search(ctx *ai.ToolContext, input KnowledgeSearchInput) (Result, error) {
	k.logger.Info("bus information search called", "query", input.Query, "topK", input.TopK)

	if input.Query == "" {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "query is required",
			},
		}, nil
	}

	topK := clampTopK(input.TopK, DefaultDocumentsTopK)

	results, err := k.store.Search(ctx, input.Query,
		knowledge.WithTopK(topK),
		knowledge.WithFilter("source", rag.SourceCorpus))
	if err != nil {
		k.logger.Warn("bus information search failed", "query", input.Query, "error", err)
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeExecution,
				Message: fmt.Sprintf("searching bus information: %v", err),
			},
		}, nil
	}

	passages := make([]map[string]any, 0, len(results))
	for _, r := range results {
		passages = append(passages, map[string]any{
			"content":    r.Document.Content,
			"similarity": r.Similarity,
		})
	}

	k.logger.Info("bus information search succeeded", "query", input.Query, "result_count", len(passages))
	return Result{
		Status: StatusSuccess,
		Data: map[string]any{
			"query":        input.Query,
			"result_count": len(passages),
			"results":      passages,
		},
	}, nil
}
