// Package tools defines the Genkit tools the assistant can call while
// answering: corpus retrieval, Wikipedia lookup, and news search.
//
// Every tool returns a Result envelope rather than a Go error, so the
// model can observe failures and route around them.
package tools

import (
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Register defines all assistant tools with Genkit and returns them in
// registration order. The returned slice is what the agent passes to
// ai.WithTools on every generation.
func Register(g *genkit.Genkit, kt *Knowledge, wiki *Wikipedia, web *WebSearch) ([]ai.Tool, error) {
	if g == nil {
		return nil, fmt.Errorf("genkit instance is required")
	}
	if kt == nil {
		return nil, fmt.Errorf("knowledge tool is required")
	}
	if wiki == nil {
		return nil, fmt.Errorf("wikipedia tool is required")
	}
	if web == nil {
		return nil, fmt.Errorf("web search tool is required")
	}

	return []ai.Tool{
		genkit.DefineTool(g, BusInformationSearchName, busInformationSearchDescription, kt.Search),
		genkit.DefineTool(g, WikipediaLookupName, wikipediaLookupDescription, wiki.Lookup),
		genkit.DefineTool(g, NewsSearchName, newsSearchDescription, web.Search),
	}, nil
}
