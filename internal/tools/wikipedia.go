package tools

// wikipedia.go defines the Wikipedia lookup tool.
//
// The tool queries the MediaWiki API for the single best-matching article
// and returns a short plain-text extract. Lookup failures never surface
// as tool errors: the model receives a fixed placeholder string instead,
// so a failed lookup degrades the answer rather than aborting the turn.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/farego/farego/internal/log"
)

// WikipediaLookupName is the Genkit tool name for Wikipedia lookups.
const WikipediaLookupName = "wikipedia_lookup"

const wikipediaLookupDescription = "Look up a topic on Wikipedia and return a short summary of the " +
	"best-matching article. Use this for general knowledge questions about " +
	"places, people, organizations, or concepts."

// NoWikipediaResult is returned to the model when the lookup fails or
// matches nothing. The exact wording is part of the answer contract.
const NoWikipediaResult = "No good Wikipedia Search Result was found"

// wikipediaAPIURL is the MediaWiki API endpoint.
const wikipediaAPIURL = "https://en.wikipedia.org/w/api.php"

// maxExtractLength bounds the article extract handed to the model.
const maxExtractLength = 200

// wikipediaTimeout bounds one lookup end to end.
const wikipediaTimeout = 10 * time.Second

// WikipediaLookupInput defines input for the wikipedia_lookup tool.
type WikipediaLookupInput struct {
	Query string `json:"query" jsonschema_description:"The topic to look up on Wikipedia"`
}

// wikipediaResponse mirrors the MediaWiki query response fields we read.
type wikipediaResponse struct {
	Query struct {
		Pages map[string]struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			Index   int    `json:"index"`
		} `json:"pages"`
	} `json:"query"`
}

// Wikipedia holds dependencies for the Wikipedia lookup handler.
type Wikipedia struct {
	client *http.Client
	apiURL string
	logger log.Logger
}

// NewWikipedia creates a Wikipedia instance with a bounded HTTP client.
func NewWikipedia(logger log.Logger) (*Wikipedia, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Wikipedia{
		client: &http.Client{Timeout: wikipediaTimeout},
		apiURL: wikipediaAPIURL,
		logger: logger,
	}, nil
}

// Lookup fetches the best-matching article extract for the query.
func (w *Wikipedia) Lookup(ctx *ai.ToolContext, input WikipediaLookupInput) (Result, error) {
	w.logger.Info("wikipedia lookup called", "query", input.Query)

	if input.Query == "" {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "query is required",
			},
		}, nil
	}

	extract, err := w.fetchExtract(ctx, input.Query)
	if err != nil {
		// The model gets the placeholder, not an error: a failed lookup
		// should degrade the answer, not abort the generation turn.
		w.logger.Warn("wikipedia lookup failed", "query", input.Query, "error", err)
		return Result{
			Status: StatusSuccess,
			Data:   map[string]any{"result": NoWikipediaResult},
		}, nil
	}

	w.logger.Info("wikipedia lookup succeeded", "query", input.Query, "extract_length", len(extract))
	return Result{
		Status: StatusSuccess,
		Data:   map[string]any{"result": extract},
	}, nil
}

// fetchExtract queries the MediaWiki API for the top search hit's
// plain-text intro, truncated to maxExtractLength.
func (w *Wikipedia) fetchExtract(ctx context.Context, query string) (string, error) {
	params := url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"generator":     {"search"},
		"gsrsearch":     {query},
		"gsrlimit":      {"1"},
		"prop":          {"extracts"},
		"exintro":       {"1"},
		"explaintext":   {"1"},
		"exchars":       {"500"},
		"formatversion": {"1"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", "farego/1.0 (bus inquiry assistant)")

	resp, err := w.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("querying wikipedia: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikipedia returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	var parsed wikipediaResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing response: %w", err)
	}

	for _, page := range parsed.Query.Pages {
		if page.Extract == "" {
			continue
		}
		return truncateRunes(page.Extract, maxExtractLength), nil
	}

	return "", fmt.Errorf("no article matched %q", query)
}

// truncateRunes shortens s to at most n runes, never splitting a
// multibyte character.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
