package tools

// websearch.go defines the DuckDuckGo news search tool.
//
// Recent events are outside both the corpus and the model's training
// cutoff, so the agent falls back to a region- and recency-scoped web
// search. The HTML endpoint is scraped with colly because DuckDuckGo
// has no JSON API for organic results.

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/firebase/genkit/go/ai"
	"github.com/gocolly/colly/v2"

	"github.com/farego/farego/internal/config"
	"github.com/farego/farego/internal/log"
)

// NewsSearchName is the Genkit tool name for current-events search.
const NewsSearchName = "news_search"

const newsSearchDescription = "Search the web for recent news and current events. Use this for " +
	"questions about things happening now or in the last few days, such as " +
	"service disruptions, strikes, or schedule changes."

// NoNewsResult is returned to the model when the search fails or matches
// nothing. The exact wording is part of the answer contract.
const NoNewsResult = "No good DuckDuckGo Search Result was found"

// duckduckgoHTMLURL is the JavaScript-free results endpoint.
const duckduckgoHTMLURL = "https://html.duckduckgo.com/html/"

// searchUserAgent identifies as a regular browser; the HTML endpoint
// serves empty pages to obvious bots.
const searchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// NewsSearchInput defines input for the news_search tool.
type NewsSearchInput struct {
	Query string `json:"query" jsonschema_description:"The news topic to search for"`
}

// newsResult is one parsed search hit.
type newsResult struct {
	Title   string
	Snippet string
	Link    string
}

// WebSearch holds dependencies for the news search handler.
type WebSearch struct {
	cfg     config.SearchConfig
	baseURL string
	logger  log.Logger
}

// NewWebSearch creates a WebSearch instance.
func NewWebSearch(cfg config.SearchConfig, logger log.Logger) (*WebSearch, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &WebSearch{
		cfg:     cfg,
		baseURL: duckduckgoHTMLURL,
		logger:  logger,
	}, nil
}

// Search fetches recent results for the query, scoped to the configured
// region and recency window.
func (w *WebSearch) Search(ctx *ai.ToolContext, input NewsSearchInput) (Result, error) {
	w.logger.Info("news search called", "query", input.Query, "region", w.cfg.Region)

	if input.Query == "" {
		return Result{
			Status: StatusError,
			Error: &Error{
				Code:    ErrCodeValidation,
				Message: "query is required",
			},
		}, nil
	}

	results, err := w.fetch(input.Query)
	if err != nil || len(results) == 0 {
		// The model gets the placeholder, not an error: a failed search
		// should degrade the answer, not abort the generation turn.
		w.logger.Warn("news search found nothing", "query", input.Query, "error", err)
		return Result{
			Status: StatusSuccess,
			Data:   map[string]any{"result": NoNewsResult},
		}, nil
	}

	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("snippet: %s, title: %s, link: %s", r.Snippet, r.Title, r.Link))
	}

	w.logger.Info("news search succeeded", "query", input.Query, "result_count", len(results))
	return Result{
		Status: StatusSuccess,
		Data:   map[string]any{"result": strings.Join(lines, "\n")},
	}, nil
}

// fetch scrapes the results page and returns at most MaxResults hits.
func (w *WebSearch) fetch(query string) ([]newsResult, error) {
	var results []newsResult

	c := colly.NewCollector(colly.UserAgent(searchUserAgent))
	c.SetRequestTimeout(time.Duration(w.cfg.TimeoutMs) * time.Millisecond)

	c.OnHTML("div.result", func(e *colly.HTMLElement) {
		if len(results) >= w.cfg.MaxResults {
			return
		}
		if r, ok := parseResult(e.DOM); ok {
			results = append(results, r)
		}
	})

	params := url.Values{
		"q":  {query},
		"kl": {w.cfg.Region},
		"df": {w.cfg.Recency},
	}
	if err := c.Visit(w.baseURL + "?" + params.Encode()); err != nil {
		return nil, fmt.Errorf("fetching search results: %w", err)
	}

	return results, nil
}

// parseResult extracts one hit from a result block. Blocks without a
// title link (ad slots, spelling suggestions) are skipped.
func parseResult(sel *goquery.Selection) (newsResult, bool) {
	anchor := sel.Find("a.result__a")

	title := strings.TrimSpace(anchor.Text())
	href, _ := anchor.Attr("href")
	link := resolveRedirect(href)
	if title == "" || link == "" {
		return newsResult{}, false
	}

	return newsResult{
		Title:   title,
		Snippet: strings.TrimSpace(sel.Find(".result__snippet").Text()),
		Link:    link,
	}, true
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg=<target> redirect links
// so the model sees the destination URL.
func resolveRedirect(href string) string {
	if href == "" {
		return ""
	}
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}
