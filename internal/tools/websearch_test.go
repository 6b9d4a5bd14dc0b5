package tools

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/farego/farego/internal/config"
	"github.com/farego/farego/internal/log"
)

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		Region:     "de-de",
		Recency:    "d",
		MaxResults: 2,
		TimeoutMs:  10000,
	}
}

func newWebSearchForTest(t *testing.T, handler http.HandlerFunc) *WebSearch {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	w, err := NewWebSearch(testSearchConfig(), log.NewNop())
	require.NoError(t, err)
	w.baseURL = server.URL
	return w
}

func resultBlock(title, snippet, href string) string {
	return fmt.Sprintf(`<div class="result">
		<a class="result__a" href="%s">%s</a>
		<div class="result__snippet">%s</div>
	</div>`, href, title, snippet)
}

func resultsPage(blocks ...string) string {
	return "<html><body>" + strings.Join(blocks, "\n") + "</body></html>"
}

func TestNewsSearchRejectsEmptyQuery(t *testing.T) {
	w, err := NewWebSearch(testSearchConfig(), log.NewNop())
	require.NoError(t, err)

	result, err := w.Search(toolCtx(), NewsSearchInput{})
	require.NoError(t, err)

	assert.Equal(t, StatusError, result.Status)
	require.NotNil(t, result.Error)
	assert.Equal(t, ErrCodeValidation, result.Error.Code)
}

func TestNewsSearchFormatsResults(t *testing.T) {
	w := newWebSearchForTest(t, func(rw http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "de-de", r.URL.Query().Get("kl"))
		assert.Equal(t, "d", r.URL.Query().Get("df"))
		assert.Equal(t, "bus strike", r.URL.Query().Get("q"))

		_, _ = rw.Write([]byte(resultsPage(
			resultBlock("Bus strike continues", "Drivers walked out on Monday.", "https://example.org/strike"),
			resultBlock("Strike talks resume", "Union and city meet again.", "https://example.org/talks"),
		)))
	})

	result, err := w.Search(toolCtx(), NewsSearchInput{Query: "bus strike"})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	text, ok := data["result"].(string)
	require.True(t, ok)

	lines := strings.Split(text, "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "snippet: Drivers walked out on Monday., title: Bus strike continues, link: https://example.org/strike", lines[0])
	assert.Equal(t, "snippet: Union and city meet again., title: Strike talks resume, link: https://example.org/talks", lines[1])
}

func TestNewsSearchCapsResultCount(t *testing.T) {
	blocks := make([]string, 0, 5)
	for i := range 5 {
		blocks = append(blocks, resultBlock(
			fmt.Sprintf("Result %d", i),
			"snippet",
			fmt.Sprintf("https://example.org/%d", i)))
	}

	w := newWebSearchForTest(t, func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte(resultsPage(blocks...)))
	})

	result, err := w.Search(toolCtx(), NewsSearchInput{Query: "anything"})
	require.NoError(t, err)

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	text, ok := data["result"].(string)
	require.True(t, ok)
	assert.Len(t, strings.Split(text, "\n"), 2)
}

func TestNewsSearchUnwrapsRedirectLinks(t *testing.T) {
	w := newWebSearchForTest(t, func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte(resultsPage(resultBlock(
			"Wrapped link",
			"snippet",
			"//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fnews&rut=abc123",
		))))
	})

	result, err := w.Search(toolCtx(), NewsSearchInput{Query: "anything"})
	require.NoError(t, err)

	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Contains(t, data["result"], "link: https://example.org/news")
}

func TestNewsSearchPlaceholderOnEmptyPage(t *testing.T) {
	w := newWebSearchForTest(t, func(rw http.ResponseWriter, _ *http.Request) {
		_, _ = rw.Write([]byte(resultsPage()))
	})

	result, err := w.Search(toolCtx(), NewsSearchInput{Query: "nothing matches"})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, NoNewsResult, data["result"])
}

func TestNewsSearchPlaceholderOnServerError(t *testing.T) {
	w := newWebSearchForTest(t, func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusServiceUnavailable)
	})

	result, err := w.Search(toolCtx(), NewsSearchInput{Query: "anything"})
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	data, ok := result.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, NoNewsResult, data["result"])
}

func TestResolveRedirect(t *testing.T) {
	tests := []struct {
		name string
		href string
		want string
	}{
		{"empty", "", ""},
		{"direct link", "https://example.org/a", "https://example.org/a"},
		{"protocol-relative redirect", "//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fb", "https://example.org/b"},
		{"redirect with extra params", "https://duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.org%2Fc&rut=zzz", "https://example.org/c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveRedirect(tt.href))
		})
	}
}
