// Package websearch provides a client for a Tavily-style web search
// API: a single JSON POST endpoint returning a synthesized answer plus
// ranked result snippets.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/quillhq/quill/pkg/logging"
)

const (
	// DefaultBaseURL is the default search API base URL.
	DefaultBaseURL = "https://api.tavily.com"

	// CredentialName is the name the API key resolves under.
	CredentialName = "websearch"

	defaultMaxResults = 5
)

// CredentialSource supplies the search API key lazily.
type CredentialSource interface {
	Credential(name string) (string, error)
}

// Result is one ranked search hit. The snippet is plain text with any
// embedded HTML stripped.
type Result struct {
	Title   string
	URL     string
	Snippet string
	Score   float64
}

// Response is a completed search: an optional synthesized answer plus
// results ordered by descending score.
type Response struct {
	Answer  string
	Results []Result
}

// Client talks to the search API.
type Client struct {
	creds         CredentialSource
	logger        *logging.Logger
	httpClient    *http.Client
	baseURL       string
	maxResults    int
	searchDepth   string
	includeAnswer bool

	mu     sync.Mutex
	apiKey string
}

// ClientOption is a function that configures a Client.
type ClientOption func(*Client)

// WithBaseURL sets a custom base URL for the search API.
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient sets the HTTP client used for API requests.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithMaxResults sets how many results a search requests.
func WithMaxResults(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithSearchDepth selects the provider's search depth ("basic" or
// "advanced").
func WithSearchDepth(depth string) ClientOption {
	return func(c *Client) {
		if depth != "" {
			c.searchDepth = depth
		}
	}
}

// WithIncludeAnswer controls whether a synthesized answer is requested.
func WithIncludeAnswer(enabled bool) ClientOption {
	return func(c *Client) {
		c.includeAnswer = enabled
	}
}

// NewClient creates a search client over the given credential source.
// The API key resolves lazily on the first search.
func NewClient(creds CredentialSource, opts ...ClientOption) *Client {
	logger, _ := logging.NewLogger("websearch")
	c := &Client{
		creds:         creds,
		logger:        logger,
		httpClient:    &http.Client{},
		baseURL:       DefaultBaseURL,
		maxResults:    defaultMaxResults,
		searchDepth:   "basic",
		includeAnswer: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func (c *Client) getKey() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.apiKey != "" {
		return c.apiKey, nil
	}

	if c.creds == nil {
		return "", fmt.Errorf("websearch: no credential source configured")
	}
	key, err := c.creds.Credential(CredentialName)
	if err != nil {
		return "", fmt.Errorf("websearch: %w", err)
	}
	c.apiKey = key
	return key, nil
}

// Search runs one query against the API and returns the normalized
// response with results ordered by descending score.
func (c *Client) Search(ctx context.Context, query string) (*Response, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}

	key, err := c.getKey()
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"query":          query,
		"max_results":    c.maxResults,
		"search_depth":   c.searchDepth,
		"include_answer": c.includeAnswer,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/search"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	c.logger.Debugf("Searching: depth=%s max_results=%d", c.searchDepth, c.maxResults)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("API request failed with status %d (failed to read error body: %w)", resp.StatusCode, readErr)
		}
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Answer  string `json:"answer"`
		Results []struct {
			Title   string  `json:"title"`
			URL     string  `json:"url"`
			Content string  `json:"content"`
			Score   float64 `json:"score"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	out := &Response{Answer: strings.TrimSpace(result.Answer)}
	for _, r := range result.Results {
		out.Results = append(out.Results, Result{
			Title:   strings.TrimSpace(stripHTML(r.Title)),
			URL:     r.URL,
			Snippet: strings.TrimSpace(stripHTML(r.Content)),
			Score:   r.Score,
		})
	}
	sort.SliceStable(out.Results, func(i, j int) bool {
		return out.Results[i].Score > out.Results[j].Score
	})

	return out, nil
}

// stripHTML reduces a snippet to its plain text. Text inside noise
// elements is dropped entirely; entities are decoded; whitespace is
// collapsed.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return s
	}

	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var builder strings.Builder
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// EOF ends the scan; whatever was collected stands.
			return strings.Join(strings.Fields(builder.String()), " ")
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if isNoiseElement(string(name)) {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if isNoiseElement(string(name)) && skipDepth > 0 {
				skipDepth--
			}
		case html.TextToken:
			if skipDepth == 0 {
				builder.Write(tokenizer.Text())
				builder.WriteByte(' ')
			}
		}
	}
}

// isNoiseElement returns true for elements whose text content should
// be dropped rather than flattened.
func isNoiseElement(tagName string) bool {
	switch tagName {
	case "script", "style", "noscript":
		return true
	}
	return false
}
