package config

import (
	"fmt"
	"sync"
)

const (
	// SectionIDWebSearch is the identifier for the web search settings section
	SectionIDWebSearch = "websearch"

	// SearchDepthBasic requests the provider's fast single-pass search
	SearchDepthBasic = "basic"

	// SearchDepthAdvanced requests the provider's deeper multi-pass search
	SearchDepthAdvanced = "advanced"

	// defaultMaxResults is the number of results requested per search
	defaultMaxResults = 5

	// maxMaxResults caps how many results a single search may request
	maxMaxResults = 20
)

// WebSearchSection manages web search provider settings.
type WebSearchSection struct {
	BaseURL       string
	MaxResults    int
	SearchDepth   string
	IncludeAnswer bool
	mu            sync.RWMutex
}

// NewWebSearchSection creates a new web search section with default settings.
func NewWebSearchSection() *WebSearchSection {
	return &WebSearchSection{
		BaseURL:       "",
		MaxResults:    defaultMaxResults,
		SearchDepth:   SearchDepthBasic,
		IncludeAnswer: true,
	}
}

// ID returns the section identifier.
func (s *WebSearchSection) ID() string {
	return SectionIDWebSearch
}

// Title returns the section title.
func (s *WebSearchSection) Title() string {
	return "Web Search Settings"
}

// Description returns the section description.
func (s *WebSearchSection) Description() string {
	return "Configure the web search provider: base URL override, number of results per search, search depth (basic or advanced), and whether a synthesized answer is requested."
}

// Data returns the current settings data.
func (s *WebSearchSection) Data() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return map[string]any{
		"base_url":       s.BaseURL,
		"max_results":    s.MaxResults,
		"search_depth":   s.SearchDepth,
		"include_answer": s.IncludeAnswer,
	}
}

// SetData updates the settings from the provided data.
func (s *WebSearchSection) SetData(data map[string]any) error {
	if data == nil {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if baseURL, ok := data["base_url"].(string); ok {
		s.BaseURL = baseURL
	}

	// JSON decoding delivers numbers as float64
	switch v := data["max_results"].(type) {
	case float64:
		s.MaxResults = int(v)
	case int:
		s.MaxResults = v
	}

	if depth, ok := data["search_depth"].(string); ok {
		s.SearchDepth = depth
	}

	if includeAnswer, ok := data["include_answer"].(bool); ok {
		s.IncludeAnswer = includeAnswer
	}

	return nil
}

// Validate validates the current settings.
func (s *WebSearchSection) Validate() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.MaxResults < 1 || s.MaxResults > maxMaxResults {
		return fmt.Errorf("max_results must be between 1 and %d, got %d", maxMaxResults, s.MaxResults)
	}

	switch s.SearchDepth {
	case "", SearchDepthBasic, SearchDepthAdvanced:
	default:
		return fmt.Errorf("invalid search_depth '%s': must be '%s' or '%s'", s.SearchDepth, SearchDepthBasic, SearchDepthAdvanced)
	}

	return nil
}

// Reset resets the section to default settings.
func (s *WebSearchSection) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BaseURL = ""
	s.MaxResults = defaultMaxResults
	s.SearchDepth = SearchDepthBasic
	s.IncludeAnswer = true
}

// GetBaseURL returns the configured base URL override.
// An empty string means use the provider default.
func (s *WebSearchSection) GetBaseURL() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.BaseURL
}

// SetBaseURL sets the base URL override.
func (s *WebSearchSection) SetBaseURL(baseURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.BaseURL = baseURL
}

// GetMaxResults returns the number of results requested per search.
func (s *WebSearchSection) GetMaxResults() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.MaxResults < 1 {
		return defaultMaxResults
	}
	return s.MaxResults
}

// SetMaxResults sets the number of results requested per search.
func (s *WebSearchSection) SetMaxResults(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.MaxResults = n
}

// GetSearchDepth returns the configured search depth.
// An empty string is treated as basic.
func (s *WebSearchSection) GetSearchDepth() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.SearchDepth == "" {
		return SearchDepthBasic
	}
	return s.SearchDepth
}

// SetSearchDepth sets the search depth.
func (s *WebSearchSection) SetSearchDepth(depth string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.SearchDepth = depth
}

// GetIncludeAnswer returns whether a synthesized answer is requested.
func (s *WebSearchSection) GetIncludeAnswer() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.IncludeAnswer
}

// SetIncludeAnswer sets whether a synthesized answer is requested.
func (s *WebSearchSection) SetIncludeAnswer(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.IncludeAnswer = enabled
}
