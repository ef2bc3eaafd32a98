package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWebSearchSection(t *testing.T) {
	section := NewWebSearchSection()
	assert.NotNil(t, section)
	assert.Equal(t, "", section.BaseURL)
	assert.Equal(t, defaultMaxResults, section.MaxResults)
	assert.Equal(t, SearchDepthBasic, section.SearchDepth)
	assert.True(t, section.IncludeAnswer)
}

func TestWebSearchSection_ID(t *testing.T) {
	section := NewWebSearchSection()
	assert.Equal(t, SectionIDWebSearch, section.ID())
	assert.Equal(t, "websearch", section.ID())
}

func TestWebSearchSection_SetData(t *testing.T) {
	tests := []struct {
		name          string
		data          map[string]any
		expectResults int
		expectDepth   string
	}{
		{
			name: "full data",
			data: map[string]any{
				"base_url":       "https://search.example.com",
				"max_results":    float64(10),
				"search_depth":   "advanced",
				"include_answer": false,
			},
			expectResults: 10,
			expectDepth:   SearchDepthAdvanced,
		},
		{
			// JSON round-trips integers as float64, but direct callers
			// may pass int
			name: "int max_results",
			data: map[string]any{
				"max_results": 3,
			},
			expectResults: 3,
			expectDepth:   SearchDepthBasic,
		},
		{
			name:          "nil data keeps defaults",
			data:          nil,
			expectResults: defaultMaxResults,
			expectDepth:   SearchDepthBasic,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section := NewWebSearchSection()
			err := section.SetData(tt.data)
			assert.NoError(t, err)
			assert.Equal(t, tt.expectResults, section.MaxResults)
			assert.Equal(t, tt.expectDepth, section.SearchDepth)
		})
	}
}

func TestWebSearchSection_Validate(t *testing.T) {
	tests := []struct {
		name       string
		maxResults int
		depth      string
		expectErr  bool
	}{
		{name: "defaults", maxResults: defaultMaxResults, depth: SearchDepthBasic, expectErr: false},
		{name: "advanced depth", maxResults: 10, depth: SearchDepthAdvanced, expectErr: false},
		{name: "empty depth", maxResults: 1, depth: "", expectErr: false},
		{name: "zero results", maxResults: 0, depth: SearchDepthBasic, expectErr: true},
		{name: "too many results", maxResults: 21, depth: SearchDepthBasic, expectErr: true},
		{name: "unknown depth", maxResults: 5, depth: "exhaustive", expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			section := NewWebSearchSection()
			section.MaxResults = tt.maxResults
			section.SearchDepth = tt.depth
			err := section.Validate()
			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestWebSearchSection_Reset(t *testing.T) {
	section := NewWebSearchSection()
	section.BaseURL = "https://search.example.com"
	section.MaxResults = 15
	section.SearchDepth = SearchDepthAdvanced
	section.IncludeAnswer = false

	section.Reset()

	assert.Equal(t, "", section.BaseURL)
	assert.Equal(t, defaultMaxResults, section.MaxResults)
	assert.Equal(t, SearchDepthBasic, section.SearchDepth)
	assert.True(t, section.IncludeAnswer)
}

func TestWebSearchSection_Accessors(t *testing.T) {
	section := NewWebSearchSection()

	section.SetBaseURL("https://search.example.com")
	assert.Equal(t, "https://search.example.com", section.GetBaseURL())

	section.SetMaxResults(7)
	assert.Equal(t, 7, section.GetMaxResults())

	// Unset result counts fall back to the default
	section.SetMaxResults(0)
	assert.Equal(t, defaultMaxResults, section.GetMaxResults())

	section.SetSearchDepth(SearchDepthAdvanced)
	assert.Equal(t, SearchDepthAdvanced, section.GetSearchDepth())

	section.SetSearchDepth("")
	assert.Equal(t, SearchDepthBasic, section.GetSearchDepth())

	section.SetIncludeAnswer(false)
	assert.False(t, section.GetIncludeAnswer())
}
