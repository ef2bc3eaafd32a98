package websearch

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

type stubCreds struct {
	key string
	err error
}

func (s *stubCreds) Credential(name string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.key, nil
}

func TestSearchRequestShape(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"answer": "Go 1.25 was released in August 2025.",
			"results": [
				{"title": "Go Blog", "url": "https://go.dev/blog", "content": "Older entry.", "score": 0.41},
				{"title": "Release <b>Notes</b>", "url": "https://go.dev/doc", "content": "<p>Go 1.25 adds&nbsp;container-aware GOMAXPROCS.</p>", "score": 0.93}
			]
		}`)
	}))
	defer server.Close()

	client := NewClient(&stubCreds{key: "tvly-test"},
		WithBaseURL(server.URL),
		WithMaxResults(3),
		WithSearchDepth("advanced"),
	)

	resp, err := client.Search(context.Background(), "go 1.25 release")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if gotPath != "/search" {
		t.Errorf("expected path /search, got %s", gotPath)
	}
	if gotAuth != "Bearer tvly-test" {
		t.Errorf("expected bearer auth header, got %q", gotAuth)
	}
	if gotBody["query"] != "go 1.25 release" {
		t.Errorf("expected query in body, got %v", gotBody["query"])
	}
	if gotBody["max_results"] != float64(3) {
		t.Errorf("expected max_results 3, got %v", gotBody["max_results"])
	}
	if gotBody["search_depth"] != "advanced" {
		t.Errorf("expected advanced depth, got %v", gotBody["search_depth"])
	}
	if gotBody["include_answer"] != true {
		t.Errorf("expected include_answer, got %v", gotBody["include_answer"])
	}

	if resp.Answer != "Go 1.25 was released in August 2025." {
		t.Errorf("unexpected answer: %q", resp.Answer)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}
	if resp.Results[0].Score != 0.93 {
		t.Errorf("results must be ordered by descending score, got %+v", resp.Results[0])
	}
	if resp.Results[0].Title != "Release Notes" {
		t.Errorf("expected HTML stripped from title, got %q", resp.Results[0].Title)
	}
	if resp.Results[0].Snippet != "Go 1.25 adds container-aware GOMAXPROCS." {
		t.Errorf("expected sanitized snippet, got %q", resp.Results[0].Snippet)
	}
}

func TestSearchEmptyQuery(t *testing.T) {
	client := NewClient(&stubCreds{key: "tvly-test"})
	if _, err := client.Search(context.Background(), "   "); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestSearchMissingCredential(t *testing.T) {
	client := NewClient(&stubCreds{err: errors.New("credential not found")})
	_, err := client.Search(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error when no credential is available")
	}
	if !strings.Contains(err.Error(), "websearch") {
		t.Errorf("error should name the component, got: %v", err)
	}
}

func TestSearchAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		io.WriteString(w, `{"detail": "rate limited"}`)
	}))
	defer server.Close()

	client := NewClient(&stubCreds{key: "tvly-test"}, WithBaseURL(server.URL))
	_, err := client.Search(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error for non-200 response")
	}
	if !strings.Contains(err.Error(), "API request failed with status 429") {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestStripHTML(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain text untouched", "just a plain snippet", "just a plain snippet"},
		{"tags removed", "<p>Hello <em>world</em></p>", "Hello world"},
		{"entities decoded", "fish &amp; chips", "fish & chips"},
		{"script content dropped", `before<script>alert("x")</script>after`, "before after"},
		{"style content dropped", "<style>p{color:red}</style>visible", "visible"},
		{"whitespace collapsed", "<div>one\n\n  two</div>", "one two"},
		{"nested markup", `<ul><li>first</li><li>second</li></ul>`, "first second"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripHTML(tt.input); got != tt.want {
				t.Errorf("stripHTML(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
