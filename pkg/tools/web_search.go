package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillhq/quill/pkg/llm"
	"github.com/quillhq/quill/pkg/logging"
	"github.com/quillhq/quill/pkg/websearch"
)

// Searcher runs web searches for the search toolset.
type Searcher interface {
	Search(ctx context.Context, query string) (*websearch.Response, error)
}

// WebSearchArgs are the arguments for the web_search tool.
type WebSearchArgs struct {
	Query string `json:"query" jsonschema:"required,description=The search query."`
}

// SearchTools is the web toolset bound to a search client.
type SearchTools struct {
	client Searcher
	logger *logging.Logger
}

// NewSearchTools creates the web toolset over the given search client.
func NewSearchTools(client Searcher) *SearchTools {
	logger, _ := logging.NewLogger("tools")
	return &SearchTools{client: client, logger: logger}
}

func webSearchDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        string(NameWebSearch),
		Description: "Search the web for current information. Returns a synthesized answer when available plus ranked result snippets.",
		Parameters:  reflectSchema[WebSearchArgs](),
	}
}

// Definitions returns the declaration for the single search operation.
func (t *SearchTools) Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{webSearchDefinition()}
}

// Dispatch executes one tool call and returns its result.
func (t *SearchTools) Dispatch(ctx context.Context, call llm.ToolCall) llm.ToolResult {
	t.logger.Debugf("Executing tool: %s", call.Name)

	switch Name(call.Name) {
	case NameWebSearch:
		var args WebSearchArgs
		if err := mapToStruct(call.Args, &args); err != nil {
			return errorResult(call, fmt.Errorf("invalid arguments: %w", err))
		}
		if args.Query == "" {
			return errorResult(call, fmt.Errorf("missing required parameter: query"))
		}
		resp, err := t.client.Search(ctx, args.Query)
		if err != nil {
			return errorResult(call, err)
		}
		return successResult(call, formatSearchResponse(resp))
	default:
		return errorResult(call, &UnknownToolError{Name: call.Name})
	}
}

// formatSearchResponse renders a search response as text for the
// model.
func formatSearchResponse(resp *websearch.Response) string {
	var b strings.Builder

	if resp.Answer != "" {
		b.WriteString("Answer: ")
		b.WriteString(resp.Answer)
		b.WriteString("\n\n")
	}

	if len(resp.Results) == 0 {
		if b.Len() == 0 {
			return "No results found."
		}
		return strings.TrimRight(b.String(), "\n")
	}

	b.WriteString("Results:\n")
	for i, r := range resp.Results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, r.Title, r.URL)
		if r.Snippet != "" {
			fmt.Fprintf(&b, "   %s\n", r.Snippet)
		}
	}

	return strings.TrimRight(b.String(), "\n")
}
