// Package ollama provides an llm.Provider implementation backed by a
// local Ollama daemon.
//
// No API key is involved. The credential source supplies the daemon
// host URL when one is configured; otherwise the default local address
// is used. Model listing reflects whatever is pulled locally.
//
// Example usage:
//
//	provider := ollama.NewProvider(creds)
//
//	resp, err := provider.Chat(ctx, &llm.ChatRequest{
//	    Model: "qwen3:8b",
//	    Turns: []llm.Turn{llm.NewUserTurn("Hello!")},
//	})
package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/ollama/ollama/api"

	"github.com/quillhq/quill/pkg/llm"
	"github.com/quillhq/quill/pkg/llm/parser"
	"github.com/quillhq/quill/pkg/logging"
)

// DefaultHost is the default Ollama daemon address.
const DefaultHost = "http://localhost:11434"

// Provider implements the llm.Provider interface for Ollama.
type Provider struct {
	creds      llm.CredentialSource
	logger     *logging.Logger
	httpClient *http.Client

	mu     sync.Mutex
	client *api.Client
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithHTTPClient sets the HTTP client used for daemon requests.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// NewProvider creates an Ollama provider over the given credential
// source. The daemon connection is established lazily on first use.
func NewProvider(creds llm.CredentialSource, opts ...ProviderOption) *Provider {
	logger, _ := logging.NewLogger("ollama")
	p := &Provider{
		creds:      creds,
		logger:     logger,
		httpClient: http.DefaultClient,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return llm.ProviderOllama
}

// getClient returns the daemon client, creating it on first call.
// A configured credential overrides the default host; a missing
// credential is not an error here since the daemon needs no key.
func (p *Provider) getClient() (*api.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	host := DefaultHost
	if p.creds != nil {
		if configured, err := p.creds.Credential(llm.ProviderOllama); err == nil && configured != "" {
			host = configured
		}
	}

	parsed, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("ollama: invalid host URL %q: %w", host, err)
	}

	p.client = api.NewClient(parsed, p.httpClient)
	return p.client, nil
}

// Models lists the models pulled on the local daemon. When the daemon
// is unreachable the listing degrades to empty rather than failing;
// an absent daemon is a normal condition.
func (p *Provider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	client, err := p.getClient()
	if err != nil {
		p.logger.Warnf("Model listing unavailable: %v", err)
		return nil, nil
	}

	listing, err := client.List(ctx)
	if err != nil {
		p.logger.Warnf("Model listing failed, daemon unreachable: %v", err)
		return nil, nil
	}

	models := make([]llm.ModelInfo, 0, len(listing.Models))
	for _, m := range listing.Models {
		models = append(models, llm.ModelInfo{
			ID:          m.Name,
			DisplayName: m.Name,
			Provider:    p.Name(),
		})
	}
	return models, nil
}

// Chat sends a non-streaming chat request to the daemon.
func (p *Provider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	client, err := p.getClient()
	if err != nil {
		return nil, err
	}

	stream := false
	chatReq := &api.ChatRequest{
		Model:    req.Model,
		Messages: buildMessages(req),
		Stream:   &stream,
	}
	if len(req.Tools) > 0 {
		chatReq.Tools = buildTools(req.Tools)
	}
	if req.HighReasoning {
		chatReq.Think = &api.ThinkValue{Value: true}
	}

	p.logger.Debugf("Sending request: model=%s turns=%d tools=%d", req.Model, len(req.Turns), len(req.Tools))

	// With streaming disabled the callback fires exactly once,
	// carrying the complete response.
	var final api.ChatResponse
	err = client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		final = resp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ollama chat failed: %w", err)
	}

	return parseResponse(&final), nil
}

// buildMessages converts the request turns to daemon messages.
func buildMessages(req *llm.ChatRequest) []api.Message {
	var messages []api.Message

	if req.SystemInstruction != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.SystemInstruction})
	}

	for _, turn := range req.Turns {
		switch {
		case len(turn.ToolCalls) > 0:
			msg := api.Message{Role: "assistant", Content: turn.Text}
			for _, call := range turn.ToolCalls {
				msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
					Function: api.ToolCallFunction{
						Name:      call.Name,
						Arguments: api.ToolCallFunctionArguments(call.Args),
					},
				})
			}
			messages = append(messages, msg)
		case len(turn.ToolResults) > 0:
			for _, result := range turn.ToolResults {
				content := result.Content
				if result.IsError {
					content = "Error: " + content
				}
				messages = append(messages, api.Message{Role: "tool", Content: content})
			}
		case turn.Role == llm.RoleModel:
			messages = append(messages, api.Message{Role: "assistant", Content: turn.Text})
		default:
			messages = append(messages, userMessage(turn))
		}
	}

	return messages
}

// userMessage builds a user message, inlining image attachments and
// degrading everything else to a placeholder.
func userMessage(turn llm.Turn) api.Message {
	msg := api.Message{Role: "user", Content: turn.Text}
	for _, a := range turn.Attachments {
		if llm.IsImageMIME(a.MIMEType) {
			msg.Images = append(msg.Images, api.ImageData(a.Data))
			continue
		}
		if msg.Content != "" {
			msg.Content += "\n\n"
		}
		msg.Content += llm.AttachmentPlaceholder(a)
	}
	return msg
}

// buildTools converts neutral tool definitions to the daemon's typed
// tool declarations.
func buildTools(tools []llm.ToolDefinition) []api.Tool {
	out := make([]api.Tool, 0, len(tools))
	for _, t := range tools {
		out = append(out, api.Tool{
			Type: "function",
			Function: api.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toToolParameters(t.Parameters),
			},
		})
	}
	return out
}

// toToolParameters converts a JSON schema map to the daemon's typed
// parameter declaration.
func toToolParameters(schema map[string]any) api.ToolFunctionParameters {
	params := api.ToolFunctionParameters{
		Type:       "object",
		Properties: map[string]api.ToolProperty{},
	}
	if schema == nil {
		return params
	}

	if t, ok := schema["type"].(string); ok && t != "" {
		params.Type = t
	}

	switch required := schema["required"].(type) {
	case []string:
		params.Required = required
	case []any:
		for _, name := range required {
			if s, ok := name.(string); ok {
				params.Required = append(params.Required, s)
			}
		}
	}

	if props, ok := schema["properties"].(map[string]any); ok {
		for name, value := range props {
			if prop, ok := value.(map[string]any); ok {
				params.Properties[name] = toToolProperty(prop)
			}
		}
	}

	return params
}

func toToolProperty(prop map[string]any) api.ToolProperty {
	out := api.ToolProperty{}

	switch t := prop["type"].(type) {
	case string:
		out.Type = api.PropertyType{t}
	case []string:
		out.Type = api.PropertyType(t)
	case []any:
		for _, v := range t {
			if s, ok := v.(string); ok {
				out.Type = append(out.Type, s)
			}
		}
	}

	if desc, ok := prop["description"].(string); ok {
		out.Description = desc
	}
	if enum, ok := prop["enum"].([]any); ok {
		out.Enum = enum
	}
	if items, ok := prop["items"]; ok {
		out.Items = items
	}

	return out
}

// parseResponse normalizes a daemon response. Models with native
// thinking report it on a dedicated field; others inline it into the
// content as think spans.
func parseResponse(resp *api.ChatResponse) *llm.Response {
	out := &llm.Response{FinishReason: mapDoneReason(resp.DoneReason)}

	if resp.Message.Thinking != "" {
		out.Parts = append(out.Parts, llm.ThoughtPart(resp.Message.Thinking))
	}
	if resp.Message.Content != "" {
		thinking, message := parser.Extract(resp.Message.Content)
		if thinking != "" {
			out.Parts = append(out.Parts, llm.ThoughtPart(thinking))
		}
		if message != "" {
			out.Parts = append(out.Parts, llm.TextPart(message))
		}
	}

	for _, call := range resp.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:   llm.NewCallID(),
			Name: call.Function.Name,
			Args: map[string]any(call.Function.Arguments),
		})
	}

	if resp.PromptEvalCount > 0 || resp.EvalCount > 0 {
		out.Usage = &llm.Usage{
			PromptTokens:     resp.PromptEvalCount,
			CompletionTokens: resp.EvalCount,
			TotalTokens:      resp.PromptEvalCount + resp.EvalCount,
		}
	}

	return out
}

// mapDoneReason converts a daemon done reason to the closed set.
func mapDoneReason(reason string) llm.FinishReason {
	switch reason {
	case "stop":
		return llm.FinishStop
	case "length":
		return llm.FinishMaxTokens
	case "":
		return llm.FinishUnspecified
	default:
		return llm.FinishOther
	}
}
