// Package openai provides an OpenAI-compatible llm.Provider
// implementation.
//
// The adapter targets the standard chat completions surface, so it
// works against api.openai.com as well as Azure OpenAI and local
// OpenAI-compatible servers via a custom base URL.
//
// Example usage:
//
//	provider := openai.NewProvider(creds,
//	    openai.WithBaseURL("http://localhost:8080/v1"),
//	)
//
//	resp, err := provider.Chat(ctx, &llm.ChatRequest{
//	    Model: "gpt-4o",
//	    Turns: []llm.Turn{llm.NewUserTurn("Hello!")},
//	})
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"

	"github.com/openai/openai-go"

	"github.com/quillhq/quill/pkg/llm"
	"github.com/quillhq/quill/pkg/llm/parser"
	"github.com/quillhq/quill/pkg/logging"
)

const (
	// DefaultBaseURL is the default OpenAI API base URL
	DefaultBaseURL = "https://api.openai.com/v1"
)

// fallbackModels is served when the live listing fails or no credential
// is configured.
var fallbackModels = []llm.ModelInfo{
	{ID: "gpt-5", DisplayName: "GPT-5"},
	{ID: "gpt-5-mini", DisplayName: "GPT-5 mini"},
	{ID: "gpt-4.1", DisplayName: "GPT-4.1"},
	{ID: "gpt-4o", DisplayName: "GPT-4o"},
	{ID: "o3", DisplayName: "o3"},
}

// Provider implements the llm.Provider interface for OpenAI-compatible
// APIs. Requests go over raw HTTP so the adapter stays compatible with
// servers that deviate slightly from the official SDK's expectations;
// message parameters still use the SDK's typed helpers.
type Provider struct {
	creds      llm.CredentialSource
	logger     *logging.Logger
	httpClient *http.Client
	baseURL    string

	mu     sync.Mutex
	apiKey string
}

// ProviderOption is a function that configures a Provider.
type ProviderOption func(*Provider)

// WithBaseURL sets a custom base URL for OpenAI-compatible APIs.
// This enables using Azure OpenAI, local models, or other compatible
// services.
func WithBaseURL(baseURL string) ProviderOption {
	return func(p *Provider) {
		p.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithHTTPClient sets the HTTP client used for API requests.
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// NewProvider creates an OpenAI provider over the given credential
// source.
//
// If no base URL is provided via WithBaseURL, the OPENAI_BASE_URL
// environment variable is checked before falling back to the default.
// The API key itself resolves lazily on first use.
func NewProvider(creds llm.CredentialSource, opts ...ProviderOption) *Provider {
	logger, _ := logging.NewLogger("openai")
	p := &Provider{
		creds:      creds,
		logger:     logger,
		httpClient: &http.Client{},
		baseURL:    DefaultBaseURL,
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.baseURL == DefaultBaseURL {
		if envBaseURL := os.Getenv("OPENAI_BASE_URL"); envBaseURL != "" {
			p.baseURL = strings.TrimRight(envBaseURL, "/")
		}
	}

	return p
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return llm.ProviderOpenAI
}

// BaseURL returns the base URL being used for API requests.
func (p *Provider) BaseURL() string {
	return p.baseURL
}

func (p *Provider) getKey() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.apiKey != "" {
		return p.apiKey, nil
	}

	if p.creds == nil {
		return "", fmt.Errorf("openai: %w: no credential source configured", llm.ErrNoCredentials)
	}
	key, err := p.creds.Credential(llm.ProviderOpenAI)
	if err != nil {
		return "", fmt.Errorf("openai: %w: %v", llm.ErrNoCredentials, err)
	}
	p.apiKey = key
	return key, nil
}

// Models queries the live model listing, degrading to a curated
// fallback list when the endpoint or credential is unavailable. Against
// the default base URL the listing is filtered to chat models; custom
// backends list whatever they serve.
func (p *Provider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	key, err := p.getKey()
	if err != nil {
		p.logger.Warnf("Model listing degraded to fallback: %v", err)
		return p.fallback(), nil
	}

	req, err := http.NewRequestWithContext(ctx, "GET", p.baseURL+"/models", nil)
	if err != nil {
		return p.fallback(), nil
	}
	req.Header.Set("Authorization", "Bearer "+key)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.logger.Warnf("Model listing failed, serving fallback: %v", err)
		return p.fallback(), nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		p.logger.Warnf("Model listing returned status %d, serving fallback", resp.StatusCode)
		return p.fallback(), nil
	}

	var listing struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return p.fallback(), nil
	}

	var models []llm.ModelInfo
	for _, m := range listing.Data {
		if p.baseURL == DefaultBaseURL && !isChatModel(m.ID) {
			continue
		}
		models = append(models, llm.ModelInfo{
			ID:          m.ID,
			DisplayName: m.ID,
			Provider:    p.Name(),
		})
	}

	if len(models) == 0 {
		return p.fallback(), nil
	}
	return models, nil
}

func (p *Provider) fallback() []llm.ModelInfo {
	models := make([]llm.ModelInfo, len(fallbackModels))
	copy(models, fallbackModels)
	for i := range models {
		models[i].Provider = p.Name()
	}
	return models
}

// isChatModel filters the official listing down to the chat families;
// the endpoint also lists embeddings, audio and image models.
func isChatModel(id string) bool {
	return strings.HasPrefix(id, "gpt") ||
		strings.HasPrefix(id, "chatgpt") ||
		isReasoningSeries(id)
}

// isReasoningSeries matches the o1/o3/o4-mini style model IDs.
func isReasoningSeries(id string) bool {
	if len(id) < 2 || id[0] != 'o' || id[1] < '0' || id[1] > '9' {
		return false
	}
	return len(id) == 2 || id[2] == '-' || id[2] == '.'
}

// supportsReasoningEffort reports whether the model accepts the
// reasoning_effort parameter. Sending it to other models is rejected.
func supportsReasoningEffort(model string) bool {
	return isReasoningSeries(model) || strings.HasPrefix(model, "gpt-5")
}

// Chat sends a non-streaming chat completion request and normalizes
// the response.
func (p *Provider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	key, err := p.getKey()
	if err != nil {
		return nil, err
	}

	reqBody := map[string]interface{}{
		"model":    req.Model,
		"messages": buildMessages(req),
	}
	if len(req.Tools) > 0 {
		reqBody["tools"] = buildTools(req.Tools)
	}
	if req.HighReasoning && supportsReasoningEffort(req.Model) {
		reqBody["reasoning_effort"] = "high"
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := p.baseURL + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+key)

	p.logger.Debugf("Sending request: model=%s turns=%d tools=%d", req.Model, len(req.Turns), len(req.Tools))

	resp, err := p.httpClient.Do(httpReq)
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

	return parseCompletion(resp.Body)
}

// buildMessages converts the request to chat completion message
// parameters. Plain turns use the SDK's typed helpers; the assistant
// tool-call replay has no non-streaming helper, so it is built as a
// raw object in the same wire shape.
func buildMessages(req *llm.ChatRequest) []interface{} {
	var messages []interface{}

	if req.SystemInstruction != "" {
		messages = append(messages, openai.SystemMessage(req.SystemInstruction))
	}

	for _, turn := range req.Turns {
		switch {
		case len(turn.ToolCalls) > 0:
			messages = append(messages, assistantToolCallMessage(turn))
		case len(turn.ToolResults) > 0:
			for _, result := range turn.ToolResults {
				messages = append(messages, openai.ToolMessage(result.Content, result.ID))
			}
		case turn.Role == llm.RoleModel:
			messages = append(messages, openai.AssistantMessage(turn.Text))
		default:
			messages = append(messages, openai.UserMessage(userText(turn)))
		}
	}

	return messages
}

// userText appends attachment placeholders to a user turn's text.
// The chat completions wire format used here is text-only, so binary
// attachments always degrade.
func userText(turn llm.Turn) string {
	text := turn.Text
	for _, a := range turn.Attachments {
		if text != "" {
			text += "\n\n"
		}
		text += llm.AttachmentPlaceholder(a)
	}
	return text
}

// assistantToolCallMessage rebuilds the assistant message that carried
// a batch of tool calls.
func assistantToolCallMessage(turn llm.Turn) map[string]interface{} {
	calls := make([]map[string]interface{}, 0, len(turn.ToolCalls))
	for _, call := range turn.ToolCalls {
		args, err := json.Marshal(call.Args)
		if err != nil {
			args = []byte("{}")
		}
		calls = append(calls, map[string]interface{}{
			"id":   call.ID,
			"type": "function",
			"function": map[string]interface{}{
				"name":      call.Name,
				"arguments": string(args),
			},
		})
	}

	msg := map[string]interface{}{
		"role":       "assistant",
		"tool_calls": calls,
	}
	if turn.Text != "" {
		msg["content"] = turn.Text
	}
	return msg
}

// buildTools converts neutral tool definitions to the function-tool
// declaration shape.
func buildTools(tools []llm.ToolDefinition) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(tools))
	for _, t := range tools {
		out = append(out, map[string]interface{}{
			"type": "function",
			"function": map[string]interface{}{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  t.Parameters,
			},
		})
	}
	return out
}

// parseCompletion decodes a chat completion body and normalizes it.
func parseCompletion(body io.Reader) (*llm.Response, error) {
	var completion struct {
		Choices []struct {
			Message struct {
				Content          string `json:"content"`
				ReasoningContent string `json:"reasoning_content"`
				ToolCalls        []struct {
					ID       string `json:"id"`
					Function struct {
						Name      string `json:"name"`
						Arguments string `json:"arguments"`
					} `json:"function"`
				} `json:"tool_calls"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage *struct {
			PromptTokens            int `json:"prompt_tokens"`
			CompletionTokens        int `json:"completion_tokens"`
			TotalTokens             int `json:"total_tokens"`
			CompletionTokensDetails *struct {
				ReasoningTokens int `json:"reasoning_tokens"`
			} `json:"completion_tokens_details"`
		} `json:"usage"`
	}

	if err := json.NewDecoder(body).Decode(&completion); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	resp := &llm.Response{FinishReason: llm.FinishUnspecified}

	if len(completion.Choices) > 0 {
		choice := completion.Choices[0]
		resp.FinishReason = mapFinishReason(choice.FinishReason)

		// Compatible backends inline reasoning into the content as
		// <think> spans; others report it separately.
		if choice.Message.ReasoningContent != "" {
			resp.Parts = append(resp.Parts, llm.ThoughtPart(choice.Message.ReasoningContent))
		}
		if choice.Message.Content != "" {
			thinking, message := parser.Extract(choice.Message.Content)
			if thinking != "" {
				resp.Parts = append(resp.Parts, llm.ThoughtPart(thinking))
			}
			if message != "" {
				resp.Parts = append(resp.Parts, llm.TextPart(message))
			}
		}

		for _, call := range choice.Message.ToolCalls {
			var args map[string]any
			if err := json.Unmarshal([]byte(call.Function.Arguments), &args); err != nil {
				args = map[string]any{}
			}
			id := call.ID
			if id == "" {
				id = llm.NewCallID()
			}
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID:   id,
				Name: call.Function.Name,
				Args: args,
			})
		}
	}

	if completion.Usage != nil {
		usage := &llm.Usage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		}
		if completion.Usage.CompletionTokensDetails != nil {
			usage.ThoughtTokens = completion.Usage.CompletionTokensDetails.ReasoningTokens
		}
		resp.Usage = usage
	}

	return resp, nil
}

// mapFinishReason converts a chat completion finish reason to the
// closed set.
func mapFinishReason(reason string) llm.FinishReason {
	switch reason {
	case "stop", "tool_calls", "function_call":
		return llm.FinishStop
	case "length":
		return llm.FinishMaxTokens
	case "content_filter":
		return llm.FinishSafety
	case "":
		return llm.FinishUnspecified
	default:
		return llm.FinishOther
	}
}
