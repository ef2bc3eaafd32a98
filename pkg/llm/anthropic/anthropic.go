// Package anthropic implements the llm.Provider interface for Claude
// models using the official Anthropic Go SDK.
package anthropic

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/quillhq/quill/pkg/llm"
	"github.com/quillhq/quill/pkg/logging"
)

const (
	// defaultMaxTokens caps the response length. Required by the API.
	defaultMaxTokens = 8192

	// Extended thinking needs headroom above the thinking budget, and
	// the API requires temperature 1.0 while thinking is enabled.
	thinkingMaxTokens   = 16384
	thinkingBudget      = 8192
	thinkingTemperature = 1.0
)

// curatedModels is the static catalog. The Messages API accepts the
// dated alias IDs below; there is no listing to refresh them from.
var curatedModels = []llm.ModelInfo{
	{ID: "claude-opus-4-1", DisplayName: "Claude Opus 4.1"},
	{ID: "claude-sonnet-4-5", DisplayName: "Claude Sonnet 4.5"},
	{ID: "claude-sonnet-4-0", DisplayName: "Claude Sonnet 4"},
	{ID: "claude-3-7-sonnet-latest", DisplayName: "Claude Sonnet 3.7"},
	{ID: "claude-3-5-haiku-latest", DisplayName: "Claude Haiku 3.5"},
}

// Provider is the Anthropic adapter. The vendor client is created
// lazily on first use.
type Provider struct {
	creds  llm.CredentialSource
	logger *logging.Logger

	mu     sync.Mutex
	client *anthropic.Client
}

// NewProvider creates an Anthropic provider over the given credential
// source.
func NewProvider(creds llm.CredentialSource) *Provider {
	logger, _ := logging.NewLogger("anthropic")
	return &Provider{creds: creds, logger: logger}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return llm.ProviderAnthropic
}

func (p *Provider) getClient() (*anthropic.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	if p.creds == nil {
		return nil, fmt.Errorf("anthropic: %w: no credential source configured", llm.ErrNoCredentials)
	}
	key, err := p.creds.Credential(llm.ProviderAnthropic)
	if err != nil {
		return nil, fmt.Errorf("anthropic: %w: %v", llm.ErrNoCredentials, err)
	}

	client := anthropic.NewClient(option.WithAPIKey(key))
	p.client = &client
	return p.client, nil
}

// Models returns the curated Claude catalog.
func (p *Provider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	models := make([]llm.ModelInfo, len(curatedModels))
	copy(models, curatedModels)
	for i := range models {
		models[i].Provider = p.Name()
	}
	return models, nil
}

// Chat runs one Messages round-trip and normalizes the response.
func (p *Provider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	client, err := p.getClient()
	if err != nil {
		return nil, err
	}

	params := buildParams(req)
	p.logger.Debugf("Sending request: model=%s turns=%d tools=%d", req.Model, len(req.Turns), len(req.Tools))

	msg, err := client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic request failed: %w", err)
	}

	return parseMessage(msg), nil
}

// buildParams assembles the Messages API request.
func buildParams(req *llm.ChatRequest) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: defaultMaxTokens,
		Messages:  buildMessages(req.Turns),
	}

	if req.SystemInstruction != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemInstruction}}
	}

	for _, t := range req.Tools {
		params.Tools = append(params.Tools, toolParam(t))
	}

	// Extended thinking requires replaying signed thinking blocks with
	// any assistant tool_use message. Text-only history cannot carry
	// those, so thinking stays off for the resolution rounds after
	// tools have run.
	if req.HighReasoning && !hasToolResults(req.Turns) {
		params.MaxTokens = thinkingMaxTokens
		params.Thinking = anthropic.ThinkingConfigParamOfEnabled(thinkingBudget)
		params.Temperature = anthropic.Float(thinkingTemperature)
	}

	return params
}

func hasToolResults(turns []llm.Turn) bool {
	for _, turn := range turns {
		if len(turn.ToolResults) > 0 {
			return true
		}
	}
	return false
}

// buildMessages converts conversation turns to Anthropic messages.
func buildMessages(turns []llm.Turn) []anthropic.MessageParam {
	var messages []anthropic.MessageParam

	for _, turn := range turns {
		var blocks []anthropic.ContentBlockParamUnion

		if turn.Text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(turn.Text))
		}
		for _, a := range turn.Attachments {
			blocks = append(blocks, attachmentBlock(a))
		}
		for _, call := range turn.ToolCalls {
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    call.ID,
					Name:  call.Name,
					Input: call.Args,
				},
			})
		}
		for _, result := range turn.ToolResults {
			content := result.Content
			if content == "" {
				// The API rejects empty tool results.
				content = "(no output)"
			}
			blocks = append(blocks, anthropic.ContentBlockParamUnion{
				OfToolResult: &anthropic.ToolResultBlockParam{
					ToolUseID: result.ID,
					IsError:   anthropic.Bool(result.IsError),
					Content: []anthropic.ToolResultBlockParamContentUnion{
						{OfText: &anthropic.TextBlockParam{Text: content}},
					},
				},
			})
		}

		if len(blocks) == 0 {
			continue
		}

		if turn.Role == llm.RoleModel {
			messages = append(messages, anthropic.NewAssistantMessage(blocks...))
		} else {
			messages = append(messages, anthropic.NewUserMessage(blocks...))
		}
	}

	return messages
}

// attachmentBlock encodes an attachment as an image block where the
// format allows, degrading everything else to a textual placeholder.
func attachmentBlock(a llm.Attachment) anthropic.ContentBlockParamUnion {
	if llm.IsImageMIME(a.MIMEType) {
		return anthropic.NewImageBlockBase64(a.MIMEType, base64.StdEncoding.EncodeToString(a.Data))
	}
	return anthropic.NewTextBlock(llm.AttachmentPlaceholder(a))
}

// toolParam converts a neutral tool definition to the Anthropic tool
// declaration shape.
func toolParam(t llm.ToolDefinition) anthropic.ToolUnionParam {
	schema := anthropic.ToolInputSchemaParam{}
	if props, ok := t.Parameters["properties"]; ok {
		schema.Properties = props
	}
	schema.Required = requiredNames(t.Parameters)

	tool := anthropic.ToolUnionParamOfTool(schema, t.Name)
	if t.Description != "" {
		tool.OfTool.Description = anthropic.String(t.Description)
	}
	return tool
}

// requiredNames pulls the required-property list out of a JSON schema
// map, tolerating both decoded and hand-built forms.
func requiredNames(parameters map[string]any) []string {
	switch required := parameters["required"].(type) {
	case []string:
		return required
	case []any:
		var names []string
		for _, r := range required {
			if name, ok := r.(string); ok {
				names = append(names, name)
			}
		}
		return names
	default:
		return nil
	}
}

// parseMessage normalizes an Anthropic message into canonical parts.
func parseMessage(msg *anthropic.Message) *llm.Response {
	resp := &llm.Response{FinishReason: mapStopReason(msg.StopReason)}

	for _, block := range msg.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			resp.Parts = append(resp.Parts, llm.TextPart(b.Text))
		case anthropic.ThinkingBlock:
			resp.Parts = append(resp.Parts, llm.ThoughtPart(b.Thinking))
		case anthropic.ToolUseBlock:
			var args map[string]any
			if err := json.Unmarshal(b.Input, &args); err != nil {
				args = map[string]any{}
			}
			id := b.ID
			if id == "" {
				id = llm.NewCallID()
			}
			resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
				ID:   id,
				Name: b.Name,
				Args: args,
			})
		}
	}

	resp.Usage = &llm.Usage{
		PromptTokens:     int(msg.Usage.InputTokens),
		CompletionTokens: int(msg.Usage.OutputTokens),
		TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
	}

	return resp
}

// mapStopReason converts an Anthropic stop reason to the closed set.
func mapStopReason(reason anthropic.StopReason) llm.FinishReason {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence, anthropic.StopReasonToolUse:
		return llm.FinishStop
	case anthropic.StopReasonMaxTokens:
		return llm.FinishMaxTokens
	case anthropic.StopReasonRefusal:
		return llm.FinishSafety
	case "":
		return llm.FinishUnspecified
	default:
		return llm.FinishOther
	}
}
