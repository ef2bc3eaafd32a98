// Package gemini implements the llm.Provider interface for Google
// Gemini models using the official google.golang.org/genai SDK.
package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"

	"github.com/quillhq/quill/pkg/llm"
	"github.com/quillhq/quill/pkg/logging"
)

// fallbackModels is served when the live listing is unreachable or no
// credential is configured, so a model picker can still render.
var fallbackModels = []llm.ModelInfo{
	{ID: "gemini-2.5-pro", DisplayName: "Gemini 2.5 Pro"},
	{ID: "gemini-2.5-flash", DisplayName: "Gemini 2.5 Flash"},
	{ID: "gemini-2.5-flash-lite", DisplayName: "Gemini 2.5 Flash Lite"},
	{ID: "gemini-2.0-flash", DisplayName: "Gemini 2.0 Flash"},
}

// Provider is the Gemini adapter. The vendor client is created lazily
// on first use so construction never touches credentials.
type Provider struct {
	creds  llm.CredentialSource
	logger *logging.Logger

	mu     sync.Mutex
	client *genai.Client
}

// NewProvider creates a Gemini provider over the given credential
// source.
func NewProvider(creds llm.CredentialSource) *Provider {
	logger, _ := logging.NewLogger("gemini")
	return &Provider{creds: creds, logger: logger}
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return llm.ProviderGemini
}

// getClient initializes the vendor client on first use.
func (p *Provider) getClient(ctx context.Context) (*genai.Client, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client != nil {
		return p.client, nil
	}

	if p.creds == nil {
		return nil, fmt.Errorf("gemini: %w: no credential source configured", llm.ErrNoCredentials)
	}
	key, err := p.creds.Credential(llm.ProviderGemini)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w: %v", llm.ErrNoCredentials, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: key})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	p.client = client
	return client, nil
}

// Models lists the generation-capable models of the Gemini API,
// degrading to a curated fallback list when the listing is unavailable.
func (p *Provider) Models(ctx context.Context) ([]llm.ModelInfo, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		p.logger.Warnf("Model listing degraded to fallback: %v", err)
		return p.fallback(), nil
	}

	var models []llm.ModelInfo
	for m, err := range client.Models.All(ctx) {
		if err != nil {
			p.logger.Warnf("Model listing failed, serving fallback: %v", err)
			return p.fallback(), nil
		}
		if !supportsGeneration(m) {
			continue
		}
		id := strings.TrimPrefix(m.Name, "models/")
		display := m.DisplayName
		if display == "" {
			display = id
		}
		models = append(models, llm.ModelInfo{
			ID:          id,
			DisplayName: display,
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

// supportsGeneration reports whether a listed model serves the chat
// generation endpoint.
func supportsGeneration(m *genai.Model) bool {
	for _, action := range m.SupportedActions {
		if action == "generateContent" {
			return true
		}
	}
	return false
}

// Chat runs one generation round-trip and normalizes the response.
func (p *Provider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.Response, error) {
	client, err := p.getClient(ctx)
	if err != nil {
		return nil, err
	}

	contents := buildContents(req.Turns)
	config := buildConfig(req)
	p.logger.Debugf("Sending request: model=%s turns=%d tools=%d", req.Model, len(req.Turns), len(req.Tools))

	genResp, err := client.Models.GenerateContent(ctx, req.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	return parseResponse(genResp), nil
}

// buildContents converts conversation turns to Gemini contents.
func buildContents(turns []llm.Turn) []*genai.Content {
	var contents []*genai.Content

	for _, turn := range turns {
		role := "user"
		if turn.Role == llm.RoleModel {
			role = "model"
		}

		var parts []*genai.Part

		if turn.Text != "" {
			parts = append(parts, &genai.Part{Text: turn.Text})
		}
		for _, a := range turn.Attachments {
			parts = append(parts, attachmentPart(a))
		}
		for _, call := range turn.ToolCalls {
			parts = append(parts, &genai.Part{
				FunctionCall: &genai.FunctionCall{
					ID:   call.ID,
					Name: call.Name,
					Args: call.Args,
				},
			})
		}
		for _, result := range turn.ToolResults {
			response := map[string]any{"result": result.Content}
			if result.IsError {
				response = map[string]any{"error": result.Content}
			}
			parts = append(parts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					ID:       result.ID,
					Name:     result.Name,
					Response: response,
				},
			})
		}

		if len(parts) == 0 {
			continue
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	return contents
}

// attachmentPart encodes an attachment as an inline blob. Gemini
// accepts images and PDFs inline; anything else degrades to a textual
// placeholder.
func attachmentPart(a llm.Attachment) *genai.Part {
	if llm.IsImageMIME(a.MIMEType) || a.MIMEType == llm.MIMETypePDF {
		return &genai.Part{
			InlineData: &genai.Blob{MIMEType: a.MIMEType, Data: a.Data},
		}
	}
	return &genai.Part{Text: llm.AttachmentPlaceholder(a)}
}

// buildConfig creates the generation config for a request.
func buildConfig(req *llm.ChatRequest) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{}

	if req.SystemInstruction != "" {
		config.SystemInstruction = &genai.Content{
			Role:  "user",
			Parts: []*genai.Part{{Text: req.SystemInstruction}},
		}
	}

	for _, t := range req.Tools {
		config.Tools = append(config.Tools, &genai.Tool{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  toGenaiSchema(t.Parameters),
				},
			},
		})
	}

	if req.HighReasoning {
		config.ThinkingConfig = &genai.ThinkingConfig{IncludeThoughts: true}
	}

	return config
}

// toGenaiSchema converts a JSON schema map to a Gemini schema.
func toGenaiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return nil
	}

	s := &genai.Schema{}

	if t, ok := schema["type"].(string); ok {
		s.Type = genai.Type(strings.ToUpper(t))
	}
	if desc, ok := schema["description"].(string); ok {
		s.Description = desc
	}
	if props, ok := schema["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			if propMap, ok := prop.(map[string]any); ok {
				s.Properties[name] = toGenaiSchema(propMap)
			}
		}
	}
	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if rs, ok := r.(string); ok {
				s.Required = append(s.Required, rs)
			}
		}
	}
	if required, ok := schema["required"].([]string); ok {
		s.Required = append(s.Required, required...)
	}
	if items, ok := schema["items"].(map[string]any); ok {
		s.Items = toGenaiSchema(items)
	}
	if enum, ok := schema["enum"].([]any); ok {
		for _, e := range enum {
			if es, ok := e.(string); ok {
				s.Enum = append(s.Enum, es)
			}
		}
	}

	return s
}

// parseResponse normalizes a Gemini response into canonical parts.
func parseResponse(genResp *genai.GenerateContentResponse) *llm.Response {
	resp := &llm.Response{FinishReason: llm.FinishUnspecified}

	if len(genResp.Candidates) == 0 {
		if genResp.PromptFeedback != nil &&
			genResp.PromptFeedback.BlockReason == genai.BlockedReasonSafety {
			resp.FinishReason = llm.FinishSafety
		}
		return resp
	}

	candidate := genResp.Candidates[0]
	resp.FinishReason = mapFinishReason(candidate.FinishReason)

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				if part.Thought {
					resp.Parts = append(resp.Parts, llm.ThoughtPart(part.Text))
				} else {
					resp.Parts = append(resp.Parts, llm.TextPart(part.Text))
				}
			}
			if part.InlineData != nil {
				resp.Parts = append(resp.Parts,
					llm.InlineBinaryPart(part.InlineData.MIMEType, part.InlineData.Data))
			}
			if part.ExecutableCode != nil {
				language := strings.ToLower(string(part.ExecutableCode.Language))
				resp.Parts = append(resp.Parts,
					llm.ExecutableCodePart(language, part.ExecutableCode.Code))
			}
			if part.CodeExecutionResult != nil {
				resp.Parts = append(resp.Parts,
					llm.CodeResultPart(part.CodeExecutionResult.Output))
			}
			if part.FunctionCall != nil {
				id := part.FunctionCall.ID
				if id == "" {
					id = llm.NewCallID()
				}
				resp.ToolCalls = append(resp.ToolCalls, llm.ToolCall{
					ID:   id,
					Name: part.FunctionCall.Name,
					Args: part.FunctionCall.Args,
				})
			}
		}
	}

	if genResp.UsageMetadata != nil {
		resp.Usage = &llm.Usage{
			PromptTokens:     int(genResp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(genResp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(genResp.UsageMetadata.TotalTokenCount),
			ThoughtTokens:    int(genResp.UsageMetadata.ThoughtsTokenCount),
		}
	}

	return resp
}

// mapFinishReason converts a Gemini finish reason to the closed set.
func mapFinishReason(reason genai.FinishReason) llm.FinishReason {
	switch reason {
	case genai.FinishReasonStop:
		return llm.FinishStop
	case genai.FinishReasonMaxTokens:
		return llm.FinishMaxTokens
	case genai.FinishReasonSafety:
		return llm.FinishSafety
	case genai.FinishReasonRecitation:
		return llm.FinishRecitation
	case genai.FinishReasonUnspecified, "":
		return llm.FinishUnspecified
	default:
		return llm.FinishOther
	}
}
