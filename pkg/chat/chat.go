// Package chat runs one logical conversational turn against a chosen
// provider: it sends the prompt, resolves any tool calls the model
// emits, and returns the final display text.
//
// Example usage:
//
//	orch := chat.NewOrchestrator(registry,
//	    chat.WithNoteTools(tools.NewNoteTools(v)),
//	    chat.WithSearchTools(tools.NewSearchTools(search)),
//	    chat.WithConfigSource(v),
//	)
//
//	text, err := orch.Chat(ctx, chat.Request{
//	    Prompt: "Summarize my meeting notes from this week",
//	    Model:  "gemini-2.5-flash",
//	    Mode:   chat.ModeDocument,
//	})
package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/quillhq/quill/pkg/llm"
	"github.com/quillhq/quill/pkg/llm/tokenizer"
	"github.com/quillhq/quill/pkg/logging"
)

// maxToolRounds caps how many tool-resolution rounds a single turn may
// run. With the initial request this bounds a turn at six provider
// round-trips; hitting the cap falls through to output extraction on
// whatever the last response contained.
const maxToolRounds = 5

// Mode selects which capability profile a turn runs under. The two
// profiles are a hard partition: document tools are never exposed in
// web mode and vice versa.
type Mode string

const (
	// ModeDocument binds the turn to the vault note tools and sources
	// its system instruction from the config document when present.
	ModeDocument Mode = "document"

	// ModeWeb binds the turn to the web search tool only.
	ModeWeb Mode = "web"
)

// Toolset is one mode's tool surface: the declarations handed to the
// provider and the dispatcher that executes calls against them.
type Toolset interface {
	Definitions() []llm.ToolDefinition
	Dispatch(ctx context.Context, call llm.ToolCall) llm.ToolResult
}

// DocumentReader reads a document from the vault by path. It is the
// slice of the vault the orchestrator needs to load its config
// document.
type DocumentReader interface {
	Read(path string) (string, error)
}

// Options are per-turn behavior switches.
type Options struct {
	// HighReasoning asks the provider to surface intermediate thought
	// content alongside the final answer, where supported.
	HighReasoning bool
}

// Request describes one submitted turn.
type Request struct {
	// Prompt is the user's message text. Required.
	Prompt string

	// History is the prior conversation, text turns only. The caller
	// owns it; the orchestrator never mutates or appends to it.
	History []llm.Turn

	// Context is optional extra text (active-note content, template
	// content) prepended to the outgoing prompt text. It is attached
	// to the newest user message only, never inserted into stored
	// history.
	Context string

	// Model is the model ID the turn runs against. Routing to a
	// provider happens through the registry.
	Model string

	// Mode selects the capability profile. Empty defaults to
	// ModeDocument.
	Mode Mode

	// Attachments are embedded alongside the prompt on the first
	// outgoing request of the turn.
	Attachments []llm.Attachment

	Options Options

	// OnToolNotify, when set, receives a human-readable progress
	// message before each tool dispatch. Side effect only; it never
	// changes control flow.
	OnToolNotify func(message string)

	// OnMetadata, when set, receives the token usage of each provider
	// response, separate from the returned text. Responses without a
	// usage block report a tokenizer estimate marked Estimated.
	OnMetadata func(usage llm.Usage)
}

// Orchestrator executes turns. It is safe for concurrent use as long
// as the registered toolsets are.
type Orchestrator struct {
	registry   *llm.Registry
	notes      Toolset
	search     Toolset
	docs       DocumentReader
	configPath string
	tok        *tokenizer.Tokenizer
	logger     *logging.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithNoteTools sets the document-mode toolset.
func WithNoteTools(ts Toolset) Option {
	return func(o *Orchestrator) {
		o.notes = ts
	}
}

// WithSearchTools sets the web-mode toolset.
func WithSearchTools(ts Toolset) Option {
	return func(o *Orchestrator) {
		o.search = ts
	}
}

// WithConfigSource sets the reader the config document is loaded
// through, normally the vault itself.
func WithConfigSource(reader DocumentReader) Option {
	return func(o *Orchestrator) {
		o.docs = reader
	}
}

// WithConfigDocument overrides the vault path of the config document.
func WithConfigDocument(path string) Option {
	return func(o *Orchestrator) {
		o.configPath = path
	}
}

// NewOrchestrator creates an orchestrator over the given provider
// registry. Modes without a registered toolset run as plain chat.
func NewOrchestrator(registry *llm.Registry, opts ...Option) *Orchestrator {
	logger, _ := logging.NewLogger("chat")
	o := &Orchestrator{
		registry:   registry,
		configPath: DefaultConfigDocument,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(o)
	}

	tok, err := tokenizer.New()
	if err != nil {
		o.logger.Warnf("Tokenizer unavailable, usage estimates disabled: %v", err)
	} else {
		o.tok = tok
	}
	return o
}

// Chat executes one turn and returns the final display text. Provider
// and routing failures are returned as errors; blocked or empty model
// responses come back as explanatory text, never as an error.
func (o *Orchestrator) Chat(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return "", fmt.Errorf("prompt is empty")
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeDocument
	}
	if mode != ModeDocument && mode != ModeWeb {
		return "", fmt.Errorf("unknown chat mode %q", mode)
	}

	provider, err := o.registry.Resolve(req.Model)
	if err != nil {
		return "", err
	}

	toolset, instruction := o.profile(mode)
	chatReq := o.buildRequest(&req, toolset, instruction)

	o.logger.Infof("Starting turn: model=%s mode=%s history=%d attachments=%d",
		req.Model, mode, len(req.History), len(req.Attachments))

	resp, err := provider.Chat(ctx, chatReq)
	if err != nil {
		return "", err
	}
	o.reportUsage(&req, chatReq, resp)

	// Attachments ride the first request only.
	chatReq.Turns[len(chatReq.Turns)-1].Attachments = nil

	if toolset != nil {
		for round := 1; round <= maxToolRounds && resp.HasToolCalls(); round++ {
			o.logger.Debugf("Resolving %d tool call(s), round %d", len(resp.ToolCalls), round)

			callTurn := llm.NewToolCallTurn(resp.ToolCalls)
			callTurn.Text = resp.Text()
			results := o.dispatchCalls(ctx, toolset, resp.ToolCalls, req.OnToolNotify)
			chatReq.Turns = append(chatReq.Turns, callTurn, llm.NewToolResultTurn(results))

			resp, err = provider.Chat(ctx, chatReq)
			if err != nil {
				return "", err
			}
			o.reportUsage(&req, chatReq, resp)
		}
		if resp.HasToolCalls() {
			o.logger.Warnf("Tool resolution cap of %d rounds reached, extracting last response", maxToolRounds)
		}
	}

	return renderResponse(resp, req.Options.HighReasoning), nil
}

// profile returns the toolset and system instruction for a mode.
func (o *Orchestrator) profile(mode Mode) (Toolset, string) {
	if mode == ModeWeb {
		return o.search, defaultWebInstruction
	}
	return o.notes, o.documentInstruction()
}

// buildRequest assembles the initial provider request: prior history
// plus the new user turn carrying context, prompt and attachments.
func (o *Orchestrator) buildRequest(req *Request, toolset Toolset, instruction string) *llm.ChatRequest {
	turns := make([]llm.Turn, 0, len(req.History)+1)
	turns = append(turns, req.History...)

	userTurn := llm.NewUserTurn(outgoingText(req.Context, req.Prompt))
	userTurn.Attachments = req.Attachments
	turns = append(turns, userTurn)

	chatReq := &llm.ChatRequest{
		Model:             req.Model,
		SystemInstruction: instruction,
		Turns:             turns,
		HighReasoning:     req.Options.HighReasoning,
	}
	if toolset != nil {
		chatReq.Tools = toolset.Definitions()
	}
	return chatReq
}

// dispatchCalls executes a batch of tool calls sequentially, in the
// order the provider emitted them. Every call produces exactly one
// result; failures arrive as error results, not as Go errors.
func (o *Orchestrator) dispatchCalls(ctx context.Context, toolset Toolset, calls []llm.ToolCall, notify func(string)) []llm.ToolResult {
	results := make([]llm.ToolResult, 0, len(calls))
	for _, call := range calls {
		if notify != nil {
			notify(fmt.Sprintf("Executing %s...", call.Name))
		}
		results = append(results, toolset.Dispatch(ctx, call))
	}
	return results
}

// reportUsage forwards a response's token usage to the metadata
// callback, substituting a tokenizer estimate when the provider
// reported none.
func (o *Orchestrator) reportUsage(req *Request, chatReq *llm.ChatRequest, resp *llm.Response) {
	if req.OnMetadata == nil {
		return
	}
	if resp.Usage != nil {
		req.OnMetadata(*resp.Usage)
		return
	}
	if o.tok == nil {
		return
	}
	req.OnMetadata(o.tok.EstimateUsage(chatReq, resp))
}

// documentInstruction returns the system instruction for document
// mode: the config document body when one exists, else the default.
func (o *Orchestrator) documentInstruction() string {
	doc := o.ConfigDocument()
	if doc != nil && doc.SystemInstruction != "" {
		return doc.SystemInstruction
	}
	return defaultDocumentInstruction
}

// outgoingText prepends the optional context to the prompt text.
func outgoingText(contextText, prompt string) string {
	if contextText == "" {
		return prompt
	}
	return contextText + "\n\n" + prompt
}
