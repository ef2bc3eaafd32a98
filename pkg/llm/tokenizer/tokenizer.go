// Package tokenizer provides client-side token counting for responses
// that arrive without vendor usage metadata. Counts use the cl100k_base
// encoding regardless of the actual model, so they are estimates and
// are always flagged as such.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/quillhq/quill/pkg/llm"
)

const encodingName = "cl100k_base"

// Per-turn wire framing overhead and the reply primer, from OpenAI's
// published counting guidance. Other vendors frame differently; close
// enough for an estimate.
const (
	tokensPerTurn = 4
	replyPrimer   = 3
)

// Tokenizer counts tokens with a fixed BPE encoding.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// New creates a tokenizer. Loading the encoding can fail (it may be
// fetched on first use); callers keep a nil tokenizer and skip
// estimation in that case.
func New() (*Tokenizer, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}
	return &Tokenizer{encoding: encoding}, nil
}

// CountTokens returns the token count of a text span.
func (t *Tokenizer) CountTokens(text string) int {
	if text == "" {
		return 0
	}
	return len(t.encoding.Encode(text, nil, nil))
}

// CountTurnsTokens returns the approximate token count of a
// conversation, including per-turn framing overhead.
func (t *Tokenizer) CountTurnsTokens(turns []llm.Turn) int {
	total := 0
	for _, turn := range turns {
		total += tokensPerTurn
		total += t.CountTokens(turn.Text)
		for _, call := range turn.ToolCalls {
			total += t.CountTokens(call.Name)
		}
		for _, result := range turn.ToolResults {
			total += t.CountTokens(result.Content)
		}
	}
	return total + replyPrimer
}

// EstimateUsage builds the usage substituted when a provider response
// carries none. The result is always marked Estimated.
func (t *Tokenizer) EstimateUsage(req *llm.ChatRequest, resp *llm.Response) llm.Usage {
	prompt := t.CountTokens(req.SystemInstruction) + t.CountTurnsTokens(req.Turns)

	completion := 0
	for _, part := range resp.Parts {
		switch part.Kind {
		case llm.PartText, llm.PartThought, llm.PartCodeResult:
			completion += t.CountTokens(part.Text)
		case llm.PartExecutableCode:
			completion += t.CountTokens(part.Code)
		}
	}
	for _, call := range resp.ToolCalls {
		completion += t.CountTokens(call.Name)
	}

	return llm.Usage{
		PromptTokens:     prompt,
		CompletionTokens: completion,
		TotalTokens:      prompt + completion,
		Estimated:        true,
	}
}
