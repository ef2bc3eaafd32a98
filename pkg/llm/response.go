package llm

import "strings"

// FinishReason is a vendor stop reason normalized to a closed set.
type FinishReason string

const (
	// FinishStop means the model completed its answer normally.
	FinishStop FinishReason = "stop"

	// FinishMaxTokens means generation hit the output token limit.
	FinishMaxTokens FinishReason = "max_tokens"

	// FinishSafety means the vendor blocked the response on safety
	// grounds.
	FinishSafety FinishReason = "safety"

	// FinishRecitation means the vendor blocked the response for
	// reciting protected material.
	FinishRecitation FinishReason = "recitation"

	// FinishUnspecified means the vendor reported no usable reason.
	FinishUnspecified FinishReason = "unspecified"

	// FinishOther covers vendor reasons outside the closed set.
	FinishOther FinishReason = "other"
)

// Usage is the token accounting attached to one provider response.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int

	// ThoughtTokens counts reasoning tokens where the vendor reports
	// them separately.
	ThoughtTokens int

	// Estimated marks a client-side tokenizer estimate substituted
	// when the vendor response carried no usage block.
	Estimated bool
}

// Response is one normalized provider response.
type Response struct {
	// Parts holds the canonical response parts in vendor order.
	Parts []Part

	// ToolCalls holds the tool invocations the model requested, in
	// emitted order. Non-empty means the turn is not finished.
	ToolCalls []ToolCall

	FinishReason FinishReason

	// Usage is nil when the vendor reported none.
	Usage *Usage
}

// HasToolCalls reports whether the model requested tool invocations.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Text concatenates the response's plain text parts. Thought, code and
// binary parts are excluded; rendering those is the orchestrator's job.
func (r *Response) Text() string {
	var sb strings.Builder
	for _, part := range r.Parts {
		if part.Kind == PartText {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

// HasThought reports whether any part carries intermediate reasoning.
func (r *Response) HasThought() bool {
	for _, part := range r.Parts {
		if part.Kind == PartThought {
			return true
		}
	}
	return false
}
