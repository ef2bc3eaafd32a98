package llm

import "github.com/google/uuid"

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleUser marks turns authored by the user (including tool
	// results fed back on the user side of the wire).
	RoleUser Role = "user"

	// RoleModel marks turns authored by the model.
	RoleModel Role = "model"
)

// Turn is one entry of a conversation. Exactly one of Text, ToolCalls
// or ToolResults carries the payload; Attachments may decorate a user
// text turn. History handed to the orchestrator holds text turns only;
// the tool-bearing variants exist inside a single turn's resolution
// loop and are never stored.
type Turn struct {
	Role        Role
	Text        string
	Attachments []Attachment
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// NewUserTurn creates a text turn authored by the user.
func NewUserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

// NewModelTurn creates a text turn authored by the model.
func NewModelTurn(text string) Turn {
	return Turn{Role: RoleModel, Text: text}
}

// NewToolCallTurn creates the model turn echoing a batch of requested
// tool calls back into the conversation.
func NewToolCallTurn(calls []ToolCall) Turn {
	return Turn{Role: RoleModel, ToolCalls: calls}
}

// NewToolResultTurn creates the user-side turn carrying the results for
// a batch of tool calls, in the same order the calls were emitted.
func NewToolResultTurn(results []ToolResult) Turn {
	return Turn{Role: RoleUser, ToolResults: results}
}

// ToolCall is one structured tool invocation requested by the model.
type ToolCall struct {
	// ID pairs the call with its result. Adapters assign one via
	// NewCallID when the vendor omits it.
	ID string

	// Name is the tool being invoked.
	Name string

	// Args holds the decoded invocation arguments.
	Args map[string]any
}

// ToolResult is the outcome of one dispatched tool call.
type ToolResult struct {
	// ID and Name mirror the originating call.
	ID   string
	Name string

	// Content is the result payload, or the error message when
	// IsError is set.
	Content string

	// IsError marks a failed execution. The content is still fed back
	// to the model so it can recover.
	IsError bool
}

// Attachment is binary content submitted alongside a user prompt. It
// decorates only the first outgoing request of a turn and is never
// retained.
type Attachment struct {
	Name     string
	MIMEType string
	Data     []byte
}

// NewCallID synthesizes a tool call ID for vendors that omit one, so
// request/result pairing stays exact.
func NewCallID() string {
	return "call-" + uuid.NewString()
}
