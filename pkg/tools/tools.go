// Package tools implements the tool surface exposed to chat models: a
// closed set of note operations bound to a document vault, plus a
// single web search operation bound to a search client.
//
// Tool names form an enumerated type and dispatch switches over it
// exhaustively. Argument structs carry jsonschema tags from which each
// tool's parameter schema is reflected once. Execution failures are
// converted to error-carrying results and fed back to the model; they
// never propagate as Go errors.
package tools

import (
	"fmt"

	"github.com/quillhq/quill/pkg/llm"
)

// Name identifies a tool operation.
type Name string

// The complete tool surface. Note tools operate on the vault; the
// search tool queries the web. The two sets are never offered to a
// model together.
const (
	NameListFiles         Name = "list_files"
	NameReadNote          Name = "read_note"
	NameSaveNote          Name = "save_note"
	NameUpdateFrontmatter Name = "update_frontmatter"
	NameFindFilesByName   Name = "find_files_by_name"
	NameReplaceInNote     Name = "replace_in_note"
	NameDeleteNote        Name = "delete_note"
	NameWebSearch         Name = "web_search"
)

// UnknownToolError reports a tool call whose name is not part of the
// offered surface, typically hallucinated by the model.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// errorResult wraps a failed execution as a result the model can
// recover from.
func errorResult(call llm.ToolCall, err error) llm.ToolResult {
	return llm.ToolResult{
		ID:      call.ID,
		Name:    call.Name,
		Content: err.Error(),
		IsError: true,
	}
}

func successResult(call llm.ToolCall, content string) llm.ToolResult {
	return llm.ToolResult{
		ID:      call.ID,
		Name:    call.Name,
		Content: content,
	}
}
