package tools

import (
	"context"
	"fmt"

	"github.com/quillhq/quill/pkg/llm"
	"github.com/quillhq/quill/pkg/logging"
	"github.com/quillhq/quill/pkg/vault"
)

// NoteTools is the document toolset bound to a vault.
type NoteTools struct {
	vault  *vault.Vault
	logger *logging.Logger
}

// NewNoteTools creates the document toolset over the given vault.
func NewNoteTools(v *vault.Vault) *NoteTools {
	logger, _ := logging.NewLogger("tools")
	return &NoteTools{vault: v, logger: logger}
}

// Definitions returns the declarations for the seven note operations.
func (t *NoteTools) Definitions() []llm.ToolDefinition {
	return []llm.ToolDefinition{
		listFilesDefinition(),
		readNoteDefinition(),
		saveNoteDefinition(),
		updateFrontmatterDefinition(),
		findFilesDefinition(),
		replaceInNoteDefinition(),
		deleteNoteDefinition(),
	}
}

// Dispatch executes one tool call and returns its result. Execution
// failures become error results fed back to the model; they are never
// returned as Go errors.
func (t *NoteTools) Dispatch(ctx context.Context, call llm.ToolCall) llm.ToolResult {
	t.logger.Debugf("Executing tool: %s", call.Name)

	switch Name(call.Name) {
	case NameListFiles:
		return run(call, t.listFiles)
	case NameReadNote:
		return run(call, t.readNote)
	case NameSaveNote:
		return run(call, t.saveNote)
	case NameUpdateFrontmatter:
		return run(call, t.updateFrontmatter)
	case NameFindFilesByName:
		return run(call, t.findFiles)
	case NameReplaceInNote:
		return run(call, t.replaceInNote)
	case NameDeleteNote:
		return run(call, t.deleteNote)
	default:
		return errorResult(call, &UnknownToolError{Name: call.Name})
	}
}

// run decodes call arguments into the tool's typed struct and executes
// it, folding any failure into an error result.
func run[T any](call llm.ToolCall, fn func(T) (string, error)) llm.ToolResult {
	var args T
	if err := mapToStruct(call.Args, &args); err != nil {
		return errorResult(call, fmt.Errorf("invalid arguments: %w", err))
	}
	content, err := fn(args)
	if err != nil {
		return errorResult(call, err)
	}
	return successResult(call, content)
}
