package tools

import (
	"fmt"

	"github.com/quillhq/quill/pkg/llm"
)

// ReplaceInNoteArgs are the arguments for the replace_in_note tool.
type ReplaceInNoteArgs struct {
	Path        string `json:"path" jsonschema:"required,description=Path of the note relative to the vault root."`
	Target      string `json:"target" jsonschema:"required,description=Exact text to replace. Must appear in the note."`
	Replacement string `json:"replacement" jsonschema:"required,description=Text to insert in place of the target. May be empty to delete the target."`
}

func replaceInNoteDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        string(NameReplaceInNote),
		Description: "Replace an exact text passage in a note with new text.",
		Parameters:  reflectSchema[ReplaceInNoteArgs](),
	}
}

func (t *NoteTools) replaceInNote(args ReplaceInNoteArgs) (string, error) {
	if args.Path == "" {
		return "", fmt.Errorf("missing required parameter: path")
	}
	if args.Target == "" {
		return "", fmt.Errorf("missing required parameter: target")
	}
	if err := t.vault.Replace(args.Path, args.Target, args.Replacement); err != nil {
		return "", err
	}
	return fmt.Sprintf("Replaced text in %s.", args.Path), nil
}
