package tools

import (
	"fmt"

	"github.com/quillhq/quill/pkg/llm"
)

// DeleteNoteArgs are the arguments for the delete_note tool.
type DeleteNoteArgs struct {
	Path string `json:"path" jsonschema:"required,description=Path of the note relative to the vault root."`
}

func deleteNoteDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        string(NameDeleteNote),
		Description: "Delete a note by moving it to the vault's trash folder. Nothing is removed permanently.",
		Parameters:  reflectSchema[DeleteNoteArgs](),
	}
}

func (t *NoteTools) deleteNote(args DeleteNoteArgs) (string, error) {
	if args.Path == "" {
		return "", fmt.Errorf("missing required parameter: path")
	}
	trashPath, err := t.vault.DeleteToTrash(args.Path)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Moved %s to %s.", args.Path, trashPath), nil
}
