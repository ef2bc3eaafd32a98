package tools

import (
	"fmt"

	"github.com/quillhq/quill/pkg/llm"
)

// SaveNoteArgs are the arguments for the save_note tool.
type SaveNoteArgs struct {
	Filename string `json:"filename" jsonschema:"required,description=Path of the note relative to the vault root. Parent folders are created as needed."`
	Content  string `json:"content" jsonschema:"required,description=Full content to write. An existing note is overwritten."`
}

func saveNoteDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        string(NameSaveNote),
		Description: "Create or overwrite a note with the given content.",
		Parameters:  reflectSchema[SaveNoteArgs](),
	}
}

func (t *NoteTools) saveNote(args SaveNoteArgs) (string, error) {
	if args.Filename == "" {
		return "", fmt.Errorf("missing required parameter: filename")
	}
	if err := t.vault.Save(args.Filename, args.Content); err != nil {
		return "", err
	}
	return fmt.Sprintf("Saved %s.", args.Filename), nil
}
