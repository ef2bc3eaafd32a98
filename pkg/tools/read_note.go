package tools

import (
	"fmt"

	"github.com/quillhq/quill/pkg/llm"
)

// ReadNoteArgs are the arguments for the read_note tool.
type ReadNoteArgs struct {
	Filename string `json:"filename" jsonschema:"required,description=Path of the note relative to the vault root."`
}

func readNoteDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        string(NameReadNote),
		Description: "Read the full contents of a note in the vault.",
		Parameters:  reflectSchema[ReadNoteArgs](),
	}
}

func (t *NoteTools) readNote(args ReadNoteArgs) (string, error) {
	if args.Filename == "" {
		return "", fmt.Errorf("missing required parameter: filename")
	}
	return t.vault.Read(args.Filename)
}
