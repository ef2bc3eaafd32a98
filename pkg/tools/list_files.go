package tools

import (
	"fmt"
	"strings"

	"github.com/quillhq/quill/pkg/llm"
)

// ListFilesArgs are the arguments for the list_files tool.
type ListFilesArgs struct {
	Directory string `json:"directory,omitempty" jsonschema:"description=Folder to list relative to the vault root. Defaults to the vault root."`
	Recursive bool   `json:"recursive,omitempty" jsonschema:"description=Also list files inside subfolders."`
	Limit     int    `json:"limit,omitempty" jsonschema:"description=Maximum number of paths to return.,minimum=1"`
}

func listFilesDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        string(NameListFiles),
		Description: "List files in the vault. Scope the listing to a folder with the directory parameter; set recursive to include subfolders.",
		Parameters:  reflectSchema[ListFilesArgs](),
	}
}

func (t *NoteTools) listFiles(args ListFilesArgs) (string, error) {
	paths, err := t.vault.List(args.Directory, args.Recursive, args.Limit)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return "No files found.", nil
	}
	return fmt.Sprintf("%d file(s):\n%s", len(paths), strings.Join(paths, "\n")), nil
}
