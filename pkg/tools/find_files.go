package tools

import (
	"fmt"
	"strings"

	"github.com/quillhq/quill/pkg/llm"
)

// FindFilesArgs are the arguments for the find_files_by_name tool.
type FindFilesArgs struct {
	Name string `json:"name" jsonschema:"required,description=Name fragment to match. Matching is case-insensitive."`
}

func findFilesDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        string(NameFindFilesByName),
		Description: "Find files in the vault whose name contains the given fragment.",
		Parameters:  reflectSchema[FindFilesArgs](),
	}
}

func (t *NoteTools) findFiles(args FindFilesArgs) (string, error) {
	if args.Name == "" {
		return "", fmt.Errorf("missing required parameter: name")
	}
	paths, err := t.vault.FindByName(args.Name)
	if err != nil {
		return "", err
	}
	if len(paths) == 0 {
		return fmt.Sprintf("No files matched %q.", args.Name), nil
	}
	return fmt.Sprintf("%d match(es):\n%s", len(paths), strings.Join(paths, "\n")), nil
}
