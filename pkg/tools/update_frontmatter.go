package tools

import (
	"fmt"

	"github.com/quillhq/quill/pkg/llm"
)

// UpdateFrontmatterArgs are the arguments for the update_frontmatter
// tool.
type UpdateFrontmatterArgs struct {
	Path  string `json:"path" jsonschema:"required,description=Path of the note relative to the vault root."`
	Key   string `json:"key" jsonschema:"required,description=Front matter key to set."`
	Value string `json:"value" jsonschema:"required,description=Value to assign to the key."`
}

func updateFrontmatterDefinition() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        string(NameUpdateFrontmatter),
		Description: "Set a key in a note's YAML front matter. A note without front matter gains a front matter block; an existing key is overwritten.",
		Parameters:  reflectSchema[UpdateFrontmatterArgs](),
	}
}

func (t *NoteTools) updateFrontmatter(args UpdateFrontmatterArgs) (string, error) {
	if args.Path == "" {
		return "", fmt.Errorf("missing required parameter: path")
	}
	if args.Key == "" {
		return "", fmt.Errorf("missing required parameter: key")
	}
	if err := t.vault.UpdateFrontmatter(args.Path, args.Key, args.Value); err != nil {
		return "", err
	}
	return fmt.Sprintf("Updated front matter key %q in %s.", args.Key, args.Path), nil
}
