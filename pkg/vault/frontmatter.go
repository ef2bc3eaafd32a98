package vault

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// splitFrontmatter separates a document into its front matter block and
// body. The block is the YAML text between the delimiters, without the
// delimiters themselves. Returns found=false when the document has no
// front matter.
func splitFrontmatter(content string) (block string, body string, found bool) {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return "", content, false
	}

	start := strings.IndexByte(content, '\n') + 1
	rest := content[start:]

	// Empty front matter: the closing delimiter immediately follows
	switch {
	case rest == "---":
		return "", "", true
	case strings.HasPrefix(rest, "---\n"):
		return "", rest[4:], true
	case strings.HasPrefix(rest, "---\r\n"):
		return "", rest[5:], true
	}

	searchFrom := 0
	for {
		idx := strings.Index(rest[searchFrom:], "\n---")
		if idx < 0 {
			return "", content, false
		}

		abs := searchFrom + idx
		after := abs + len("\n---")

		// The closing delimiter must be a line of its own
		switch {
		case after == len(rest):
			return rest[:abs+1], "", true
		case rest[after] == '\n':
			return rest[:abs+1], rest[after+1:], true
		case strings.HasPrefix(rest[after:], "\r\n"):
			return rest[:abs+1], rest[after+2:], true
		}

		searchFrom = abs + 1
	}
}

// patchFrontmatter sets a single top-level key in the document's front
// matter and returns the rewritten document. The YAML is edited as a
// node tree so key order and comments survive the round trip. Documents
// without front matter gain a new block above their content.
func patchFrontmatter(content, key, value string) (string, error) {
	block, body, found := splitFrontmatter(content)
	if !found {
		fresh := &yaml.Node{
			Kind:    yaml.DocumentNode,
			Content: []*yaml.Node{{Kind: yaml.MappingNode}},
		}
		setMappingKey(fresh.Content[0], key, value)

		encoded, err := encodeNode(fresh)
		if err != nil {
			return "", err
		}
		return "---\n" + encoded + "---\n" + content, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return "", fmt.Errorf("front matter is not valid YAML: %w", err)
	}

	mapping, err := documentMapping(&doc)
	if err != nil {
		return "", err
	}
	setMappingKey(mapping, key, value)

	encoded, err := encodeNode(mappingDocument(&doc, mapping))
	if err != nil {
		return "", err
	}
	return "---\n" + encoded + "---\n" + body, nil
}

// documentMapping extracts the top-level mapping from a parsed front
// matter document, treating empty and null documents as empty mappings.
func documentMapping(doc *yaml.Node) (*yaml.Node, error) {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return &yaml.Node{Kind: yaml.MappingNode}, nil
	}

	root := doc.Content[0]
	switch {
	case root.Kind == yaml.MappingNode:
		return root, nil
	case root.Kind == yaml.ScalarNode && root.Tag == "!!null":
		return &yaml.Node{Kind: yaml.MappingNode}, nil
	default:
		return nil, fmt.Errorf("front matter is not a mapping")
	}
}

// mappingDocument wraps the mapping back into a document node, reusing
// the parsed document when the mapping already belongs to it.
func mappingDocument(doc *yaml.Node, mapping *yaml.Node) *yaml.Node {
	if doc.Kind == yaml.DocumentNode && len(doc.Content) > 0 && doc.Content[0] == mapping {
		return doc
	}
	return &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{mapping}}
}

// setMappingKey updates the value of key in the mapping, or appends the
// pair when the key is absent. Replacing in place keeps any comment
// attached to the existing nodes.
func setMappingKey(mapping *yaml.Node, key, value string) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			valueNode := mapping.Content[i+1]
			valueNode.Kind = yaml.ScalarNode
			valueNode.Tag = ""
			valueNode.Style = 0
			valueNode.Value = value
			valueNode.Content = nil
			return
		}
	}

	mapping.Content = append(mapping.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: key},
		&yaml.Node{Kind: yaml.ScalarNode, Value: value},
	)
}

// encodeNode renders a YAML node with the conventional two-space indent.
func encodeNode(node *yaml.Node) (string, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(node); err != nil {
		return "", fmt.Errorf("failed to encode front matter: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize front matter: %w", err)
	}
	return buf.String(), nil
}
