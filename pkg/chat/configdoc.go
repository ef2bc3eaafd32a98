package chat

import "strings"

// DefaultConfigDocument is the vault path of the optional document
// that customizes the assistant: its body becomes the document-mode
// system instruction and its "## Commands" section declares custom
// commands.
const DefaultConfigDocument = "quill-config.md"

// commandsHeading marks the section whose list items are parsed as
// custom commands. Matched case-insensitively.
const commandsHeading = "## commands"

// Command is one custom command declared in the config document. The
// label is what a command picker displays; the prompt is what gets
// submitted when the command is chosen.
type Command struct {
	Label  string
	Prompt string
}

// ConfigDocument is the parsed form of the config document.
type ConfigDocument struct {
	// SystemInstruction is the document body outside the commands
	// section, with front matter stripped.
	SystemInstruction string

	// Commands holds the declared custom commands in document order.
	Commands []Command
}

// ConfigDocument reads and parses the vault's config document. Returns
// nil when no config source is set or the document cannot be read.
func (o *Orchestrator) ConfigDocument() *ConfigDocument {
	if o.docs == nil {
		return nil
	}
	content, err := o.docs.Read(o.configPath)
	if err != nil {
		o.logger.Debugf("Config document %s not readable: %v", o.configPath, err)
		return nil
	}
	return ParseConfigDocument(content)
}

// Commands returns the custom commands declared in the config
// document, or nil when there is none.
func (o *Orchestrator) Commands() []Command {
	doc := o.ConfigDocument()
	if doc == nil {
		return nil
	}
	return doc.Commands
}

// ParseConfigDocument parses config document content. Everything
// outside the "## Commands" section becomes the system instruction;
// list items of the form "- Label: prompt" inside it become commands.
// Malformed items are skipped.
func ParseConfigDocument(content string) *ConfigDocument {
	body, commands := splitConfigContent(stripFrontmatter(content))
	return &ConfigDocument{
		SystemInstruction: strings.TrimSpace(body),
		Commands:          commands,
	}
}

// splitConfigContent carves the commands section out of the document.
// The section runs from the commands heading to the next "## " heading
// or end of document; all other lines belong to the instruction body.
func splitConfigContent(content string) (string, []Command) {
	var body []string
	var commands []Command

	inCommands := false
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "## ") {
			inCommands = strings.EqualFold(trimmed, commandsHeading)
			if inCommands {
				continue
			}
		}
		if inCommands {
			if cmd, ok := parseCommandItem(trimmed); ok {
				commands = append(commands, cmd)
			}
			continue
		}
		body = append(body, line)
	}
	return strings.Join(body, "\n"), commands
}

// parseCommandItem parses one "- Label: prompt" list item. Both sides
// of the colon must be non-empty for the item to count.
func parseCommandItem(line string) (Command, bool) {
	rest, ok := strings.CutPrefix(line, "- ")
	if !ok {
		return Command{}, false
	}
	label, prompt, found := strings.Cut(rest, ":")
	label = strings.TrimSpace(label)
	prompt = strings.TrimSpace(prompt)
	if !found || label == "" || prompt == "" {
		return Command{}, false
	}
	return Command{Label: label, Prompt: prompt}, true
}

// stripFrontmatter drops a leading YAML front matter block. Content
// without a complete block passes through unchanged.
func stripFrontmatter(content string) string {
	if !strings.HasPrefix(content, "---\n") && !strings.HasPrefix(content, "---\r\n") {
		return content
	}
	lines := strings.Split(content, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			return strings.Join(lines[i+1:], "\n")
		}
	}
	return content
}
