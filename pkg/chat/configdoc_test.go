package chat

import (
	"strings"
	"testing"
)

func TestParseConfigDocument(t *testing.T) {
	content := `---
created: 2026-08-01
---
You are the vault librarian.

Answer in one paragraph.

## Commands
- Daily review: Summarize every note touched today
- Inbox sweep: File everything under inbox/ into the right folders

## Style
Prefer bullet lists.
`

	doc := ParseConfigDocument(content)

	if !strings.HasPrefix(doc.SystemInstruction, "You are the vault librarian.") {
		t.Errorf("instruction start = %q", doc.SystemInstruction)
	}
	if !strings.Contains(doc.SystemInstruction, "## Style\nPrefer bullet lists.") {
		t.Error("sections after the commands section belong to the instruction")
	}
	if strings.Contains(doc.SystemInstruction, "Daily review") {
		t.Error("command items leaked into the instruction")
	}
	if strings.Contains(doc.SystemInstruction, "created:") {
		t.Error("front matter leaked into the instruction")
	}

	if len(doc.Commands) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(doc.Commands))
	}
	if doc.Commands[0].Label != "Daily review" || doc.Commands[0].Prompt != "Summarize every note touched today" {
		t.Errorf("first command = %+v", doc.Commands[0])
	}
	if doc.Commands[1].Label != "Inbox sweep" {
		t.Errorf("second command = %+v", doc.Commands[1])
	}
}

func TestParseConfigDocumentNoCommandsSection(t *testing.T) {
	doc := ParseConfigDocument("Just an instruction body.\nNothing else.")

	if doc.SystemInstruction != "Just an instruction body.\nNothing else." {
		t.Errorf("instruction = %q", doc.SystemInstruction)
	}
	if len(doc.Commands) != 0 {
		t.Errorf("expected no commands, got %+v", doc.Commands)
	}
}

func TestParseConfigDocumentMalformedItemsSkipped(t *testing.T) {
	content := `Instruction.

## Commands
- : prompt without a label
- Label without a prompt:
- NoSeparatorHere
not a list item at all
- Valid: the only good one
* Wrong bullet: also skipped
`

	doc := ParseConfigDocument(content)

	if len(doc.Commands) != 1 {
		t.Fatalf("expected 1 command, got %+v", doc.Commands)
	}
	if doc.Commands[0].Label != "Valid" || doc.Commands[0].Prompt != "the only good one" {
		t.Errorf("command = %+v", doc.Commands[0])
	}
}

func TestParseConfigDocumentHeadingCaseInsensitive(t *testing.T) {
	content := "Body.\n\n## commands\n- Review: Do the review\n"

	doc := ParseConfigDocument(content)
	if len(doc.Commands) != 1 {
		t.Fatalf("lowercase heading not recognized: %+v", doc.Commands)
	}
}

func TestParseConfigDocumentPromptKeepsColons(t *testing.T) {
	content := "## Commands\n- Plan: Write a plan with sections: goals, risks\n"

	doc := ParseConfigDocument(content)
	if len(doc.Commands) != 1 {
		t.Fatalf("expected 1 command, got %+v", doc.Commands)
	}
	if doc.Commands[0].Prompt != "Write a plan with sections: goals, risks" {
		t.Errorf("prompt = %q", doc.Commands[0].Prompt)
	}
}

func TestParseConfigDocumentEmpty(t *testing.T) {
	doc := ParseConfigDocument("")
	if doc.SystemInstruction != "" || len(doc.Commands) != 0 {
		t.Errorf("empty content parsed to %+v", doc)
	}
}

func TestStripFrontmatter(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"no front matter", "Body text.", "Body text."},
		{"with front matter", "---\nkey: value\n---\nBody text.", "Body text."},
		{"unterminated block passes through", "---\nkey: value\nBody text.", "---\nkey: value\nBody text."},
		{"dashes mid-document are not front matter", "Body.\n---\nMore body.", "Body.\n---\nMore body."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := stripFrontmatter(tt.content); got != tt.want {
				t.Errorf("stripFrontmatter = %q, want %q", got, tt.want)
			}
		})
	}
}
