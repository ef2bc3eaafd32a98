package chat

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/quillhq/quill/pkg/llm"
)

// Messages substituted when a response carries nothing displayable.
// They are returned as the assistant's text, never as errors.
const (
	safetyBlockedMessage      = "The model blocked this response for safety reasons. Try rephrasing your request."
	recitationBlockedMessage  = "The model blocked this response because it matched protected material too closely."
	unspecifiedBlockedMessage = "The model blocked this response without giving a reason."
	noResponseMessage         = "The model returned no response. Try again, or switch to a different model."
)

// missingThoughtNote is appended when high reasoning was requested but
// the model produced no thought content.
const missingThoughtNote = "_Reasoning was requested but the model returned no thought content._"

// renderResponse turns a provider response into display text. Parts
// render in vendor order; thought parts collapse into a single block
// before everything else.
func renderResponse(resp *llm.Response, highReasoning bool) string {
	var thoughts []string
	var segments []string
	textOpen := false

	for _, part := range resp.Parts {
		switch part.Kind {
		case llm.PartThought:
			if strings.TrimSpace(part.Text) != "" {
				thoughts = append(thoughts, strings.TrimSpace(part.Text))
			}
		case llm.PartText:
			if part.Text == "" {
				continue
			}
			// Consecutive text parts concatenate verbatim.
			if textOpen {
				segments[len(segments)-1] += part.Text
			} else {
				segments = append(segments, part.Text)
				textOpen = true
			}
		case llm.PartInlineBinary:
			segments = append(segments, mediaReference(part))
			textOpen = false
		case llm.PartExecutableCode:
			segments = append(segments, codeBlock(part))
			textOpen = false
		case llm.PartCodeResult:
			segments = append(segments, outputBlock(part.Text))
			textOpen = false
		}
	}

	body := strings.Join(segments, "\n\n")
	if len(thoughts) == 0 && strings.TrimSpace(body) == "" {
		return blockedMessage(resp.FinishReason)
	}

	var out []string
	if len(thoughts) > 0 {
		out = append(out, thoughtBlock(thoughts))
	}
	if strings.TrimSpace(body) != "" {
		out = append(out, body)
	}
	if highReasoning && len(thoughts) == 0 {
		out = append(out, missingThoughtNote)
	}
	return strings.Join(out, "\n\n")
}

// blockedMessage maps a finish reason to the text shown when the
// response had no displayable parts.
func blockedMessage(reason llm.FinishReason) string {
	switch reason {
	case llm.FinishSafety:
		return safetyBlockedMessage
	case llm.FinishRecitation:
		return recitationBlockedMessage
	case llm.FinishUnspecified:
		return unspecifiedBlockedMessage
	default:
		return noResponseMessage
	}
}

// thoughtBlock renders collected thought parts as one collapsible
// block.
func thoughtBlock(thoughts []string) string {
	var sb strings.Builder
	sb.WriteString("<details>\n<summary>Reasoning</summary>\n\n")
	sb.WriteString(strings.Join(thoughts, "\n\n"))
	sb.WriteString("\n\n</details>")
	return sb.String()
}

// mediaReference renders inline binary content as an embedded data
// URI the host's Markdown renderer can display.
func mediaReference(part llm.Part) string {
	encoded := base64.StdEncoding.EncodeToString(part.Data)
	return fmt.Sprintf("![media](data:%s;base64,%s)", part.MIMEType, encoded)
}

// codeBlock renders vendor-executed code as a fenced block tagged with
// its language, guessing one when the vendor supplied none.
func codeBlock(part llm.Part) string {
	lang := part.Language
	if lang == "" {
		lang = guessLanguage(part.Code)
	}
	return "```" + lang + "\n" + strings.TrimRight(part.Code, "\n") + "\n```"
}

// outputBlock renders code execution output as an untagged fenced
// block.
func outputBlock(output string) string {
	return "```\n" + strings.TrimRight(output, "\n") + "\n```"
}

// guessLanguage runs lexer analysis over a code span and returns the
// lowercase language name, or empty when nothing matches confidently.
func guessLanguage(code string) string {
	lexer := lexers.Analyse(code)
	if lexer == nil {
		return ""
	}
	return strings.ToLower(lexer.Config().Name)
}
