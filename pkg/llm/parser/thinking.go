// Package parser extracts inline reasoning spans from model text.
//
// Some backends (Ollama-hosted reasoning models, OpenAI-compatible
// servers) inline their chain of thought into the answer text wrapped
// in <think> or <thinking> tags instead of reporting it as structured
// content. Extract separates those spans from the user-facing message.
package parser

import "strings"

// openTags are the reasoning tags recognized in model output, each
// paired with its closing form.
var openTags = map[string]string{
	"<think>":    "</think>",
	"<thinking>": "</thinking>",
}

// Extract splits text into its reasoning content and the remaining
// message. Reasoning spans are wrapped in <think> or <thinking> tags;
// an unterminated span swallows the rest of the text, matching what
// truncated responses look like. Multiple spans are joined with blank
// lines.
//
// When the text carries no reasoning tags it is returned unchanged as
// the message; otherwise both return values are whitespace-trimmed.
func Extract(text string) (thinking, message string) {
	var thoughts, msg strings.Builder

	rest := text
	tagged := false
	for {
		idx, open := findOpenTag(rest)
		if idx < 0 {
			msg.WriteString(rest)
			break
		}
		tagged = true
		msg.WriteString(rest[:idx])

		body := rest[idx+len(open):]
		end := strings.Index(body, openTags[open])
		if end < 0 {
			appendSpan(&thoughts, body)
			break
		}
		appendSpan(&thoughts, body[:end])
		rest = body[end+len(openTags[open]):]
	}

	if !tagged {
		return "", text
	}
	return thoughts.String(), strings.TrimSpace(msg.String())
}

// findOpenTag locates the earliest reasoning tag in text, returning
// its index and which tag matched, or -1 when none occurs.
func findOpenTag(text string) (int, string) {
	first := -1
	var match string
	for open := range openTags {
		if idx := strings.Index(text, open); idx >= 0 && (first < 0 || idx < first) {
			first = idx
			match = open
		}
	}
	return first, match
}

// appendSpan accumulates one trimmed reasoning span, separating spans
// with a blank line.
func appendSpan(sb *strings.Builder, span string) {
	span = strings.TrimSpace(span)
	if span == "" {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString("\n\n")
	}
	sb.WriteString(span)
}
