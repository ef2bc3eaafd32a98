package llm

// PartKind discriminates the canonical response part variants.
type PartKind string

const (
	// PartText is plain answer text.
	PartText PartKind = "text"

	// PartInlineBinary is inline binary content (an image the model
	// generated or echoed back).
	PartInlineBinary PartKind = "inline_binary"

	// PartExecutableCode is code the model ran in a vendor-side
	// execution sandbox.
	PartExecutableCode PartKind = "executable_code"

	// PartCodeResult is the output of an executed code part.
	PartCodeResult PartKind = "code_result"

	// PartThought is intermediate reasoning the vendor surfaced.
	PartThought PartKind = "thought"
)

// Part is the canonical response part every adapter normalizes vendor
// shapes into. The orchestrator consumes only this form.
//
// The populated fields depend on Kind: Text carries PartText,
// PartThought and PartCodeResult payloads; MIMEType/Data carry
// PartInlineBinary; Language/Code carry PartExecutableCode.
type Part struct {
	Kind PartKind

	Text string

	MIMEType string
	Data     []byte

	Language string
	Code     string
}

// TextPart creates a plain text part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// ThoughtPart creates an intermediate-reasoning part.
func ThoughtPart(text string) Part {
	return Part{Kind: PartThought, Text: text}
}

// InlineBinaryPart creates an inline binary part.
func InlineBinaryPart(mimeType string, data []byte) Part {
	return Part{Kind: PartInlineBinary, MIMEType: mimeType, Data: data}
}

// ExecutableCodePart creates an executed-code part. Language may be
// empty when the vendor does not report one.
func ExecutableCodePart(language, code string) Part {
	return Part{Kind: PartExecutableCode, Language: language, Code: code}
}

// CodeResultPart creates a code execution output part.
func CodeResultPart(output string) Part {
	return Part{Kind: PartCodeResult, Text: output}
}
