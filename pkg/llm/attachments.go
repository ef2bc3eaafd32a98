package llm

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// MIMETypePDF is the MIME type of PDF attachments.
const MIMETypePDF = "application/pdf"

// IsImageMIME reports whether mimeType names an image format.
func IsImageMIME(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// AttachmentPlaceholder renders the textual stand-in for an attachment
// a vendor's wire format cannot carry. PDF placeholders include the
// page count when the document parses.
func AttachmentPlaceholder(a Attachment) string {
	name := a.Name
	if name == "" {
		name = "attachment"
	}

	detail := a.MIMEType
	if detail == "" {
		detail = "unknown type"
	}
	if a.MIMEType == MIMETypePDF {
		if pages, err := PDFPageCount(a.Data); err == nil {
			if pages == 1 {
				detail = fmt.Sprintf("%s, 1 page", a.MIMEType)
			} else {
				detail = fmt.Sprintf("%s, %d pages", a.MIMEType, pages)
			}
		}
	}

	return fmt.Sprintf("[Attachment %q (%s) could not be sent to this model]", name, detail)
}

// PDFPageCount returns the number of pages in a PDF document.
func PDFPageCount(data []byte) (int, error) {
	count, err := api.PageCount(bytes.NewReader(data), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to read PDF page count: %w", err)
	}
	return count, nil
}
