// Package extract turns a raw content-typed byte stream into plain text.
// It generalizes the teacher's multimodal extractor (text/PDF/DOCX/XLSX/
// image, used for LLM message attachments) down to the two content types
// a literature fulltext fetch can actually return: plain/HTML text served
// directly by a source, and PDF served by an open-access link with no
// structured fulltext API of its own. DOCX/XLSX/image extraction served
// no SPEC_FULL.md component (no source returns an office document or an
// image as a fulltext payload) and were dropped rather than adapted.
package extract

import (
	"io"
	"strings"
)

// Extract reads r and returns a text representation of the content.
// Returns ("", nil) for unsupported content types.
func Extract(contentType string, r io.Reader) (string, error) {
	mime := strings.SplitN(contentType, ";", 2)[0]
	mime = strings.TrimSpace(strings.ToLower(mime))

	switch {
	case strings.HasPrefix(mime, "text/"):
		return extractText(r)
	case mime == "application/pdf":
		return extractPDF(r)
	default:
		return "", nil
	}
}

func extractText(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
