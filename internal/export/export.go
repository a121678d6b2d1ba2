// Package export renders cover letters as Word documents.
package export

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

const (
	// ContentType is the MIME type of rendered documents.
	ContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	placeholder = "{{COVER_LETTER}}"
)

//go:embed assets/template.docx
var templateDocx []byte

// Render returns a DOCX document whose body is text. Line breaks are kept.
func Render(text string) ([]byte, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(templateDocx), int64(len(templateDocx)))
	if err != nil {
		return nil, fmt.Errorf("open export template: %w", err)
	}
	defer doc.Close()

	editable := doc.Editable()
	if !strings.Contains(editable.GetContent(), placeholder) {
		return nil, fmt.Errorf("export template is missing %s", placeholder)
	}
	if err := editable.Replace(placeholder, normalizeNewlines(text), -1); err != nil {
		return nil, fmt.Errorf("fill export template: %w", err)
	}

	var out bytes.Buffer
	if err := editable.Write(&out); err != nil {
		return nil, fmt.Errorf("write docx: %w", err)
	}
	return out.Bytes(), nil
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
