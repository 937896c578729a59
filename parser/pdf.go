package parser

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFParser turns each page into one ParsedSection titled "Page N". PDF text
// extraction is inherently lossy (layout, columns, tables do not survive),
// so every document carries a fidelity warning and a capped confidence.
type PDFParser struct{}

func (p *PDFParser) SupportedFormats() []string { return []string{"pdf"} }

const pdfConfidence = 0.7

func (p *PDFParser) Parse(ctx context.Context, path string) (*ParsedDocument, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return &ParsedDocument{
			Confidence: 0,
			FileType:   "pdf",
			Warnings:   []string{fmt.Sprintf("opening PDF: %v", err)},
		}, nil
	}
	defer f.Close()

	doc := &ParsedDocument{
		FileType:   "pdf",
		Confidence: pdfConfidence,
		Warnings:   []string{"PDF text extraction does not preserve layout, columns, or tables"},
	}

	var raw strings.Builder
	totalPages := reader.NumPage()
	for i := 1; i <= totalPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			doc.Warnings = append(doc.Warnings, fmt.Sprintf("page %d: %v", i, err))
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}

		title := fmt.Sprintf("Page %d", i)
		start := raw.Len()
		raw.WriteString(title + "\n" + text + "\n\n")
		end := raw.Len()

		doc.Sections = append(doc.Sections, ParsedSection{
			Title:       title,
			Content:     text,
			Level:       1,
			StartOffset: start,
			EndOffset:   end,
			Path:        title,
		})
	}
	doc.RawText = raw.String()

	if len(doc.Sections) == 0 {
		doc.Confidence = 0
		doc.Warnings = append(doc.Warnings, "no extractable text found in PDF")
	}

	return doc, nil
}
