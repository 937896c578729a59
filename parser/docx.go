package parser

import (
	"archive/zip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/richardlehane/mscfb"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// WordProcessorParser handles both modern DOCX (a zip of XML parts) and
// legacy DOC (an OLE2 compound file). Section splitting follows paragraph
// style: Heading1..Heading6 and Title start a new section at the
// corresponding level; everything else is accumulated as body content of
// the current section.
type WordProcessorParser struct{}

func (p *WordProcessorParser) SupportedFormats() []string { return []string{"docx", "doc"} }

func (p *WordProcessorParser) Parse(ctx context.Context, path string) (*ParsedDocument, error) {
	if isOLE2(path) {
		return p.parseLegacyDoc(path)
	}
	return p.parseDocx(path)
}

func (p *WordProcessorParser) parseDocx(path string) (*ParsedDocument, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("opening DOCX: %w", err)
	}
	defer r.Close()

	var docFile *zip.File
	for _, f := range r.File {
		if f.Name == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return &ParsedDocument{
			Confidence: 0.3,
			FileType:   "docx",
			Warnings:   []string{"word/document.xml not found in DOCX package"},
		}, nil
	}

	rc, err := docFile.Open()
	if err != nil {
		return &ParsedDocument{Confidence: 0, FileType: "docx", Warnings: []string{err.Error()}}, nil
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return &ParsedDocument{Confidence: 0, FileType: "docx", Warnings: []string{err.Error()}}, nil
	}

	var body docxBody
	if err := xml.Unmarshal(data, &body); err != nil {
		// Structural XML failure — fall back to the raw text we can salvage
		// by stripping tags, rather than failing the upload outright.
		return &ParsedDocument{
			RawText:    stripXMLTags(string(data)),
			Confidence: 0.4,
			FileType:   "docx",
			Warnings:   []string{fmt.Sprintf("malformed document.xml, used raw-text fallback: %v", err)},
		}, nil
	}

	doc := &ParsedDocument{FileType: "docx", Confidence: 1.0}
	var raw strings.Builder

	flushParas(doc, &raw, body.Paras)
	for _, tbl := range body.Tables {
		content := renderDocxTable(tbl)
		if content == "" {
			continue
		}
		start := raw.Len()
		raw.WriteString(content + "\n\n")
		end := raw.Len()
		doc.Sections = append(doc.Sections, ParsedSection{
			Content:     content,
			Level:       0,
			StartOffset: start,
			EndOffset:   end,
		})
	}
	doc.RawText = raw.String()

	return doc, nil
}

// parseLegacyDoc handles the pre-2007 binary .doc OLE2 compound file
// format. Full binary-format text extraction is out of scope; we surface
// whatever plain-text streams mscfb exposes and flag the document as
// low-confidence so reviewers know to expect gaps.
func (p *WordProcessorParser) parseLegacyDoc(path string) (*ParsedDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return &ParsedDocument{Confidence: 0, FileType: "doc", Warnings: []string{err.Error()}}, nil
	}
	defer f.Close()

	doc := &ParsedDocument{
		FileType:   "doc",
		Confidence: 0.4,
		Warnings:   []string{"legacy .doc format: text extraction is best-effort"},
	}

	reader, err := mscfb.New(f)
	if err != nil {
		doc.Confidence = 0
		doc.Warnings = append(doc.Warnings, fmt.Sprintf("reading OLE2 container: %v", err))
		return doc, nil
	}

	var raw strings.Builder
	for entry, err := reader.Next(); err == nil; entry, err = reader.Next() {
		if entry.Name != "WordDocument" {
			continue
		}
		buf := make([]byte, entry.Size)
		n, _ := io.ReadFull(entry, buf)
		text := extractPrintableText(buf[:n])
		if text != "" {
			raw.WriteString(text)
		}
	}

	doc.RawText = raw.String()
	if strings.TrimSpace(doc.RawText) != "" {
		doc.Sections = append(doc.Sections, ParsedSection{
			Content:     strings.TrimSpace(doc.RawText),
			Level:       0,
			StartOffset: 0,
			EndOffset:   len(doc.RawText),
		})
	} else {
		doc.Confidence = 0
		doc.Warnings = append(doc.Warnings, "no extractable text found in legacy .doc")
	}

	return doc, nil
}

// isOLE2 sniffs the compound-file binary magic to distinguish legacy .doc
// from the zip-based .docx, independent of file extension.
func isOLE2(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	magic := []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	buf := make([]byte, len(magic))
	n, err := io.ReadFull(f, buf)
	if err != nil || n != len(magic) {
		return false
	}
	for i, b := range magic {
		if buf[i] != b {
			return false
		}
	}
	return true
}

// extractPrintableText decodes a WordDocument stream as UTF-16LE via
// golang.org/x/text and pulls out runs of printable-ASCII text. This is a
// heuristic, not a binary-format parser: legacy .doc internals (FIB, piece
// tables) are not decoded, so non-text runs of the stream are expected to
// decode to control characters or replacement runes and get filtered out
// below rather than produce garbage output.
func extractPrintableText(data []byte) string {
	decoder := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder()
	decoded, _, _ := transform.Bytes(decoder, data)

	var b strings.Builder
	var run strings.Builder
	flush := func() {
		if run.Len() >= 4 {
			b.WriteString(run.String())
			b.WriteString("\n")
		}
		run.Reset()
	}
	for _, r := range string(decoded) {
		if r >= 0x20 && r < 0x7f {
			run.WriteRune(r)
		} else {
			flush()
		}
	}
	flush()
	return b.String()
}

func stripXMLTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// docxBody and friends model just enough of WordprocessingML to recover
// paragraph text, style names, and simple tables.
type docxBody struct {
	XMLName xml.Name    `xml:"document"`
	Paras   []docxPara  `xml:"body>p"`
	Tables  []docxTable `xml:"body>tbl"`
}

type docxPara struct {
	PPr  *docxParaPr `xml:"pPr"`
	Runs []docxRun   `xml:"r"`
}

type docxParaPr struct {
	PStyle *docxPStyle `xml:"pStyle"`
}

type docxPStyle struct {
	Val string `xml:"val,attr"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

type docxTable struct {
	Rows []docxRow `xml:"tr"`
}

type docxRow struct {
	Cells []docxCell `xml:"tc"`
}

type docxCell struct {
	Paras []docxPara `xml:"p"`
}

func extractParaText(para docxPara) string {
	var b strings.Builder
	for _, run := range para.Runs {
		for _, t := range run.Text {
			b.WriteString(t.Content)
		}
	}
	return b.String()
}

func paraHeadingLevel(style string) (level int, isHeading bool) {
	lower := strings.ToLower(style)
	if strings.HasPrefix(lower, "title") {
		return 1, true
	}
	for i := 1; i <= 6; i++ {
		if lower == fmt.Sprintf("heading%d", i) {
			return i, true
		}
	}
	return 0, false
}

// flushParas walks paragraphs in document order, opening a new
// ParsedSection whenever a heading-styled paragraph is seen and
// accumulating body text under the most recent heading otherwise.
func flushParas(doc *ParsedDocument, raw *strings.Builder, paras []docxPara) {
	var current *ParsedSection

	closeCurrent := func() {
		if current == nil {
			return
		}
		current.Content = strings.TrimSpace(current.Content)
		current.EndOffset = raw.Len()
		doc.Sections = append(doc.Sections, *current)
		current = nil
	}

	for _, para := range paras {
		text := strings.TrimSpace(extractParaText(para))
		if text == "" {
			continue
		}

		style := ""
		if para.PPr != nil && para.PPr.PStyle != nil {
			style = para.PPr.PStyle.Val
		}

		if level, ok := paraHeadingLevel(style); ok {
			closeCurrent()
			start := raw.Len()
			raw.WriteString(text + "\n")
			current = &ParsedSection{
				Title:       text,
				Level:       level,
				StartOffset: start,
				Path:        buildSectionPath(doc.Sections, level),
			}
			continue
		}

		if current == nil {
			start := raw.Len()
			current = &ParsedSection{Level: 0, StartOffset: start}
		}
		raw.WriteString(text + "\n")
		if current.Content != "" {
			current.Content += "\n"
		}
		current.Content += text
	}
	closeCurrent()
}

func renderDocxTable(tbl docxTable) string {
	var b strings.Builder
	for _, row := range tbl.Rows {
		cells := make([]string, 0, len(row.Cells))
		for _, cell := range row.Cells {
			var cellText strings.Builder
			for _, p := range cell.Paras {
				t := extractParaText(p)
				if cellText.Len() > 0 {
					cellText.WriteString(" ")
				}
				cellText.WriteString(t)
			}
			cells = append(cells, strings.TrimSpace(cellText.String()))
		}
		b.WriteString("| " + strings.Join(cells, " | ") + " |\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
