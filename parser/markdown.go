package parser

import (
	"context"
	"os"
	"regexp"
	"strings"
)

// MarkdownParser splits a markdown file on ATX headings. Text before the
// first heading becomes a level-0 section. A leading frontmatter block
// (--- ... ---) is parsed as simple key: value metadata and excluded from
// RawText's section content.
type MarkdownParser struct{}

var atxHeadingRe = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

func (p *MarkdownParser) SupportedFormats() []string { return []string{"md", "markdown"} }

func (p *MarkdownParser) Parse(ctx context.Context, path string) (*ParsedDocument, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &ParsedDocument{Confidence: 0, FileType: "md", Warnings: []string{err.Error()}}, nil
	}

	text := string(raw)
	metadata, body := extractFrontmatter(text)

	doc := &ParsedDocument{
		RawText:    body,
		Metadata:   metadata,
		Confidence: 1.0,
		FileType:   "md",
	}

	lines := strings.Split(body, "\n")
	offset := 0
	var current *ParsedSection

	flush := func(endOffset int) {
		if current == nil {
			return
		}
		current.Content = strings.TrimRight(current.Content, "\n")
		current.EndOffset = endOffset
		doc.Sections = append(doc.Sections, *current)
		current = nil
	}

	for _, line := range lines {
		lineStart := offset
		lineLen := len(line) + 1 // account for the stripped "\n"
		if m := atxHeadingRe.FindStringSubmatch(line); m != nil {
			flush(lineStart)
			level := len(m[1])
			title := strings.TrimSpace(m[2])
			current = &ParsedSection{
				Title:       title,
				Level:       level,
				StartOffset: lineStart,
				Path:        buildSectionPath(doc.Sections, level),
			}
		} else {
			if current == nil {
				current = &ParsedSection{Level: 0, StartOffset: lineStart}
			}
			current.Content += line + "\n"
		}
		offset += lineLen
	}
	flush(len(body))

	return doc, nil
}

var frontmatterRe = regexp.MustCompile(`(?s)^---\n(.*?)\n---\n?`)

// extractFrontmatter parses a leading --- ... --- block as simple
// "key: value" metadata and returns the remaining body with the
// frontmatter block removed.
func extractFrontmatter(text string) (map[string]string, string) {
	m := frontmatterRe.FindStringSubmatchIndex(text)
	if m == nil {
		return map[string]string{}, text
	}
	block := text[m[2]:m[3]]
	rest := text[m[1]:]

	meta := map[string]string{}
	for _, line := range strings.Split(block, "\n") {
		idx := strings.Index(line, ":")
		if idx < 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		val := strings.TrimSpace(line[idx+1:])
		if key != "" {
			meta[key] = val
		}
	}
	return meta, rest
}
