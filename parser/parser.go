// Package parser implements the Parser Set (C2): one parser per file
// family, each turning a file of known kind into a ParsedDocument of raw
// text, hierarchical sections, metadata, and a confidence score.
package parser

import (
	"context"
	"strings"
)

// ParsedSection is a titled or untitled hierarchical block of a parsed
// document. Offsets are measured against the owning ParsedDocument's
// RawText, not the source bytes.
type ParsedSection struct {
	Title       string
	Content     string
	Level       int // 0 = body, 1..6 = heading depth
	StartOffset int
	EndOffset   int
	Path        string // " > "-joined chain of ancestor titles
}

// ParsedDocument is what every parser produces.
type ParsedDocument struct {
	RawText    string
	Sections   []ParsedSection
	Metadata   map[string]string
	Confidence float64
	FileType   string
	Warnings   []string
}

// Parser can parse a specific document format.
type Parser interface {
	Parse(ctx context.Context, path string) (*ParsedDocument, error)
	SupportedFormats() []string
}

// buildSectionPath walks the sections built so far and returns the
// " > "-joined chain of ancestor titles whose level is lower than level
// and greater than zero — the immediate heading lineage above a new
// section at the given level.
func buildSectionPath(built []ParsedSection, level int) string {
	var chain []string
	for i := len(built) - 1; i >= 0 && level > 0; i-- {
		s := built[i]
		if s.Level > 0 && s.Level < level && s.Title != "" {
			chain = append([]string{s.Title}, chain...)
			level = s.Level
		}
	}
	return strings.Join(chain, " > ")
}

func withPath(path, title string) string {
	if path == "" {
		return title
	}
	if title == "" {
		return path
	}
	return path + " > " + title
}
