package parser

import "fmt"

// Registry is a closed lookup table keyed on lowercased file extension
// (without the leading dot). Permitted extensions are fixed by the
// upload surface: docx, doc, md, markdown, csv, xlsx, xls, pdf.
type Registry struct {
	parsers map[string]Parser
}

// NewRegistry builds the registry with the standard parser set wired in.
func NewRegistry() *Registry {
	r := &Registry{parsers: make(map[string]Parser)}

	docx := &WordProcessorParser{}
	md := &MarkdownParser{}
	csv := &TabularParser{}
	xlsx := &TabularParser{}
	pdf := &PDFParser{}

	r.Register("docx", docx)
	r.Register("doc", docx)
	r.Register("md", md)
	r.Register("markdown", md)
	r.Register("csv", csv)
	r.Register("xlsx", xlsx)
	r.Register("xls", xlsx)
	r.Register("pdf", pdf)

	return r
}

// Get returns the parser registered for format (a lowercased extension
// without the leading dot). An unknown format returns an error, not a
// panic; the pipeline records it as a parse failure (UpstreamFailure).
func (r *Registry) Get(format string) (Parser, error) {
	p, ok := r.parsers[format]
	if !ok {
		return nil, fmt.Errorf("parser: unsupported format %q", format)
	}
	return p, nil
}

// Register adds or overrides the parser for a format.
func (r *Registry) Register(format string, p Parser) {
	r.parsers[format] = p
}
