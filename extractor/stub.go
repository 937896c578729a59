package extractor

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/jokari/knowledgehub/schema"
)

// StubExtractor is a rule-based extractor for development and testing: no
// LLM call, just regex and keyword matching against a bilingual (German
// field labels, English schema names) pattern table. It supports
// multi-record extraction from documents whose text contains several
// "Titel:"-delimited product entries.
type StubExtractor struct{}

func NewStub() *StubExtractor { return &StubExtractor{} }

var titelRe = regexp.MustCompile(`(?i)Titel:\s*`)
var titelTitleRe = regexp.MustCompile(`(?is)Titel:\s*(.+?)(?:\s*Beschreibung:|$)`)
var markdownHeaderRe = regexp.MustCompile(`^(#{1,3})\s+(.+)$`)

func (e *StubExtractor) Extract(ctx context.Context, text string, desc *schema.Descriptor, ectx Context) (Result, error) {
	sections := splitIntoSections(text)

	if len(sections) > 1 {
		var records []Record
		for _, sec := range sections {
			if rec, ok := e.extractSingleRecord(sec.content, sec.title, desc, ectx); ok {
				records = append(records, rec)
			}
		}
		return Result{
			Records:     records,
			NeedsReview: len(records) == 0,
			RawResponse: "",
		}, nil
	}

	rec, ok := e.extractLegacySingle(text, desc, ectx)
	if !ok {
		return Result{NeedsReview: true}, nil
	}
	return Result{Records: []Record{rec}}, nil
}

type textSection struct {
	title   string
	content string
}

// splitIntoSections mirrors the reference stub's three-tier fallback:
// two or more "Titel:" markers split the document into product sections;
// otherwise markdown ATX headers (levels 1-3) split it; otherwise the
// whole document is one section titled by its first line.
func splitIntoSections(text string) []textSection {
	positions := titelRe.FindAllStringIndex(text, -1)
	if len(positions) >= 2 {
		var sections []textSection
		for i, pos := range positions {
			start := pos[0]
			end := len(text)
			if i+1 < len(positions) {
				end = positions[i+1][0]
			}
			sectionText := strings.TrimSpace(text[start:end])

			title := ""
			if m := titelTitleRe.FindStringSubmatch(sectionText); m != nil {
				title = strings.TrimSpace(firstLine(m[1]))
				if len(title) > 100 {
					title = title[:100]
				}
			} else if len(sectionText) > 7 {
				end := min(107, len(sectionText))
				title = strings.TrimSpace(sectionText[7:end])
			}

			if len(sectionText) > 200 && strings.Contains(sectionText, "Beschreibung:") {
				sections = append(sections, textSection{title: title, content: sectionText})
			}
		}
		return sections
	}

	var sections []textSection
	var currentTitle string
	var currentLines []string

	flush := func() {
		if currentTitle == "" || len(currentLines) == 0 {
			return
		}
		content := strings.Join(currentLines, "\n")
		if len(content) > 100 {
			sections = append(sections, textSection{title: currentTitle, content: content})
		}
	}

	for _, line := range strings.Split(text, "\n") {
		if m := markdownHeaderRe.FindStringSubmatch(line); m != nil {
			flush()
			currentTitle = strings.TrimSpace(m[2])
			currentLines = nil
		} else {
			currentLines = append(currentLines, line)
		}
	}
	flush()

	if len(sections) == 0 {
		title := firstLine(text)
		if len(title) > 100 {
			title = title[:100]
		}
		sections = append(sections, textSection{title: title, content: text})
	}

	return sections
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// extractSingleRecord fills every declared field of desc from one
// document section, always attaching the section title as the record's
// "title" field when the schema declares one, then running the
// Jokari-specific product-field pass unconditionally.
func (e *StubExtractor) extractSingleRecord(text, sectionTitle string, desc *schema.Descriptor, ectx Context) (Record, bool) {
	data := map[string]any{}
	var evidence []Evidence

	if _, ok := desc.FieldByName("title"); ok {
		data["title"] = sectionTitle
		evidence = append(evidence, Evidence{FieldPath: "title", Excerpt: sectionTitle, ChunkIndex: ectx.ChunkIndex})
	}

	for _, f := range desc.Fields {
		if f.Name == "title" {
			continue
		}
		value, excerpt := extractField(text, f)
		if value == nil {
			continue
		}
		data[f.Name] = value
		if excerpt != "" {
			if len(excerpt) > 500 {
				excerpt = excerpt[:500]
			}
			evidence = append(evidence, Evidence{FieldPath: f.Name, Excerpt: excerpt, ChunkIndex: ectx.ChunkIndex})
		}
	}

	extractJokariProductFields(text, data)

	if len(data) == 0 {
		return Record{}, false
	}

	confidence := 0.4
	if validateRequired(desc, data) {
		confidence = 0.6
	}

	return Record{
		Data:          data,
		DocType:       desc.DocType,
		Evidence:      evidence,
		Confidence:    confidence,
		SourceSection: sectionTitle,
	}, true
}

// extractLegacySingle is the no-section fallback: extract every field
// from the document as a whole with no record framing.
func (e *StubExtractor) extractLegacySingle(text string, desc *schema.Descriptor, ectx Context) (Record, bool) {
	data := map[string]any{}
	var evidence []Evidence

	for _, f := range desc.Fields {
		value, excerpt := extractField(text, f)
		if value == nil {
			continue
		}
		data[f.Name] = value
		if excerpt != "" {
			evidence = append(evidence, Evidence{FieldPath: f.Name, Excerpt: excerpt, ChunkIndex: ectx.ChunkIndex})
		}
	}

	if len(data) == 0 {
		return Record{}, false
	}

	confidence := 0.3
	if validateRequired(desc, data) {
		confidence = 0.6
	}

	return Record{Data: data, DocType: desc.DocType, Evidence: evidence, Confidence: confidence}, true
}

func validateRequired(desc *schema.Descriptor, data map[string]any) bool {
	for _, name := range desc.RequiredFields() {
		if _, ok := data[name]; !ok {
			return false
		}
	}
	return true
}

// fieldPatterns is the bilingual (German-label, English-schema-name)
// lookup table used to locate a field's "Label: value" line in free text.
var fieldPatterns = map[string][]string{
	"title":           {"titel:", "überschrift:", "name:"},
	"question":        {"frage:", "question:"},
	"answer":          {"antwort:", "answer:", "lösung:"},
	"content":         {"inhalt:", "content:", "text:"},
	"description":     {"beschreibung:", "description:"},
	"problem":         {"problem:", "fehler:", "issue:"},
	"solution":        {"lösung:", "solution:"},
	"steps":           {"schritte:", "steps:", "anleitung:"},
	"name":            {"name:", "bezeichnung:"},
	"id":              {"id:", "nummer:", "kennung:"},
	"artnr":           {"artikelnummer:", "artnr:", "art.nr:", "art-nr:"},
	"version":         {"version:", "v.:"},
	"subject":         {"betreff:", "subject:"},
	"body":            {"text:", "body:", "inhalt:"},
	"warnings":        {"warnung:", "warning:", "achtung:", "vorsicht:"},
	"requirements":    {"anforderung:", "requirement:"},
	"objection_text":  {"einwand:", "objection:"},
	"response":        {"antwort:", "response:", "erwiderung:"},
	"role":            {"rolle:", "position:", "role:"},
	"category":        {"kategorie:", "category:"},
}

// extractField locates field f's "Label: value" line in text and coerces
// the captured excerpt to f.Kind. It returns (nil, "") when no pattern
// matches and no fallback applies.
func extractField(text string, f schema.Field) (any, string) {
	lowerText := strings.ToLower(text)

	patterns, ok := fieldPatterns[strings.ToLower(f.Name)]
	if !ok {
		patterns = []string{strings.ToLower(f.Name) + ":"}
	}

	var value any
	var excerpt string

	for _, pattern := range patterns {
		re := regexp.MustCompile(regexp.QuoteMeta(pattern) + `\s*([^\n]+)`)
		loc := re.FindStringSubmatchIndex(lowerText)
		if loc == nil {
			continue
		}
		start, end := loc[2], loc[3]
		excerpt = strings.TrimSpace(text[start:end])

		switch f.Kind {
		case schema.FieldList:
			if strings.Contains(excerpt, ",") {
				var items []any
				for _, item := range strings.Split(excerpt, ",") {
					items = append(items, strings.TrimSpace(item))
				}
				value = items
			} else {
				value = []any{excerpt}
			}
		case schema.FieldInt:
			if n, err := strconv.Atoi(firstDigits(excerpt)); err == nil {
				value = n
			}
		case schema.FieldFloat:
			if n, err := strconv.ParseFloat(firstDecimal(excerpt), 64); err == nil {
				value = n
			}
		default:
			value = excerpt
		}
		break
	}

	if value == nil && (strings.EqualFold(f.Name, "title") || strings.EqualFold(f.Name, "name")) {
		line := firstLine(text)
		if line != "" && len(line) < 200 {
			value, excerpt = line, line
		}
	}
	if value == nil && (strings.EqualFold(f.Name, "content") || strings.EqualFold(f.Name, "body")) {
		trimmed := strings.TrimSpace(text)
		if len(trimmed) > 5000 {
			trimmed = trimmed[:5000]
		}
		value = trimmed
		excerptLen := min(200, len(text))
		excerpt = text[:excerptLen] + "..."
	}

	return value, excerpt
}

var digitsRe = regexp.MustCompile(`\d+`)
var decimalRe = regexp.MustCompile(`[\d.]+`)

func firstDigits(s string) string {
	return digitsRe.FindString(s)
}

func firstDecimal(s string) string {
	return decimalRe.FindString(s)
}

// Jokari product-field regexes, ported verbatim in intent from the
// reference extractor's German-language patterns.
var (
	jokariDescRe    = regexp.MustCompile(`(?is)Beschreibung:\s*(.+?)(?:Welche Kabeltypen|Weitere Informationen|Anwendung:|$)`)
	jokariArtnrRe   = regexp.MustCompile(`(\d{5})[_\-]`)
	jokariKabelRe   = regexp.MustCompile(`(?is)Welche Kabeltypen.+?bearbeiten\?(.+?)(?:Weitere Informationen|Anwendung:|$)`)
	jokariCableRe   = regexp.MustCompile(`([A-Z]{2,}[-\s]?[A-Z]*\s+\d+x[\d,]+\s*mm²)`)
	jokariAnwendRe  = regexp.MustCompile(`(?is)Anwendung[^:]*:\s*(.+?)(?:Titel:|$|Umsetzung als Column)`)
	jokariStepRe    = regexp.MustCompile(`(?m)^\s*(?:\d+\.|-|•)\s*([^\n]+)`)
	jokariMedienRe  = regexp.MustCompile(`(?i)(\d{5}_[^\s]+\.(?:jpg|png|tif|jpeg))`)
	jokariFeatureRes = []*regexp.Regexp{
		regexp.MustCompile(`(?m)^\s*(?:-|•)\s*(TÜV[^\n]+)`),
		regexp.MustCompile(`(?m)^\s*(?:-|•)\s*(Wabenstruktur[^\n]+)`),
		regexp.MustCompile(`(?m)^\s*(?:-|•)\s*(Klingen mit[^\n]+)`),
		regexp.MustCompile(`(?m)^\s*(?:-|•)\s*(Sicherheitsverschluss[^\n]+)`),
	}
)

// extractJokariProductFields adds description/artnr/kabeltypen/anwendung/
// features/medien to data whenever the corresponding pattern matches,
// regardless of which schema is active — harmless for non-product
// schemas since those keys are simply ignored by everything downstream
// that isn't ProductSpec.
func extractJokariProductFields(text string, data map[string]any) {
	if _, exists := data["description"]; !exists {
		if m := jokariDescRe.FindStringSubmatch(text); m != nil {
			desc := collapseWhitespace(strings.TrimSpace(m[1]))
			if len(desc) > 2000 {
				desc = desc[:2000]
			}
			data["description"] = desc
		}
	}

	if m := jokariArtnrRe.FindStringSubmatch(text); m != nil {
		data["artnr"] = m[1]
	}

	if m := jokariKabelRe.FindStringSubmatch(text); m != nil {
		cables := jokariCableRe.FindAllString(m[1], -1)
		if len(cables) > 0 {
			data["kabeltypen"] = dedupe(cables)
		}
	}

	if m := jokariAnwendRe.FindStringSubmatch(text); m != nil {
		steps := jokariStepRe.FindAllStringSubmatch(m[1], -1)
		if len(steps) > 0 {
			var out []string
			for i, s := range steps {
				if i >= 20 {
					break
				}
				out = append(out, strings.TrimSpace(s[1]))
			}
			data["anwendung"] = out
		}
	}

	var features []string
	for _, re := range jokariFeatureRes {
		if m := re.FindStringSubmatch(text); m != nil {
			features = append(features, strings.TrimSpace(m[1]))
		}
	}
	if len(features) > 0 {
		data["features"] = features
	}

	if medien := jokariMedienRe.FindAllString(text, -1); len(medien) > 0 {
		data["medien"] = dedupe(medien)
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func dedupe(items []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}
