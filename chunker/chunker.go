// Package chunker implements the Chunker (C3): it turns a parsed
// document's sections into a flat, overlap-seeded sequence of chunks and
// produces a deterministic placeholder embedding for each one.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/jokari/knowledgehub/parser"
)

const EmbeddingDim = 1536

// Chunk is one unit of retrievable text, embedded and stored independently
// of the record-extraction pipeline. StartOffset/EndOffset are measured
// against the owning ParsedDocument's RawText, the same offset space
// ParsedSection uses. Confidence is the parse confidence of the document
// the chunk came from, not a measure of the chunk's own boundaries.
type Chunk struct {
	Index        int
	SectionTitle string
	SectionPath  string
	Content      string
	TokenCount   int
	ContentHash  string
	Embedding    []float32
	StartOffset  int
	EndOffset    int
	Confidence   float64
}

// Config controls chunk sizing. MaxChunkTokens, MinChunkTokens and
// OverlapTokens are expressed in the same "1 token ~= 4 characters" unit
// used throughout the pipeline, not a real tokenizer's token count.
// MinChunkTokens is the smallest a fragment must be before splitSection
// will flush it and start the next one; short of it, the next paragraph is
// appended even past MaxChunkTokens rather than emitting a sliver.
type Config struct {
	MaxChunkTokens int
	MinChunkTokens int
	OverlapTokens  int
}

func DefaultConfig() Config {
	return Config{MaxChunkTokens: 500, MinChunkTokens: 100, OverlapTokens: 50}
}

type Chunker struct {
	cfg Config
}

func New(cfg Config) *Chunker {
	if cfg.MaxChunkTokens <= 0 {
		cfg.MaxChunkTokens = 500
	}
	if cfg.MinChunkTokens < 0 {
		cfg.MinChunkTokens = 0
	}
	if cfg.OverlapTokens < 0 {
		cfg.OverlapTokens = 0
	}
	return &Chunker{cfg: cfg}
}

// estimateTokens approximates token count as one token per four characters.
func estimateTokens(text string) int {
	return (len(text) + 3) / 4
}

// fragment is an interior split of a section's content, still carrying its
// offsets relative to the owning document's RawText.
type fragment struct {
	text  string
	start int
	end   int
}

// Chunk splits every section of a parsed document into one or more
// Chunks, numbered densely across the whole document starting at 0.
func (c *Chunker) Chunk(doc *parser.ParsedDocument) []Chunk {
	var out []Chunk
	index := 0
	for _, sec := range doc.Sections {
		for _, frag := range c.splitSection(sec.Content, sec.StartOffset) {
			out = append(out, Chunk{
				Index:        index,
				SectionTitle: sec.Title,
				SectionPath:  sec.Path,
				Content:      frag.text,
				TokenCount:   estimateTokens(frag.text),
				ContentHash:  contentHash(frag.text),
				StartOffset:  frag.start,
				EndOffset:    frag.end,
				Embedding:    Embed(frag.text),
				Confidence:   doc.Confidence,
			})
			index++
		}
	}
	return out
}

// splitSection breaks section text into paragraph-bounded fragments of at
// most maxChars characters (MaxChunkTokens * 4), seeding each fragment
// after the first with OverlapTokens*4 characters of trailing context from
// the previous fragment. A fragment is only flushed once it has reached
// minChars (MinChunkTokens * 4); below that, paragraphs keep accumulating
// into it even past maxChars, so a trailing remainder never becomes a
// chunk too small to carry useful context.
func (c *Chunker) splitSection(text string, baseOffset int) []fragment {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	maxChars := c.cfg.MaxChunkTokens * 4
	minChars := c.cfg.MinChunkTokens * 4
	overlapChars := c.cfg.OverlapTokens * 4

	if len(text) <= maxChars {
		return []fragment{{text: text, start: baseOffset, end: baseOffset + len(text)}}
	}

	paragraphs := splitParagraphs(text)
	var fragments []fragment
	current := ""
	currentStart := baseOffset

	for _, para := range paragraphs {
		if para == "" {
			continue
		}

		if len(current)+len(para)+2 > maxChars && len(current) >= minChars {
			fragments = append(fragments, fragment{
				text:  strings.TrimSpace(current),
				start: currentStart,
				end:   currentStart + len(current),
			})

			prevLen := len(current)
			overlap := ""
			if len(current) > overlapChars {
				overlap = current[len(current)-overlapChars:]
			}
			if overlap != "" {
				current = overlap + "\n\n" + para
				currentStart += prevLen - len(overlap)
			} else {
				current = para
				currentStart += prevLen + 2
			}
			continue
		}

		if current != "" {
			current += "\n\n"
		}
		current += para
	}

	if strings.TrimSpace(current) != "" {
		fragments = append(fragments, fragment{
			text:  strings.TrimSpace(current),
			start: currentStart,
			end:   currentStart + len(current),
		})
	}

	return fragments
}

func splitParagraphs(text string) []string {
	raw := strings.Split(text, "\n\n")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func contentHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

// Embed produces a deterministic placeholder embedding: the SHA-256 digest
// of text is expanded to EmbeddingDim dimensions by cycling its bytes, then
// each dimension is normalized into [-1, 1]. This stands in for a real
// embedding model behind the same interface, so callers and the vector
// store never special-case it.
func Embed(text string) []float32 {
	digest := sha256.Sum256([]byte(text))

	out := make([]float32, EmbeddingDim)
	for i := range out {
		b := digest[i%len(digest)]
		// Rotate the byte window with each full cycle through the digest so
		// repeated passes don't just repeat the same 32 values.
		cycle := byte(i / len(digest))
		mixed := b ^ (cycle*31 + 1)
		out[i] = (float32(mixed)/255.0)*2 - 1
	}
	return out
}
