// Package extractor implements the Extractor (C4): it turns chunk text
// into zero or more candidate records of a given schema, each carrying
// evidence pointers back into the source text and a confidence score.
package extractor

import (
	"context"

	"github.com/jokari/knowledgehub/schema"
)

// Evidence anchors one extracted field back to the text it came from.
// StartOffset/EndOffset are the character bounds of Excerpt within the
// text passed to Extract; the stub extractor leaves both at zero.
type Evidence struct {
	FieldPath   string
	Excerpt     string
	ChunkIndex  int
	StartOffset int
	EndOffset   int
}

// Record is one candidate record pulled out of a chunk of text.
type Record struct {
	Data          map[string]any
	DocType       schema.DocType
	Evidence      []Evidence
	Confidence    float64
	SourceSection string
}

// Context carries the document metadata an Extractor needs alongside raw
// text: which department/doc_type it's extracting for, and which chunk the
// text came from (for evidence anchoring).
type Context struct {
	Department  schema.Department
	DocType     schema.DocType
	DocumentID  int64
	Filename    string
	ChunkIndex  int
}

// Result is what one Extract call returns: zero or more candidate
// records, plus whether the document as a whole needs human review.
type Result struct {
	Records     []Record
	NeedsReview bool
	RawResponse string
}

// Extractor pulls structured records of a known schema out of chunk text.
type Extractor interface {
	Extract(ctx context.Context, text string, desc *schema.Descriptor, ectx Context) (Result, error)
}
